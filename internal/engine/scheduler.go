package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"fedsearch/internal/federation"
	"fedsearch/internal/repository"
)

// ProbeScheduler runs a canary probe against every domain of a snapshot.
type ProbeScheduler struct {
	concurrency int
	logger      *slog.Logger
}

func NewProbeScheduler(concurrency int, logger *slog.Logger) (*ProbeScheduler, error) {
	if concurrency <= 0 {
		return nil, fmt.Errorf("concurrency must be >= 1, got %d", concurrency)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ProbeScheduler{concurrency: concurrency, logger: logger}, nil
}

// Execute streams one probe result per domain.
//
// Channel semantics:
//   - In the normal (non-canceled) case, exactly one DomainProbeResult is sent per domain.
//   - On context cancellation, the scheduler stops promptly; it may emit fewer than N results.
//   - The results channel and error channel are both closed reliably.
//   - The error channel carries fatal errors and cancellation; a failed probe
//     is a result with Compatible=false, not an error.
func (s *ProbeScheduler) Execute(ctx context.Context, snap repository.Snapshot, canary string) (<-chan DomainProbeResult, <-chan error) {
	resultsCh := make(chan DomainProbeResult)
	errCh := make(chan error, 1)

	go func() {
		defer close(resultsCh)
		defer close(errCh)

		trySendErr := func(err error) {
			if err == nil {
				return
			}
			select {
			case errCh <- err:
			default:
			}
		}

		if ctx == nil {
			trySendErr(errors.New("context is nil"))
			return
		}
		if s == nil {
			trySendErr(errors.New("scheduler is nil"))
			return
		}
		if s.concurrency <= 0 {
			trySendErr(fmt.Errorf("scheduler concurrency must be >= 1, got %d", s.concurrency))
			return
		}

		runCtx, cancel := context.WithCancel(ctx)
		defer cancel()

		sem := make(chan struct{}, s.concurrency)
		var wg sync.WaitGroup

	scheduleLoop:
		for _, domain := range snap.Domains() {
			if runCtx.Err() != nil {
				break
			}
			conn, _ := snap.Get(domain)

			select {
			case sem <- struct{}{}:
				// acquired
			case <-runCtx.Done():
				break scheduleLoop
			}

			wg.Add(1)
			go func(domain repository.Domain, conn repository.Connection) {
				defer wg.Done()
				defer func() { <-sem }()

				err := federation.Probe(runCtx, conn, canary, s.logger.With("domain", string(domain)))
				if runCtx.Err() != nil {
					return
				}

				select {
				case resultsCh <- DomainProbeResult{Domain: domain, Compatible: err == nil}:
				case <-runCtx.Done():
					return
				}
			}(domain, conn)
		}

		wg.Wait()
		trySendErr(ctx.Err())
	}()

	return resultsCh, errCh
}
