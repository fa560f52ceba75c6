package federation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"fedsearch/internal/repository"
)

// DefaultTimeout bounds a whole federated search.
const DefaultTimeout = 2 * time.Minute

// Source provides the active repositories.
type Source interface {
	Snapshot() repository.Snapshot
}

// Result is the merged outcome of a successful federated search.
type Result struct {
	RunID    string
	Search   string
	Domains  []repository.Domain
	Objects  []repository.Object
	Duration time.Duration
}

// Coordinator fans a query out to every active repository and merges the
// results. Any worker failure, or a run exceeding the timeout, fails the
// whole search and discards every partial result.
type Coordinator struct {
	source      Source
	timeout     time.Duration
	newExecutor ExecutorFactory
	maxWorkers  int
	keep        func(repository.Domain) bool
	logger      *slog.Logger
}

type Option func(*Coordinator)

func WithTimeout(d time.Duration) Option {
	return func(c *Coordinator) {
		if d > 0 {
			c.timeout = d
		}
	}
}

func WithExecutorFactory(f ExecutorFactory) Option {
	return func(c *Coordinator) {
		if f != nil {
			c.newExecutor = f
		}
	}
}

// WithMaxWorkers caps the pool size. Zero keeps one worker per repository.
func WithMaxWorkers(n int) Option {
	return func(c *Coordinator) {
		if n >= 0 {
			c.maxWorkers = n
		}
	}
}

// WithDomainFilter restricts which snapshot domains take part in a search.
func WithDomainFilter(keep func(repository.Domain) bool) Option {
	return func(c *Coordinator) {
		c.keep = keep
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Coordinator) {
		if l != nil {
			c.logger = l
		}
	}
}

func NewCoordinator(source Source, opts ...Option) (*Coordinator, error) {
	if source == nil {
		return nil, errors.New("repository source is nil")
	}
	c := &Coordinator{
		source:      source,
		timeout:     DefaultTimeout,
		newExecutor: PoolExecutorFactory,
		logger:      slog.Default(),
	}
	for _, apply := range opts {
		if apply != nil {
			apply(c)
		}
	}
	return c, nil
}

// Search runs q against every active repository.
func (c *Coordinator) Search(ctx context.Context, user repository.User, q Query) (*Result, error) {
	if q == nil {
		return nil, errors.New("query is nil")
	}
	snap := c.source.Snapshot()
	if c.keep != nil {
		snap = snap.Filter(c.keep)
	}
	return c.run(ctx, user, q, snap)
}

// SearchDomain runs q against a single active repository.
func (c *Coordinator) SearchDomain(ctx context.Context, user repository.User, domain repository.Domain, q Query) (*Result, error) {
	if q == nil {
		return nil, errors.New("query is nil")
	}
	snap, ok := c.source.Snapshot().Only(domain)
	if !ok {
		c.logger.Error("domain not supported", "search", q.Name(), "domain", string(domain))
		return nil, fmt.Errorf("%w: %s", ErrUnknownDomain, domain)
	}
	return c.run(ctx, user, q, snap)
}

func (c *Coordinator) run(ctx context.Context, user repository.User, q Query, snap repository.Snapshot) (*Result, error) {
	if ctx == nil {
		return nil, errors.New("context is nil")
	}
	start := time.Now()
	runID := uuid.NewString()
	logger := c.logger.With("search", q.Name(), "run", runID)

	res := &Result{
		RunID:   runID,
		Search:  q.Name(),
		Domains: snap.Domains(),
		Objects: []repository.Object{},
	}
	if snap.Len() == 0 {
		logger.Info("no active repositories, nothing to search")
		return res, nil
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	size := snap.Len()
	if c.maxWorkers > 0 && c.maxWorkers < size {
		size = c.maxWorkers
	}
	exec := c.newExecutor(size)

	workers := make([]*Worker, 0, snap.Len())
	finished := make([]atomic.Bool, snap.Len())
	for i, domain := range res.Domains {
		conn, _ := snap.Get(domain)
		w := NewWorker(domain, conn, q, user, logger)
		workers = append(workers, w)
		flag := &finished[i]
		if err := exec.Submit(func() {
			defer flag.Store(true)
			w.Run(runCtx)
		}); err != nil {
			exec.Close()
			return nil, fmt.Errorf("submit worker for domain %s: %w", domain, err)
		}
	}
	exec.Close()

	timer := time.NewTimer(c.timeout)
	defer timer.Stop()

	select {
	case <-exec.Done():
		// Workers cut short by a cancellation look like clean finishes.
		if err := ctx.Err(); err != nil {
			return nil, c.interrupted(logger, q, err)
		}
	case <-timer.C:
		var pending []repository.Domain
		for i := range workers {
			if !finished[i].Load() {
				pending = append(pending, workers[i].Domain)
			}
		}
		cancel()
		logger.Error("the searches did not finish in time, search unsuccessful", "timeout", c.timeout, "pending", len(pending))
		return nil, &CoordinatorTimeoutError{Search: q.Name(), Timeout: c.timeout, Pending: pending}
	case <-ctx.Done():
		return nil, c.interrupted(logger, q, ctx.Err())
	}

	for _, w := range workers {
		o := w.Outcome()
		if o.Failed() {
			logger.Error("at least one worker terminated abnormally, search unsuccessful", "domain", string(o.Domain), "error", o.Err)
			return nil, &AggregateFailure{Search: q.Name(), Domain: o.Domain, Err: o.Err}
		}
		if o.Excluded != nil {
			logger.Debug("worker finished", "domain", string(o.Domain), "states", o.States, "excluded", o.Excluded, "took", o.Duration)
			continue
		}
		logger.Debug("worker finished", "domain", string(o.Domain), "states", o.States, "objects", len(o.Objects), "skipped_rows", o.Skipped, "took", o.Duration)
		res.Objects = append(res.Objects, o.Objects...)
	}

	res.Duration = time.Since(start)
	logger.Info("search finished", "domains", len(res.Domains), "objects", len(res.Objects), "took", res.Duration)
	return res, nil
}

func (c *Coordinator) interrupted(logger *slog.Logger, q Query, err error) error {
	logger.Error("waiting for the workers was interrupted, search unsuccessful", "error", err)
	return fmt.Errorf("search %s interrupted: %w", q.Name(), err)
}
