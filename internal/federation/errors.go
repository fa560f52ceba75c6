package federation

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"fedsearch/internal/repository"
)

var (
	// ErrIncompatibleRepository marks a repository that failed its canary
	// probe. It is recorded on the Outcome and never fails a search.
	ErrIncompatibleRepository = errors.New("repository is not compatible with the search")

	// ErrUnknownDomain is returned when a single-domain search names a domain
	// that is not active.
	ErrUnknownDomain = errors.New("domain is not active")
)

// Stage names the worker step an error happened in.
type Stage string

const (
	StageProbe   Stage = "probe"
	StageClass   Stage = "class"
	StageQuery   Stage = "query"
	StageResolve Stage = "resolve"
	StageHydrate Stage = "hydrate"
)

// MalformedRowError describes a result row that does not fit the statement.
// Such rows are skipped.
type MalformedRowError struct {
	Index  int
	Width  int
	Arity  int
	Reason string
}

func (e *MalformedRowError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("row %d: %s", e.Index, e.Reason)
	}
	return fmt.Sprintf("row %d: got %d columns, want %d", e.Index, e.Width, e.Arity)
}

// TransportError is a repository failure after the probe succeeded. It is
// terminal for that domain's worker.
type TransportError struct {
	Domain repository.Domain
	Stage  Stage
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("domain %s: %s: %v", e.Domain, e.Stage, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// CoordinatorTimeoutError reports that not every worker finished within the
// coordinator's ceiling. No partial results accompany it.
type CoordinatorTimeoutError struct {
	Search  string
	Timeout time.Duration
	Pending []repository.Domain
}

func (e *CoordinatorTimeoutError) Error() string {
	msg := fmt.Sprintf("search %s did not finish within %s", e.Search, e.Timeout)
	if len(e.Pending) == 0 {
		return msg
	}
	names := make([]string, len(e.Pending))
	for i, d := range e.Pending {
		names[i] = string(d)
	}
	return fmt.Sprintf("%s (pending: %s)", msg, strings.Join(names, ", "))
}

// AggregateFailure reports that at least one domain failed, which fails the
// whole federated search.
type AggregateFailure struct {
	Search string
	Domain repository.Domain
	Err    error
}

func (e *AggregateFailure) Error() string {
	return fmt.Sprintf("search %s failed: %v", e.Search, e.Err)
}

func (e *AggregateFailure) Unwrap() error {
	return e.Err
}
