package federation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"fedsearch/internal/repository"
)

// State is a step of the worker state machine.
type State string

const (
	StateStart        State = "START"
	StateProbe        State = "PROBE"
	StateIncompatible State = "INCOMPATIBLE"
	StateCompatible   State = "COMPATIBLE"
	StateQuery        State = "QUERY"
	StateResolve      State = "RESOLVE"
	StateHydrate      State = "HYDRATE"
	StateDone         State = "DONE"
)

// Outcome is the result of one worker: either Objects or Err, never both.
// Excluded holds the probe failure of an incompatible repository.
type Outcome struct {
	Domain     repository.Domain
	Objects    []repository.Object
	Err        error
	Excluded   error
	Compatible bool
	Skipped    int
	Duration   time.Duration
	States     []State
}

func (o Outcome) Failed() bool {
	return o.Err != nil
}

// Worker runs one query against exactly one repository. It never retries:
// the first error after the probe is final.
type Worker struct {
	Domain repository.Domain
	Conn   repository.Connection
	Query  Query
	User   repository.User
	Logger *slog.Logger

	states  []State
	outcome Outcome
	ran     bool
}

func NewWorker(domain repository.Domain, conn repository.Connection, q Query, user repository.User, logger *slog.Logger) *Worker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{
		Domain: domain,
		Conn:   conn,
		Query:  q,
		User:   user,
		Logger: logger.With("domain", string(domain)),
	}
}

// Run executes the worker once. Later calls are no-ops.
func (w *Worker) Run(ctx context.Context) {
	if w.ran {
		return
	}
	w.ran = true

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			w.Logger.Error("worker terminated abnormally", "panic", r)
			w.finish(Outcome{Err: &TransportError{Domain: w.Domain, Stage: w.lastStage(), Err: fmt.Errorf("panic: %v", r)}})
		}
		w.outcome.Duration = time.Since(start)
	}()

	w.finish(w.run(ctx))
}

func (w *Worker) run(ctx context.Context) Outcome {
	w.enter(StateStart)
	if w.Conn == nil {
		return Outcome{Err: &TransportError{Domain: w.Domain, Stage: StageQuery, Err: fmt.Errorf("nil connection")}}
	}
	if w.Query == nil {
		return Outcome{Err: &TransportError{Domain: w.Domain, Stage: StageQuery, Err: fmt.Errorf("nil query")}}
	}

	w.enter(StateProbe)
	if err := Probe(ctx, w.Conn, w.Query.Canary(), w.Logger); err != nil {
		if errors.Is(err, ErrIncompatibleRepository) {
			w.enter(StateIncompatible)
			return Outcome{Excluded: err}
		}
		return Outcome{Err: &TransportError{Domain: w.Domain, Stage: StageProbe, Err: err}}
	}
	w.enter(StateCompatible)

	if p, ok := w.Query.(Projector); ok {
		return w.runProjection(ctx, p)
	}

	w.enter(StateQuery)
	class, err := w.Conn.ClassByTable(ctx, w.User, w.Query.ClassTable())
	if err != nil {
		w.Logger.Error("cannot fetch class", "table", w.Query.ClassTable(), "error", err)
		return Outcome{Compatible: true, Err: &TransportError{Domain: w.Domain, Stage: StageClass, Err: err}}
	}

	stmt := w.Query.Statement()
	w.Logger.Debug("executing statement", "statement", stmt)
	queryStart := time.Now()
	rows, err := w.Conn.Execute(ctx, stmt)
	if err != nil {
		w.Logger.Error("exception during execution of statement", "statement", stmt, "error", err)
		return Outcome{Compatible: true, Err: &TransportError{Domain: w.Domain, Stage: StageQuery, Err: err}}
	}
	w.Logger.Debug("statement finished", "rows", len(rows), "took", time.Since(queryStart))

	w.enter(StateResolve)
	ids, skipped := Resolver{Arity: w.Query.Arity(), Logger: w.Logger}.Resolve(rows)

	w.enter(StateHydrate)
	objects, err := Hydrator{Logger: w.Logger}.Hydrate(ctx, w.Domain, w.Conn, w.User, class, ids)
	if err != nil {
		w.Logger.Error("cannot create objects from found results", "error", err)
		return Outcome{Compatible: true, Err: err}
	}
	return Outcome{Compatible: true, Objects: objects, Skipped: len(skipped)}
}

func (w *Worker) runProjection(ctx context.Context, p Projector) Outcome {
	w.enter(StateQuery)
	stmt := p.Statement()
	w.Logger.Debug("executing statement", "statement", stmt)
	rows, err := w.Conn.Execute(ctx, stmt)
	if err != nil {
		w.Logger.Error("exception during execution of statement", "statement", stmt, "error", err)
		return Outcome{Compatible: true, Err: &TransportError{Domain: w.Domain, Stage: StageQuery, Err: err}}
	}

	w.enter(StateResolve)
	objects, skipped := Project(rows, p, w.Logger)
	for i := range objects {
		if objects[i].Domain == "" {
			objects[i].Domain = w.Domain
		}
	}
	return Outcome{Compatible: true, Objects: objects, Skipped: len(skipped)}
}

func (w *Worker) enter(s State) {
	w.states = append(w.states, s)
}

func (w *Worker) lastStage() Stage {
	if len(w.states) == 0 {
		return StageQuery
	}
	switch w.states[len(w.states)-1] {
	case StateProbe:
		return StageProbe
	case StateResolve:
		return StageResolve
	case StateHydrate:
		return StageHydrate
	default:
		return StageQuery
	}
}

func (w *Worker) finish(o Outcome) {
	if o.Err != nil {
		o.Objects = nil
	} else if o.Objects == nil {
		o.Objects = []repository.Object{}
	}
	o.Domain = w.Domain
	if n := len(w.states); n == 0 || w.states[n-1] != StateIncompatible {
		w.enter(StateDone)
	}
	o.States = append([]State(nil), w.states...)
	w.outcome = o
}

// Outcome returns the recorded outcome, including the states the worker
// passed through. It must only be read after Run has returned.
func (w *Worker) Outcome() Outcome {
	return w.outcome
}
