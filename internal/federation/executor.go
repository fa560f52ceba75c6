package federation

import (
	"errors"
	"sync"

	"golang.org/x/sync/errgroup"
)

// ErrExecutorClosed is returned by Submit after Close.
var ErrExecutorClosed = errors.New("executor is closed")

// Executor runs submitted tasks. After Close no more tasks are accepted and
// Done is closed once every accepted task has returned.
type Executor interface {
	Submit(task func()) error
	Close()
	Done() <-chan struct{}
}

// ExecutorFactory creates an executor for a run with size tasks.
type ExecutorFactory func(size int) Executor

// PoolExecutor runs tasks on an errgroup limited to size goroutines.
// Submit never blocks: a task that finds the pool full is handed to the
// group from its own goroutine.
type PoolExecutor struct {
	g       errgroup.Group
	pending sync.WaitGroup
	mu      sync.Mutex
	shut    bool
	done    chan struct{}
}

// NewPoolExecutor creates a pool running up to size tasks at once. A size
// <= 0 means unbounded.
func NewPoolExecutor(size int) *PoolExecutor {
	p := &PoolExecutor{done: make(chan struct{})}
	if size > 0 {
		p.g.SetLimit(size)
	}
	return p
}

// PoolExecutorFactory sizes each pool to the number of tasks of the run.
func PoolExecutorFactory(size int) Executor {
	return NewPoolExecutor(size)
}

func (p *PoolExecutor) Submit(task func()) error {
	if task == nil {
		return errors.New("task is nil")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.shut {
		return ErrExecutorClosed
	}
	run := func() error {
		task()
		return nil
	}
	if p.g.TryGo(run) {
		return nil
	}
	p.pending.Add(1)
	go func() {
		defer p.pending.Done()
		p.g.Go(run)
	}()
	return nil
}

func (p *PoolExecutor) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.shut {
		return
	}
	p.shut = true
	go func() {
		p.pending.Wait()
		_ = p.g.Wait()
		close(p.done)
	}()
}

func (p *PoolExecutor) Done() <-chan struct{} {
	return p.done
}

// SyncExecutor runs every task inline on the submitting goroutine, in
// submission order. It makes coordinator runs deterministic in tests.
type SyncExecutor struct {
	shut bool
	done chan struct{}
}

func NewSyncExecutor() *SyncExecutor {
	return &SyncExecutor{done: make(chan struct{})}
}

// SyncExecutorFactory ignores size.
func SyncExecutorFactory(int) Executor {
	return NewSyncExecutor()
}

func (s *SyncExecutor) Submit(task func()) error {
	if task == nil {
		return errors.New("task is nil")
	}
	if s.shut {
		return ErrExecutorClosed
	}
	task()
	return nil
}

func (s *SyncExecutor) Close() {
	if s.shut {
		return
	}
	s.shut = true
	close(s.done)
}

func (s *SyncExecutor) Done() <-chan struct{} {
	return s.done
}
