package repository_test

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"fedsearch/internal/repository"
	"fedsearch/internal/repository/repositorytest"
)

func TestRegistry_SnapshotIsolatedFromLaterChanges(t *testing.T) {
	r := repository.NewRegistry()
	if err := r.Register("B", repositorytest.NewConnection("B")); err != nil {
		t.Fatalf("Register B: %v", err)
	}
	if err := r.Register("A", repositorytest.NewConnection("A")); err != nil {
		t.Fatalf("Register A: %v", err)
	}

	snap := r.Snapshot()

	r.Unregister("A")
	if err := r.Register("C", repositorytest.NewConnection("C")); err != nil {
		t.Fatalf("Register C: %v", err)
	}

	if got, want := snap.Domains(), []repository.Domain{"A", "B"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("snapshot domains = %v, want %v", got, want)
	}
	if _, ok := snap.Get("A"); !ok {
		t.Fatal("expected snapshot to still hold A")
	}
	if _, ok := snap.Get("C"); ok {
		t.Fatal("expected snapshot not to see C")
	}
	if got, want := r.Snapshot().Domains(), []repository.Domain{"B", "C"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("live domains = %v, want %v", got, want)
	}
}

func TestRegistry_RegisterValidation(t *testing.T) {
	r := repository.NewRegistry()
	if err := r.Register("", repositorytest.NewConnection("")); err == nil {
		t.Fatal("expected error for empty domain")
	}
	if err := r.Register("A", nil); err == nil {
		t.Fatal("expected error for nil connection")
	}
	if err := r.Register("A", repositorytest.NewConnection("A")); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := r.Register("A", repositorytest.NewConnection("A")); err == nil {
		t.Fatal("expected duplicate registration error")
	}
}

func TestSnapshot_OnlyAndFilter(t *testing.T) {
	snap := repository.NewSnapshot(map[repository.Domain]repository.Connection{
		"A": repositorytest.NewConnection("A"),
		"B": repositorytest.NewConnection("B"),
		"C": nil,
	})
	if snap.Len() != 2 {
		t.Fatalf("Len = %d, want 2 (nil connections dropped)", snap.Len())
	}

	only, ok := snap.Only("B")
	if !ok || only.Len() != 1 {
		t.Fatalf("Only(B) = %v, %v", only.Domains(), ok)
	}
	if _, ok := snap.Only("Z"); ok {
		t.Fatal("expected Only(Z) to fail")
	}

	filtered := snap.Filter(func(d repository.Domain) bool { return d != "A" })
	if got, want := filtered.Domains(), []repository.Domain{"B"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("Filter = %v, want %v", got, want)
	}
}

type countingConn struct {
	*repositorytest.Connection
	calls int32
	fail  atomic.Bool
}

func (c *countingConn) ClassByTable(ctx context.Context, user repository.User, table string) (repository.ClassDescriptor, error) {
	atomic.AddInt32(&c.calls, 1)
	time.Sleep(50 * time.Millisecond)
	if c.fail.Load() {
		return repository.ClassDescriptor{}, errors.New("boom")
	}
	return c.Connection.ClassByTable(ctx, user, table)
}

func TestClassCache_DeduplicatesConcurrentLookups(t *testing.T) {
	inner := &countingConn{Connection: repositorytest.NewConnection("A")}
	inner.AddClass(repository.ClassDescriptor{ID: 7, Name: "RUN", Table: "run"})
	cache := repository.NewClassCache(inner)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			cd, err := cache.ClassByTable(context.Background(), repository.User{}, "run")
			if err != nil {
				t.Errorf("ClassByTable: %v", err)
				return
			}
			if cd.ID != 7 {
				t.Errorf("got class id %d, want 7", cd.ID)
			}
		}()
	}
	wg.Wait()

	if _, err := cache.ClassByTable(context.Background(), repository.User{}, "RUN "); err != nil {
		t.Fatalf("cached lookup: %v", err)
	}
	if got := atomic.LoadInt32(&inner.calls); got != 1 {
		t.Fatalf("got %d underlying calls, want 1", got)
	}
}

func TestClassCache_DoesNotCacheFailures(t *testing.T) {
	inner := &countingConn{Connection: repositorytest.NewConnection("A")}
	inner.AddClass(repository.ClassDescriptor{ID: 1, Table: "run"})
	inner.fail.Store(true)
	cache := repository.NewClassCache(inner)

	if _, err := cache.ClassByTable(context.Background(), repository.User{}, "run"); err == nil {
		t.Fatal("expected first lookup to fail")
	}
	inner.fail.Store(false)
	if _, err := cache.ClassByTable(context.Background(), repository.User{}, "run"); err != nil {
		t.Fatalf("second lookup: %v", err)
	}
	if got := atomic.LoadInt32(&inner.calls); got != 2 {
		t.Fatalf("got %d underlying calls, want 2", got)
	}
}

func TestRemoteAccessError_Wrapping(t *testing.T) {
	cause := errors.New("connection refused")
	err := repository.NewRemoteAccessError("A", "execute", cause)

	var rae *repository.RemoteAccessError
	if !errors.As(err, &rae) {
		t.Fatalf("expected *RemoteAccessError, got %T", err)
	}
	if !errors.Is(err, cause) {
		t.Fatal("expected errors.Is to reach the cause")
	}
	if again := repository.NewRemoteAccessError("B", "fetch", err); again != err {
		t.Fatal("expected an existing RemoteAccessError to be returned unchanged")
	}
	if repository.NewRemoteAccessError("A", "x", nil) != nil {
		t.Fatal("expected nil for nil cause")
	}
	if got, want := err.Error(), "domain A: execute: connection refused"; got != want {
		t.Fatalf("Error() = %q, want %q", got, want)
	}
}
