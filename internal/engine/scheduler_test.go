package engine

import (
	"context"
	"errors"
	"sort"
	"testing"

	"fedsearch/internal/repository"
	"fedsearch/internal/repository/repositorytest"
)

const probeCanary = "SELECT id FROM run LIMIT 1"

func TestProbeScheduler_OneResultPerDomain(t *testing.T) {
	snap := repository.NewSnapshot(map[repository.Domain]repository.Connection{
		"LINZ":   repositorytest.NewConnection("LINZ").SetResult(probeCanary),
		"WIEN":   repositorytest.NewConnection("WIEN").SetResult(probeCanary, repository.Row{1}),
		"LEGACY": repositorytest.NewConnection("LEGACY").FailStatement(probeCanary, errors.New("no such table: run")),
	})

	s, err := NewProbeScheduler(2, discardLogger())
	if err != nil {
		t.Fatalf("NewProbeScheduler: %v", err)
	}
	resCh, errCh := s.Execute(context.Background(), snap, probeCanary)

	var got []DomainProbeResult
	for r := range resCh {
		got = append(got, r)
	}
	for err := range errCh {
		if err != nil {
			t.Fatalf("unexpected scheduler error: %v", err)
		}
	}

	sort.Slice(got, func(i, j int) bool { return got[i].Domain < got[j].Domain })
	want := []DomainProbeResult{
		{Domain: "LEGACY", Compatible: false},
		{Domain: "LINZ", Compatible: true},
		{Domain: "WIEN", Compatible: true},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d results, want %d: %+v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("result %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestProbeScheduler_EmptyCanaryIsCompatible(t *testing.T) {
	snap := repository.NewSnapshot(map[repository.Domain]repository.Connection{
		"LINZ": repositorytest.NewConnection("LINZ"),
	})
	s, _ := NewProbeScheduler(1, nil)
	resCh, errCh := s.Execute(context.Background(), snap, "")

	r, ok := <-resCh
	if !ok || !r.Compatible {
		t.Fatalf("expected compatible result, got %+v (ok=%v)", r, ok)
	}
	for range resCh {
	}
	for err := range errCh {
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
}

func TestProbeScheduler_Canceled(t *testing.T) {
	snap := repository.NewSnapshot(map[repository.Domain]repository.Connection{
		"LINZ": repositorytest.NewConnection("LINZ").SetResult(probeCanary),
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s, _ := NewProbeScheduler(1, discardLogger())
	resCh, errCh := s.Execute(ctx, snap, probeCanary)
	for range resCh {
	}

	var gotErr error
	for err := range errCh {
		gotErr = err
	}
	if !errors.Is(gotErr, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", gotErr)
	}
}

func TestNewProbeScheduler_Validation(t *testing.T) {
	if _, err := NewProbeScheduler(0, nil); err == nil {
		t.Fatal("expected error for zero concurrency")
	}
}
