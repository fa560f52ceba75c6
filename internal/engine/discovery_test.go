package engine

import (
	"context"
	"errors"
	"io"
	"reflect"
	"strings"
	"testing"

	"fedsearch/internal/config"
	"fedsearch/internal/repository"
	"fedsearch/internal/repository/repositorytest"
)

type closeCounter struct {
	closed int
	err    error
}

func (c *closeCounter) Close() error {
	c.closed++
	return c.err
}

func TestDomains_CloseUnregistersAndCloses(t *testing.T) {
	closers := map[string]*closeCounter{"LINZ": {}, "WIEN": {err: errors.New("busy")}}
	open := func(_ context.Context, _ *config.Config, e config.DomainEntry) (repository.Connection, io.Closer, error) {
		return repositorytest.NewConnection(repository.Domain(e.Name)), closers[e.Name], nil
	}
	entries := []config.DomainEntry{{Name: "WIEN"}, {Name: "LINZ"}}

	d, err := OpenDomains(context.Background(), config.New(), entries, open)
	if err != nil {
		t.Fatalf("OpenDomains: %v", err)
	}
	if got, want := d.Names(), []repository.Domain{"LINZ", "WIEN"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("Names = %v, want %v", got, want)
	}

	snap := d.Registry.Snapshot()
	err = d.Close()
	if err == nil || !strings.Contains(err.Error(), "busy") {
		t.Fatalf("expected the close error of WIEN, got %v", err)
	}
	if len(d.Names()) != 0 {
		t.Fatalf("expected no registered domains after Close, got %v", d.Names())
	}
	if snap.Len() != 2 {
		t.Fatalf("expected an earlier snapshot to keep its domains, got %d", snap.Len())
	}
	for name, c := range closers {
		if c.closed != 1 {
			t.Errorf("%s closed %d times, want 1", name, c.closed)
		}
	}
	if err := d.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}

func TestOpenDomains_FailureClosesOpened(t *testing.T) {
	linz := &closeCounter{}
	open := func(_ context.Context, _ *config.Config, e config.DomainEntry) (repository.Connection, io.Closer, error) {
		if e.Name == "GRAZ" {
			return nil, nil, errors.New("connection refused")
		}
		return repositorytest.NewConnection(repository.Domain(e.Name)), linz, nil
	}

	_, err := OpenDomains(context.Background(), config.New(), []config.DomainEntry{{Name: "LINZ"}, {Name: "GRAZ"}}, open)
	if err == nil || !strings.Contains(err.Error(), "open domain GRAZ") {
		t.Fatalf("expected GRAZ open error, got %v", err)
	}
	if linz.closed != 1 {
		t.Fatalf("expected LINZ to be closed once, got %d", linz.closed)
	}
}
