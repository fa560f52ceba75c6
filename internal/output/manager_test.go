package output

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"fedsearch/internal/repository"
)

type recordingSink struct {
	writes   []any
	closed   bool
	writeErr error
	closeErr error
}

func (s *recordingSink) Write(v any) error {
	s.writes = append(s.writes, v)
	return s.writeErr
}

func (s *recordingSink) Close() error {
	s.closed = true
	return s.closeErr
}

func TestManager_FansOut(t *testing.T) {
	m := NewManager()
	a, b := &recordingSink{}, &recordingSink{}
	if err := m.AddSink(a); err != nil {
		t.Fatal(err)
	}
	if err := m.AddSink(b); err != nil {
		t.Fatal(err)
	}

	if err := m.Write(obj("LINZ", 1, "")); err != nil {
		t.Fatalf("Write error: %v", err)
	}
	if err := m.Close(); err != nil {
		t.Fatalf("Close error: %v", err)
	}
	if len(a.writes) != 1 || len(b.writes) != 1 || !a.closed || !b.closed {
		t.Fatalf("expected both sinks to see the write and close: %+v %+v", a, b)
	}
}

func TestManager_CollectsErrors(t *testing.T) {
	m := NewManager()
	bad := &recordingSink{writeErr: errors.New("disk full"), closeErr: errors.New("close failed")}
	good := &recordingSink{}
	_ = m.AddSink(bad)
	_ = m.AddSink(good)

	err := m.Write(obj("LINZ", 1, ""))
	if err == nil || !strings.Contains(err.Error(), "disk full") {
		t.Fatalf("expected write error, got %v", err)
	}
	if len(good.writes) != 1 {
		t.Fatal("expected the healthy sink to still receive the write")
	}
	if err := m.Close(); err == nil || !strings.Contains(err.Error(), "close failed") {
		t.Fatalf("expected close error, got %v", err)
	}
	if !good.closed {
		t.Fatal("expected the healthy sink to be closed")
	}
}

func TestManager_Nil(t *testing.T) {
	var m *Manager
	if err := m.AddSink(&recordingSink{}); err == nil {
		t.Fatal("expected error for nil manager")
	}
	if err := NewManager().AddSink(nil); err == nil {
		t.Fatal("expected error for nil sink")
	}
}

func TestManager_StampsDomainCounts(t *testing.T) {
	m := NewManager()
	rec := &recordingSink{}
	_ = m.AddSink(rec)

	writes := []any{
		Event{Type: EventSearchStarted, Domains: []repository.Domain{"WIEN", "LINZ"}},
		obj("LINZ", 1, ""),
		obj("LINZ", 2, ""),
		Event{Type: EventObject, Object: &repository.Object{ID: 3, Domain: "GRAZ"}},
		Event{Type: EventSearchFinished, Domains: []repository.Domain{"GRAZ", "LINZ", "WIEN"}, Objects: 3},
	}
	for _, v := range writes {
		if err := m.Write(v); err != nil {
			t.Fatalf("Write(%v): %v", v, err)
		}
	}

	finished, ok := rec.writes[len(rec.writes)-1].(Event)
	if !ok {
		t.Fatalf("expected the last write to be an Event, got %T", rec.writes[len(rec.writes)-1])
	}
	want := []DomainCount{{Domain: "GRAZ", Objects: 1}, {Domain: "LINZ", Objects: 2}, {Domain: "WIEN", Objects: 0}}
	if !reflect.DeepEqual(finished.DomainCounts, want) {
		t.Fatalf("DomainCounts = %+v, want %+v", finished.DomainCounts, want)
	}
}

func TestManager_StartedResetsCounts(t *testing.T) {
	m := NewManager()
	rec := &recordingSink{}
	_ = m.AddSink(rec)

	_ = m.Write(Event{Type: EventSearchStarted, Domains: []repository.Domain{"LINZ"}})
	_ = m.Write(obj("LINZ", 1, ""))
	_ = m.Write(Event{Type: EventSearchStarted, Domains: []repository.Domain{"WIEN"}})
	_ = m.Write(Event{Type: EventSearchFinished})

	finished := rec.writes[len(rec.writes)-1].(Event)
	want := []DomainCount{{Domain: "WIEN", Objects: 0}}
	if !reflect.DeepEqual(finished.DomainCounts, want) {
		t.Fatalf("DomainCounts = %+v, want %+v", finished.DomainCounts, want)
	}
}

func TestManager_RejectsUnknownValues(t *testing.T) {
	m := NewManager()
	rec := &recordingSink{}
	_ = m.AddSink(rec)

	tests := []struct {
		name string
		v    any
		want string
	}{
		{name: "unknown event", v: Event{Type: "search.paused"}, want: "unknown event type"},
		{name: "object event without object", v: Event{Type: EventObject}, want: "without an object"},
		{name: "string", v: "LINZ", want: "unsupported output value string"},
		{name: "object pointer", v: &repository.Object{ID: 1}, want: "unsupported output value"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := m.Write(tt.v)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
	if len(rec.writes) != 0 {
		t.Fatalf("expected rejected values to never reach a sink, got %d writes", len(rec.writes))
	}
}
