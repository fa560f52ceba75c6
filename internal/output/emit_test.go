package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"fedsearch/internal/repository"
)

func TestEmitSink_JSON_GroupsByDomain(t *testing.T) {
	var buf bytes.Buffer
	s, err := NewEmitSink(&buf, "json")
	if err != nil {
		t.Fatalf("NewEmitSink returned error: %v", err)
	}

	_ = s.Write(Event{Type: EventSearchStarted, Search: "unfinished-runs", Domains: []repository.Domain{"WIEN", "LINZ", "GRAZ"}})
	_ = s.Write(obj("WIEN", 9, "w"))
	_ = s.Write(obj("LINZ", 2, "b"))
	_ = s.Write(obj("LINZ", 1, "a"))
	_ = s.Write(Event{Type: EventSearchFinished, Search: "unfinished-runs", RunID: "r-1", Objects: 3, DurationMS: 7})
	if err := s.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}

	var got searchDocument
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("failed to unmarshal json output: %v", err)
	}
	if got.Search != "unfinished-runs" || got.RunID != "r-1" || got.Status != "ok" || got.DurationMS != 7 {
		t.Fatalf("unexpected document header: %+v", got)
	}
	if len(got.Domains) != 3 {
		t.Fatalf("expected 3 domains, got %+v", got.Domains)
	}
	wantOrder := []repository.Domain{"GRAZ", "LINZ", "WIEN"}
	wantCounts := []int{0, 2, 1}
	for i, d := range got.Domains {
		if d.Domain != wantOrder[i] || len(d.Objects) != wantCounts[i] {
			t.Errorf("domain %d = %s with %d objects, want %s with %d", i, d.Domain, len(d.Objects), wantOrder[i], wantCounts[i])
		}
	}
	// Objects keep the order their domain returned them in.
	if linz := got.Domains[1].Objects; linz[0].ID != 2 || linz[1].ID != 1 {
		t.Errorf("expected arrival order within LINZ, got %+v", linz)
	}
}

func TestEmitSink_JSON_Failure(t *testing.T) {
	var buf bytes.Buffer
	s, err := NewEmitSink(&buf, "json")
	if err != nil {
		t.Fatal(err)
	}
	_ = s.Write(Event{Type: EventSearchStarted, Search: "eta-results", Domains: []repository.Domain{"LINZ"}})
	_ = s.Write(Event{Type: EventSearchFailed, Search: "eta-results", Error: "domain LINZ: execute: boom", ExitCode: 2})
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	var got searchDocument
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if got.Status != "failed" || got.ExitCode != 2 || !strings.Contains(got.Error, "boom") {
		t.Fatalf("unexpected document: %+v", got)
	}
}

func TestEmitSink_JSON_Unfinished(t *testing.T) {
	var buf bytes.Buffer
	s, _ := NewEmitSink(&buf, "json")
	_ = s.Write(obj("LINZ", 1, ""))
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), `"status": "incomplete"`) {
		t.Fatalf("expected incomplete status, got:\n%s", buf.String())
	}
}

func TestEmitSink_NDJSON(t *testing.T) {
	var buf bytes.Buffer
	s, err := NewEmitSink(&buf, "ndjson")
	if err != nil {
		t.Fatalf("NewEmitSink returned error: %v", err)
	}

	_ = s.Write(obj("LINZ", 1, "a"))
	_ = s.Write(obj("LINZ", 2, "b"))
	if err := s.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 ndjson lines, got %d", len(lines))
	}
	for _, line := range lines {
		var e Event
		if err := json.Unmarshal([]byte(line), &e); err != nil {
			t.Fatalf("invalid json line %q: %v", line, err)
		}
		if e.Type != EventObject {
			t.Fatalf("expected event type object, got %q", e.Type)
		}
		if e.Object == nil {
			t.Fatalf("expected event to include the object, got nil")
		}
		if e.Object.Domain != "LINZ" || e.Object.Class.Name != "RUN" {
			t.Fatalf("unexpected object: %+v", e.Object)
		}
	}
}

func TestEmitSink_InvalidFormat(t *testing.T) {
	var buf bytes.Buffer
	if _, err := NewEmitSink(&buf, "text"); err == nil {
		t.Fatalf("expected error, got nil")
	}
}

func TestEmitSink_NilWriter(t *testing.T) {
	if _, err := NewEmitSink(nil, "json"); err == nil {
		t.Fatalf("expected error, got nil")
	}
}
