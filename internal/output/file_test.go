package output

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"fedsearch/internal/repository"
)

func TestFileSink_JSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "out.json")
	s, err := NewFileSink(path, "")
	if err != nil {
		t.Fatalf("NewFileSink returned error: %v", err)
	}
	_ = s.Write(Event{Type: EventSearchStarted, Search: "lightweight-swmm-projects", Domains: []repository.Domain{"SUDPLAN"}})
	_ = s.Write(obj("SUDPLAN", 5, "x"))
	_ = s.Write(Event{Type: EventSearchFinished, Search: "lightweight-swmm-projects", Objects: 1, View: []map[string]any{{"id": 5}}})
	if err := s.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	var got searchDocument
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if len(got.Domains) != 1 || len(got.Domains[0].Objects) != 1 || got.Domains[0].Objects[0].ID != 5 {
		t.Fatalf("unexpected domains: %+v", got.Domains)
	}
	if got.View == nil {
		t.Fatal("expected the view of the finished event in the document")
	}
}

func TestFileSink_InferFormat(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		file    string
		want    string
		wantErr bool
	}{
		{file: "a.json", want: "json"},
		{file: "a.ndjson", want: "ndjson"},
		{file: "a.jsonl", want: "ndjson"},
		{file: "a.txt", wantErr: true},
	}
	for _, tt := range tests {
		s, err := NewFileSink(filepath.Join(dir, tt.file), "")
		if tt.wantErr {
			if err == nil {
				t.Errorf("%s: expected error", tt.file)
			}
			continue
		}
		if err != nil {
			t.Errorf("%s: %v", tt.file, err)
			continue
		}
		if s.format != tt.want {
			t.Errorf("%s: format = %s, want %s", tt.file, s.format, tt.want)
		}
		_ = s.Close()
	}

	if _, err := NewFileSink("", "json"); err == nil {
		t.Error("expected error for empty path")
	}
	if _, err := NewFileSink(filepath.Join(dir, "a.json"), "xml"); err == nil {
		t.Error("expected error for unsupported format")
	}
}

func TestFileSink_NDJSON_WritesIncrementally(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.ndjson")

	s, err := NewFileSink(path, "ndjson")
	if err != nil {
		t.Fatalf("NewFileSink returned error: %v", err)
	}
	defer func() { _ = s.Close() }()

	if err := s.Write(Event{Type: EventSearchStarted, Search: "unfinished-runs"}); err != nil {
		t.Fatalf("Write returned error: %v", err)
	}

	b1, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if !strings.Contains(string(b1), "\"type\":\"search.started\"") {
		t.Fatalf("expected search.started to be present after first Write, got %q", string(b1))
	}
	if !strings.HasSuffix(string(b1), "\n") {
		t.Fatalf("expected first Write to end with newline, got %q", string(b1))
	}

	if err := s.Write(obj("LINZ", 1, "")); err != nil {
		t.Fatalf("Write returned error: %v", err)
	}

	b2, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(b2)), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 ndjson lines after two Writes, got %d: %q", len(lines), string(b2))
	}
	if !strings.Contains(lines[1], "\"domain\":\"LINZ\"") {
		t.Fatalf("expected object fields to be inlined, got %q", lines[1])
	}
}
