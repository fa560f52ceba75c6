package output

import (
	"fmt"
	"io"
	"sync"
)

// EmitSink streams a search to an extra writer, usually stdout or stderr
// alongside the console. json produces one search document on Close, ndjson
// produces one Event per line as the search runs.
type EmitSink struct {
	mu sync.Mutex
	sw *structuredWriter
}

func NewEmitSink(w io.Writer, format string) (*EmitSink, error) {
	if w == nil {
		return nil, fmt.Errorf("emit sink writer must not be nil")
	}
	sw, err := newStructuredWriter(w, format)
	if err != nil {
		return nil, fmt.Errorf("emit sink: %w", err)
	}
	return &EmitSink{sw: sw}, nil
}

func (s *EmitSink) Write(v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sw.write(v)
}

func (s *EmitSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sw.close()
}
