package output

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"fedsearch/internal/repository"
)

const (
	formatJSON   = "json"
	formatNDJSON = "ndjson"
)

// searchDocument is the json rendering of one search.
type searchDocument struct {
	Search     string          `json:"search,omitempty"`
	RunID      string          `json:"run_id,omitempty"`
	Status     string          `json:"status"`
	ExitCode   int             `json:"exit_code"`
	Error      string          `json:"error,omitempty"`
	DurationMS int64           `json:"duration_ms,omitempty"`
	Domains    []domainObjects `json:"domains"`
	View       any             `json:"view,omitempty"`
}

type domainObjects struct {
	Domain  repository.Domain   `json:"domain"`
	Objects []repository.Object `json:"objects"`
}

// structuredWriter backs the emit and file sinks. In ndjson mode every value
// is written as one Event line; in json mode values are folded into a
// searchDocument that is written on close.
type structuredWriter struct {
	w        io.Writer
	format   string
	doc      searchDocument
	finished bool
	objects  int
	groups   map[repository.Domain][]repository.Object
}

func newStructuredWriter(w io.Writer, format string) (*structuredWriter, error) {
	if format != formatJSON && format != formatNDJSON {
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
	return &structuredWriter{w: w, format: format, groups: map[repository.Domain][]repository.Object{}}, nil
}

func (s *structuredWriter) write(v any) error {
	if s.format == formatNDJSON {
		switch t := v.(type) {
		case Event:
			return encodeLine(s.w, t)
		case repository.Object:
			return encodeLine(s.w, eventFromObject(t))
		}
		return nil
	}

	switch t := v.(type) {
	case repository.Object:
		s.add(t)
	case Event:
		s.record(t)
	}
	return nil
}

func (s *structuredWriter) add(o repository.Object) {
	s.groups[o.Domain] = append(s.groups[o.Domain], o)
	s.objects++
}

func (s *structuredWriter) seed(domains []repository.Domain) {
	for _, d := range domains {
		if _, ok := s.groups[d]; !ok {
			s.groups[d] = []repository.Object{}
		}
	}
}

func (s *structuredWriter) record(e Event) {
	if e.Search != "" {
		s.doc.Search = e.Search
	}
	if e.RunID != "" {
		s.doc.RunID = e.RunID
	}
	s.seed(e.Domains)
	switch e.Type {
	case EventObject:
		if e.Object != nil {
			s.add(*e.Object)
		}
	case EventSearchFinished:
		s.finished = true
		s.doc.ExitCode = e.ExitCode
		s.doc.DurationMS = e.DurationMS
		s.doc.View = e.View
	case EventSearchFailed:
		s.finished = true
		s.doc.ExitCode = e.ExitCode
		s.doc.Error = e.Error
	}
}

// close writes the json document. It is a no-op for ndjson.
func (s *structuredWriter) close() error {
	if s.format != formatJSON {
		return nil
	}
	s.doc.Status = runStatus(s.finished, s.doc.Error, s.objects)
	s.doc.Domains = make([]domainObjects, 0, len(s.groups))
	for d, objs := range s.groups {
		s.doc.Domains = append(s.doc.Domains, domainObjects{Domain: d, Objects: objs})
	}
	sort.Slice(s.doc.Domains, func(i, j int) bool { return s.doc.Domains[i].Domain < s.doc.Domains[j].Domain })

	encoder := json.NewEncoder(s.w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(s.doc); err != nil {
		return err
	}
	return flushIfPossible(s.w)
}

// runStatus summarises a search for the json document and the report.
func runStatus(finished bool, failure string, objects int) string {
	switch {
	case failure != "":
		return "failed"
	case !finished:
		return "incomplete"
	case objects == 0:
		return "no results"
	}
	return "ok"
}

func encodeLine(w io.Writer, v any) error {
	if err := json.NewEncoder(w).Encode(v); err != nil {
		return err
	}
	return flushIfPossible(w)
}

type flusher interface {
	Flush() error
}

func flushIfPossible(w io.Writer) error {
	if f, ok := w.(flusher); ok {
		return f.Flush()
	}
	return nil
}
