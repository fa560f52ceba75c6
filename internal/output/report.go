package output

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"fedsearch/internal/repository"
)

// ReportSink writes a Markdown summary of one search on Close.
type ReportSink struct {
	path     string
	file     *os.File
	mu       sync.Mutex
	objects  []repository.Object
	search   string
	runID    string
	domains  []repository.Domain
	failure  string
	exitCode int
	finished bool
	took     int64
}

func NewReportSink(path string) (*ReportSink, error) {
	if path == "" {
		return nil, fmt.Errorf("report path required")
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create report directory: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create report file: %w", err)
	}
	return &ReportSink{path: path, file: f}, nil
}

func (s *ReportSink) Write(v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch t := v.(type) {
	case repository.Object:
		s.objects = append(s.objects, t)
	case Event:
		if t.Search != "" {
			s.search = t.Search
		}
		if t.RunID != "" {
			s.runID = t.RunID
		}
		if len(t.Domains) > 0 {
			s.domains = append([]repository.Domain(nil), t.Domains...)
		}
		switch t.Type {
		case EventSearchFinished:
			s.finished = true
			s.exitCode = t.ExitCode
			s.took = t.DurationMS
		case EventSearchFailed:
			s.finished = true
			s.exitCode = t.ExitCode
			s.failure = t.Error
		}
	}
	return nil
}

func (s *ReportSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.file.WriteString(s.render())
	if closeErr := s.file.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	return err
}

func (s *ReportSink) render() string {
	var b strings.Builder

	title := s.search
	if title == "" {
		title = "search"
	}
	fmt.Fprintf(&b, "# fedsearch report: %s\n\n", title)
	if s.runID != "" {
		fmt.Fprintf(&b, "- Run: `%s`\n", s.runID)
	}

	fmt.Fprintf(&b, "- Status: %s\n", runStatus(s.finished, s.failure, len(s.objects)))
	if s.finished {
		fmt.Fprintf(&b, "- Exit code: %d\n", s.exitCode)
	}
	if s.took > 0 {
		fmt.Fprintf(&b, "- Duration: %dms\n", s.took)
	}
	fmt.Fprintf(&b, "- Domains: %d\n- Objects: %d\n", len(s.domains), len(s.objects))

	if s.failure != "" {
		fmt.Fprintf(&b, "\n## Failure\n\n```\n%s\n```\n", s.failure)
		return b.String()
	}

	perDomain := make(map[repository.Domain]int, len(s.domains))
	for _, d := range s.domains {
		perDomain[d] = 0
	}
	for _, o := range s.objects {
		perDomain[o.Domain]++
	}
	domains := make([]string, 0, len(perDomain))
	for d := range perDomain {
		domains = append(domains, string(d))
	}
	sort.Strings(domains)

	b.WriteString("\n## Domains\n\n| Domain | Objects |\n|---|---|\n")
	for _, d := range domains {
		fmt.Fprintf(&b, "| %s | %d |\n", escapeCell(d), perDomain[repository.Domain(d)])
	}

	if len(s.objects) > 0 {
		objs := append([]repository.Object(nil), s.objects...)
		sortObjects(objs)
		b.WriteString("\n## Objects\n\n| Domain | Class | ID | Label |\n|---|---|---|---|\n")
		for _, o := range objs {
			fmt.Fprintf(&b, "| %s | %s | %d | %s |\n",
				escapeCell(string(o.Domain)), escapeCell(className(o.Class)), o.ID, escapeCell(strings.TrimSpace(objectLabel(o))))
		}
	}
	return b.String()
}

func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}
