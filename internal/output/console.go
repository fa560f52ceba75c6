package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/fatih/color"

	"fedsearch/internal/repository"
)

type ConsoleSink struct {
	writer         io.Writer
	format         string // "text", "json", "ndjson"
	mu             sync.Mutex
	objects        []repository.Object // For JSON array output
	allowedDomains map[repository.Domain]bool
}

func NewConsoleSink(w io.Writer, format string, filterDomains []string) *ConsoleSink {
	if w == nil {
		w = os.Stdout
	}
	if format == "" {
		format = "text"
	}

	s := &ConsoleSink{
		writer:  w,
		format:  format,
		objects: []repository.Object{},
	}

	if len(filterDomains) > 0 {
		s.allowedDomains = make(map[repository.Domain]bool)
		for _, d := range filterDomains {
			s.allowedDomains[repository.Domain(strings.TrimSpace(d))] = true
		}
	}

	return s
}

func (s *ConsoleSink) Write(v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeLocked(v)
}

func (s *ConsoleSink) writeLocked(v any) error {
	// Apply filtering if configured
	if len(s.allowedDomains) > 0 {
		if o, ok := v.(repository.Object); ok {
			if !s.allowedDomains[o.Domain] {
				return nil
			}
		}
	}

	switch s.format {
	case "json":
		o, ok := v.(repository.Object)
		if !ok {
			// Ignore lifecycle events in JSON console mode.
			return nil
		}
		s.objects = append(s.objects, o)
		return nil
	case "ndjson":
		switch t := v.(type) {
		case Event:
			return encodeLine(s.writer, t)
		case repository.Object:
			return encodeLine(s.writer, eventFromObject(t))
		default:
			return nil
		}
	case "text":
		if err := s.writeText(v); err != nil {
			return err
		}
		return flushIfPossible(s.writer)
	default:
		return fmt.Errorf("unsupported console format: %s", s.format)
	}
}

func (s *ConsoleSink) writeText(v any) error {
	switch t := v.(type) {
	case repository.Object:
		_, err := fmt.Fprintf(s.writer, "[%s] %s #%d%s\n", t.Domain, className(t.Class), t.ID, objectLabel(t))
		return err
	case Event:
		switch t.Type {
		case EventSearchFinished:
			_, err := fmt.Fprintf(s.writer, "%s %s: %d object(s) from %d domain(s) in %dms%s\n",
				color.GreenString("done"), t.Search, t.Objects, len(t.Domains), t.DurationMS, countsSuffix(t.DomainCounts))
			return err
		case EventSearchFailed:
			_, err := fmt.Fprintf(s.writer, "%s %s: %s\n", color.RedString("failed"), t.Search, t.Error)
			return err
		}
	}
	return nil
}

// countsSuffix renders " (LINZ 2, WIEN 0)" for the finished line.
func countsSuffix(counts []DomainCount) string {
	if len(counts) == 0 {
		return ""
	}
	parts := make([]string, 0, len(counts))
	for _, c := range counts {
		parts = append(parts, fmt.Sprintf("%s %d", c.Domain, c.Objects))
	}
	return " (" + strings.Join(parts, ", ") + ")"
}

func className(c repository.ClassDescriptor) string {
	if c.Name != "" {
		return c.Name
	}
	if c.Table != "" {
		return c.Table
	}
	return "object"
}

// objectLabel picks a human-readable field for text output.
func objectLabel(o repository.Object) string {
	for _, k := range []string{"name", "title"} {
		if v, ok := o.Fields[k]; ok && v != nil {
			if s := fmt.Sprint(v); s != "" {
				return " " + s
			}
		}
	}
	return ""
}

func (s *ConsoleSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.format == "json" {
		sortObjects(s.objects)
		encoder := json.NewEncoder(s.writer)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(s.objects); err != nil {
			return err
		}
		return flushIfPossible(s.writer)
	}
	if s.format != "text" && s.format != "ndjson" {
		return fmt.Errorf("unsupported console format: %s", s.format)
	}
	return nil
}

// sortObjects orders aggregate output by domain, then id.
func sortObjects(objs []repository.Object) {
	sort.SliceStable(objs, func(i, j int) bool {
		if objs[i].Domain != objs[j].Domain {
			return objs[i].Domain < objs[j].Domain
		}
		return objs[i].ID < objs[j].ID
	})
}
