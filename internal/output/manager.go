package output

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"fedsearch/internal/repository"
)

// Sink receives repository.Object values and lifecycle Events.
type Sink interface {
	Write(v any) error
	Close() error
}

// Manager fans a search out to its sinks. It tallies objects per domain
// between search.started and search.finished and attaches the tally to the
// finished event.
type Manager struct {
	sinks []Sink

	mu     sync.Mutex
	counts map[repository.Domain]int
}

func NewManager() *Manager {
	return &Manager{counts: map[repository.Domain]int{}}
}

func (m *Manager) AddSink(s Sink) error {
	if m == nil {
		return fmt.Errorf("output manager is nil")
	}
	if s == nil {
		return fmt.Errorf("sink must not be nil")
	}
	m.sinks = append(m.sinks, s)
	return nil
}

// Write forwards v to every sink. Only repository.Object and Event values
// with a known type are accepted.
func (m *Manager) Write(v any) error {
	if m == nil {
		return fmt.Errorf("output manager is nil")
	}
	v, err := m.track(v)
	if err != nil {
		return err
	}

	var errs []error
	for _, s := range m.sinks {
		if err := s.Write(v); err != nil {
			errs = append(errs, fmt.Errorf("write %T: %w", s, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("errors writing to sinks: %w", errors.Join(errs...))
	}
	return nil
}

func (m *Manager) track(v any) (any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.counts == nil {
		m.counts = map[repository.Domain]int{}
	}

	switch t := v.(type) {
	case repository.Object:
		m.counts[t.Domain]++
		return t, nil
	case Event:
		switch t.Type {
		case EventSearchStarted:
			m.counts = make(map[repository.Domain]int, len(t.Domains))
			for _, d := range t.Domains {
				m.counts[d] = 0
			}
		case EventObject:
			if t.Object == nil {
				return nil, fmt.Errorf("object event without an object")
			}
			m.counts[t.Object.Domain]++
		case EventSearchFinished:
			for _, d := range t.Domains {
				if _, ok := m.counts[d]; !ok {
					m.counts[d] = 0
				}
			}
			t.DomainCounts = m.domainCounts()
		case EventSearchFailed:
		default:
			return nil, fmt.Errorf("unknown event type %q", t.Type)
		}
		return t, nil
	}
	return nil, fmt.Errorf("unsupported output value %T", v)
}

func (m *Manager) domainCounts() []DomainCount {
	out := make([]DomainCount, 0, len(m.counts))
	for d, n := range m.counts {
		out = append(out, DomainCount{Domain: d, Objects: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Domain < out[j].Domain })
	return out
}

func (m *Manager) Close() error {
	if m == nil {
		return fmt.Errorf("output manager is nil")
	}
	var errs []error
	for _, s := range m.sinks {
		if err := s.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %T: %w", s, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("errors closing sinks: %w", errors.Join(errs...))
	}
	return nil
}
