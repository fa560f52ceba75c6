package repository

import (
	"fmt"
	"sort"
	"sync"
)

// Registry holds the currently active connections keyed by domain. It may
// change at any time; searches work on a Snapshot.
type Registry struct {
	mu    sync.RWMutex
	conns map[Domain]Connection
}

func NewRegistry() *Registry {
	return &Registry{conns: make(map[Domain]Connection)}
}

func (r *Registry) Register(domain Domain, conn Connection) error {
	if r == nil {
		return fmt.Errorf("registry is nil")
	}
	if domain == "" {
		return fmt.Errorf("domain must not be empty")
	}
	if conn == nil {
		return fmt.Errorf("connection for domain %s must not be nil", domain)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.conns[domain]; exists {
		return fmt.Errorf("domain %s already registered", domain)
	}
	r.conns[domain] = conn
	return nil
}

func (r *Registry) Unregister(domain Domain) {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.conns, domain)
}

// Snapshot captures the active connections. Later registry changes do not
// affect the returned value.
func (r *Registry) Snapshot() Snapshot {
	if r == nil {
		return Snapshot{}
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	conns := make(map[Domain]Connection, len(r.conns))
	for d, c := range r.conns {
		conns[d] = c
	}
	return newSnapshot(conns)
}

// Snapshot is an immutable domain -> connection mapping.
type Snapshot struct {
	conns   map[Domain]Connection
	domains []Domain
}

// NewSnapshot copies conns into a Snapshot.
func NewSnapshot(conns map[Domain]Connection) Snapshot {
	cp := make(map[Domain]Connection, len(conns))
	for d, c := range conns {
		if c == nil {
			continue
		}
		cp[d] = c
	}
	return newSnapshot(cp)
}

func newSnapshot(conns map[Domain]Connection) Snapshot {
	domains := make([]Domain, 0, len(conns))
	for d := range conns {
		domains = append(domains, d)
	}
	sort.Slice(domains, func(i, j int) bool { return domains[i] < domains[j] })
	return Snapshot{conns: conns, domains: domains}
}

func (s Snapshot) Len() int {
	return len(s.domains)
}

// Domains returns the captured domains in sorted order.
func (s Snapshot) Domains() []Domain {
	out := make([]Domain, len(s.domains))
	copy(out, s.domains)
	return out
}

func (s Snapshot) Get(domain Domain) (Connection, bool) {
	c, ok := s.conns[domain]
	return c, ok
}

// Only narrows the snapshot to a single domain.
func (s Snapshot) Only(domain Domain) (Snapshot, bool) {
	c, ok := s.conns[domain]
	if !ok {
		return Snapshot{}, false
	}
	return newSnapshot(map[Domain]Connection{domain: c}), true
}

// Filter keeps the domains for which keep returns true.
func (s Snapshot) Filter(keep func(Domain) bool) Snapshot {
	conns := make(map[Domain]Connection, len(s.conns))
	for _, d := range s.domains {
		if keep(d) {
			conns[d] = s.conns[d]
		}
	}
	return newSnapshot(conns)
}
