package search

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

var (
	registry = make(map[string]Search)
	mu       sync.RWMutex
)

func Register(s Search) {
	mu.Lock()
	defer mu.Unlock()
	if _, exists := registry[s.ID()]; exists {
		panic(fmt.Sprintf("search %s already registered", s.ID()))
	}
	registry[s.ID()] = s
}

func List() []Search {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]Search, 0, len(registry))
	for _, s := range registry {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ID() < out[j].ID()
	})
	return out
}

func Lookup(id string) (Search, error) {
	mu.RLock()
	defer mu.RUnlock()
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("search name is required")
	}
	s, ok := registry[id]
	if !ok {
		return nil, fmt.Errorf("search not found: %s", id)
	}
	return s, nil
}
