// Package search defines the named searches the CLI can run and the registry
// they are looked up in.
package search

import (
	"fedsearch/internal/federation"
	"fedsearch/internal/repository"
)

// Scope says where a search runs.
type Scope string

const (
	// ScopeFederated fans out to every active domain.
	ScopeFederated Scope = "federated"
	// ScopeDomain runs against one configured domain.
	ScopeDomain Scope = "domain"
)

type Search interface {
	ID() string
	Title() string
	Description() string
	Scope() Scope

	// Options lists the parameters Build accepts.
	Options() []Option

	// Build validates params and returns the query to run. It must not keep
	// state between calls.
	Build(params map[string]string) (federation.Query, error)
}

// Viewer is implemented by searches that have a compact rendering of their
// results. The engine attaches it to the finished event.
type Viewer interface {
	View(objs []repository.Object) any
}

type Option struct {
	Name        string
	Description string
	Default     string
	Required    bool
}
