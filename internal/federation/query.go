// Package federation runs one search against every active domain repository
// in parallel and merges the results under an all-or-nothing policy.
//
// Per domain, a Worker probes the repository with a canary statement, runs
// the search statement, resolves the returned identifiers and hydrates them
// into objects. The Coordinator fans workers out, waits for all of them up to
// a global timeout, and either returns the concatenation of every domain's
// objects or a single failure.
package federation

import "fedsearch/internal/repository"

// Query builds the statements of one federated search.
type Query interface {
	// Name identifies the search in logs and output.
	Name() string

	// Canary is a cheap statement whose failure marks a repository as
	// incompatible. Empty disables the probe.
	Canary() string

	// Statement returns the search statement. Its first column is the object id.
	Statement() string

	// Arity is the expected column count of every result row.
	Arity() int

	// ClassTable names the table whose class the ids belong to.
	ClassTable() string
}

// Projector is implemented by lightweight queries whose rows already carry
// everything the caller needs. Rows are projected into objects directly
// instead of being resolved and hydrated.
type Projector interface {
	Query
	Project(row repository.Row) (repository.Object, error)
}

// StaticQuery is a Query with fixed statements.
type StaticQuery struct {
	SearchName   string
	CanarySQL    string
	StatementSQL string
	Columns      int
	Table        string
}

func (q StaticQuery) Name() string       { return q.SearchName }
func (q StaticQuery) Canary() string     { return q.CanarySQL }
func (q StaticQuery) Statement() string  { return q.StatementSQL }
func (q StaticQuery) ClassTable() string { return q.Table }

func (q StaticQuery) Arity() int {
	if q.Columns <= 0 {
		return 1
	}
	return q.Columns
}
