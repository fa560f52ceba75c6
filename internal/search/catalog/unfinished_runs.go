// Package catalog holds the searches shipped with fedsearch. Importing it
// registers them.
package catalog

import (
	"fedsearch/internal/federation"
	"fedsearch/internal/search"
)

// Tables every modelling domain carries. A repository without them is not a
// modelling repository and is skipped.
const canaryModelling = "SELECT r.id, mi.id, mo.id, m.id FROM run r, modelinput mi, modeloutput mo, model m LIMIT 1"

// UnfinishedRunsSearch finds runs that were started but never finished.
type UnfinishedRunsSearch struct{}

func (s *UnfinishedRunsSearch) ID() string          { return "unfinished-runs" }
func (s *UnfinishedRunsSearch) Title() string       { return "Unfinished Runs" }
func (s *UnfinishedRunsSearch) Scope() search.Scope { return search.ScopeFederated }

func (s *UnfinishedRunsSearch) Description() string {
	return "Finds model runs that have been started but not finished, across every active domain."
}

func (s *UnfinishedRunsSearch) Options() []search.Option { return nil }

func (s *UnfinishedRunsSearch) Build(params map[string]string) (federation.Query, error) {
	if _, err := search.CheckParams(s, params); err != nil {
		return nil, err
	}
	return federation.StaticQuery{
		SearchName:   s.ID(),
		CanarySQL:    canaryModelling,
		StatementSQL: "SELECT id FROM run WHERE finished IS NULL AND started IS NOT NULL",
		Columns:      1,
		Table:        "run",
	}, nil
}

func init() {
	search.Register(&UnfinishedRunsSearch{})
}
