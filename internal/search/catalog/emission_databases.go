package catalog

import (
	"fedsearch/internal/federation"
	"fedsearch/internal/search"
)

// EmissionDatabasesSearch lists every emission database of one domain.
type EmissionDatabasesSearch struct{}

func (s *EmissionDatabasesSearch) ID() string          { return "emission-databases" }
func (s *EmissionDatabasesSearch) Title() string       { return "Emission Databases" }
func (s *EmissionDatabasesSearch) Scope() search.Scope { return search.ScopeDomain }
func (s *EmissionDatabasesSearch) Options() []search.Option {
	return nil
}

func (s *EmissionDatabasesSearch) Description() string {
	return "Lists the emission databases of the selected domain."
}

func (s *EmissionDatabasesSearch) Build(params map[string]string) (federation.Query, error) {
	if _, err := search.CheckParams(s, params); err != nil {
		return nil, err
	}
	return federation.StaticQuery{
		SearchName:   s.ID(),
		StatementSQL: "SELECT id, name, description, geometry FROM emission_database",
		Columns:      4,
		Table:        "emission_database",
	}, nil
}

func init() {
	search.Register(&EmissionDatabasesSearch{})
}
