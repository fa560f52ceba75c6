package catalog

import (
	"fedsearch/internal/federation"
	"fedsearch/internal/search"
)

// TimeseriesByNameSearch finds time series by exact name.
type TimeseriesByNameSearch struct{}

func (s *TimeseriesByNameSearch) ID() string          { return "timeseries-by-name" }
func (s *TimeseriesByNameSearch) Title() string       { return "Time Series by Name" }
func (s *TimeseriesByNameSearch) Scope() search.Scope { return search.ScopeDomain }

func (s *TimeseriesByNameSearch) Description() string {
	return "Finds the time series of the selected domain with exactly the given name."
}

func (s *TimeseriesByNameSearch) Options() []search.Option {
	return []search.Option{
		{Name: "name", Description: "Time series name", Required: true},
	}
}

func (s *TimeseriesByNameSearch) Build(params map[string]string) (federation.Query, error) {
	p, err := search.CheckParams(s, params)
	if err != nil {
		return nil, err
	}
	return federation.StaticQuery{
		SearchName:   s.ID(),
		StatementSQL: "SELECT id FROM timeseries WHERE name = " + search.Quote(p["name"]),
		Columns:      1,
		Table:        "timeseries",
	}, nil
}

func init() {
	search.Register(&TimeseriesByNameSearch{})
}
