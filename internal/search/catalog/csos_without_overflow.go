package catalog

import (
	"fedsearch/internal/federation"
	"fedsearch/internal/search"
)

// CsosWithoutOverflowSearch is CsoByOverflowSearch with a zero threshold.
type CsosWithoutOverflowSearch struct{}

func (s *CsosWithoutOverflowSearch) ID() string          { return "csos-without-overflow" }
func (s *CsosWithoutOverflowSearch) Title() string       { return "CSOs without Overflow" }
func (s *CsosWithoutOverflowSearch) Scope() search.Scope { return search.ScopeFederated }

func (s *CsosWithoutOverflowSearch) Description() string {
	return "Finds combined sewer overflows that did not overflow in the given SWMM run."
}

func (s *CsosWithoutOverflowSearch) Options() []search.Option {
	return []search.Option{
		{Name: "swmm-run", Description: "SWMM run (scenario) id", Required: true},
	}
}

func (s *CsosWithoutOverflowSearch) Build(params map[string]string) (federation.Query, error) {
	p, err := search.CheckParams(s, params)
	if err != nil {
		return nil, err
	}
	run, err := search.Int(p, "swmm-run")
	if err != nil {
		return nil, err
	}
	return csoOverflowQuery(s.ID(), run, 0)
}

func init() {
	search.Register(&CsosWithoutOverflowSearch{})
}
