package catalog

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"fedsearch/internal/federation"
	"fedsearch/internal/search"
)

const canaryCso = "SELECT DISTINCT c.id, r.id, s.id FROM linz_cso c, run r, linz_swmm_result s LIMIT 1"

const csoByOverflowTemplate = "SELECT DISTINCT swmm_run.linz_cso_reference " +
	"FROM linz_swmm_scenarios swmm_run, linz_swmm_result swmm_result " +
	"WHERE swmm_result.id = swmm_run.linz_swmm_result " +
	"AND swmm_result.overflow_volume <= %s " +
	"AND swmm_result.swmm_scenario_id = %d"

// CsoByOverflowSearch finds the CSOs of one SWMM run whose overflow volume
// does not exceed a threshold.
type CsoByOverflowSearch struct{}

func (s *CsoByOverflowSearch) ID() string          { return "cso-by-overflow" }
func (s *CsoByOverflowSearch) Title() string       { return "CSOs by Overflow Volume" }
func (s *CsoByOverflowSearch) Scope() search.Scope { return search.ScopeFederated }

func (s *CsoByOverflowSearch) Description() string {
	return "Finds combined sewer overflows whose overflow volume in the given SWMM run is at most the threshold."
}

func (s *CsoByOverflowSearch) Options() []search.Option {
	return []search.Option{
		{Name: "swmm-run", Description: "SWMM run (scenario) id", Required: true},
		{Name: "overflow", Description: "Maximum overflow volume; rounded to two decimals", Default: "0"},
	}
}

func (s *CsoByOverflowSearch) Build(params map[string]string) (federation.Query, error) {
	p, err := search.CheckParams(s, params)
	if err != nil {
		return nil, err
	}
	run, err := search.Int(p, "swmm-run")
	if err != nil {
		return nil, err
	}
	overflow, err := search.Float(p, "overflow")
	if err != nil {
		return nil, err
	}
	return csoOverflowQuery(s.ID(), run, overflow)
}

func csoOverflowQuery(name string, run int, overflow float64) (federation.Query, error) {
	if math.IsNaN(overflow) || math.IsInf(overflow, 0) {
		return nil, fmt.Errorf("overflow must be a finite number")
	}
	return federation.StaticQuery{
		SearchName:   name,
		CanarySQL:    canaryCso,
		StatementSQL: fmt.Sprintf(csoByOverflowTemplate, formatOverflow(overflow), run),
		Columns:      1,
		Table:        "linz_cso",
	}, nil
}

// formatOverflow renders v with at most two decimals and no trailing zeros.
// Rounding works on the exact binary value, ties to even.
func formatOverflow(v float64) string {
	s := strconv.FormatFloat(v, 'f', 2, 64)
	s = strings.TrimSuffix(strings.TrimRight(s, "0"), ".")
	if s == "-0" {
		return "0"
	}
	return s
}

func init() {
	search.Register(&CsoByOverflowSearch{})
}
