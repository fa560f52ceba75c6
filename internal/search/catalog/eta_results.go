package catalog

import (
	"fmt"
	"strconv"
	"strings"

	"fedsearch/internal/federation"
	"fedsearch/internal/search"
)

const canaryEta = "SELECT e.id, r.id, s.id FROM linz_eta_result e, run r, linz_swmm_run s LIMIT 1"

const etaResultTemplate = "SELECT DISTINCT eta_result.eta_scenario_id FROM linz_eta_result eta_result " +
	"RIGHT OUTER JOIN run ON eta_result.eta_scenario_id = run.id " +
	"JOIN linz_swmm_run swmm_run ON swmm_run.swmm_scenario = eta_result.swmm_scenario_id " +
	"AND swmm_run.swmm_project_reference = "

const (
	etaHydClause = " AND eta_result.eta_hyd_actual >= eta_result.eta_hyd_required"
	etaSedClause = " AND eta_result.eta_sed_actual >= eta_result.eta_sed_required"
)

// EtaRequirement selects which efficiency requirements a run must meet.
type EtaRequirement int

const (
	EtaNone EtaRequirement = 0
	EtaHyd  EtaRequirement = 1
	EtaSed  EtaRequirement = 2
)

func ParseEtaRequirement(s string) (EtaRequirement, error) {
	var req EtaRequirement
	for _, part := range strings.Split(strings.ToLower(strings.TrimSpace(s)), "+") {
		switch strings.TrimSpace(part) {
		case "", "none":
		case "hyd":
			req |= EtaHyd
		case "sed":
			req |= EtaSed
		default:
			return 0, fmt.Errorf("invalid eta requirement %q (allowed: none, hyd, sed, hyd+sed)", s)
		}
	}
	return req, nil
}

// EtaResultsSearch finds the runs of a SWMM project whose eta results meet
// the selected requirements.
type EtaResultsSearch struct{}

func (s *EtaResultsSearch) ID() string          { return "eta-results" }
func (s *EtaResultsSearch) Title() string       { return "Eta Results" }
func (s *EtaResultsSearch) Scope() search.Scope { return search.ScopeFederated }

func (s *EtaResultsSearch) Description() string {
	return "Finds runs of a SWMM project whose hydraulic and/or sediment efficiency meets the required value."
}

func (s *EtaResultsSearch) Options() []search.Option {
	return []search.Option{
		{Name: "swmm-project", Description: "SWMM project id", Required: true},
		{Name: "eta", Description: "Requirements to meet: none, hyd, sed or hyd+sed", Default: "none"},
	}
}

func (s *EtaResultsSearch) Build(params map[string]string) (federation.Query, error) {
	p, err := search.CheckParams(s, params)
	if err != nil {
		return nil, err
	}
	project, err := search.Int(p, "swmm-project")
	if err != nil {
		return nil, err
	}
	req, err := ParseEtaRequirement(p["eta"])
	if err != nil {
		return nil, err
	}

	stmt := etaResultTemplate + strconv.Itoa(project)
	if req&EtaHyd != 0 {
		stmt += etaHydClause
	}
	if req&EtaSed != 0 {
		stmt += etaSedClause
	}
	return federation.StaticQuery{
		SearchName:   s.ID(),
		CanarySQL:    canaryEta,
		StatementSQL: stmt,
		Columns:      1,
		Table:        "run",
	}, nil
}

func init() {
	search.Register(&EtaResultsSearch{})
}
