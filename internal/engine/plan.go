package engine

import (
	"fmt"
	"strings"

	"fedsearch/internal/config"
	"fedsearch/internal/federation"
	"fedsearch/internal/search"
)

// SearchPlan is a resolved search: the catalog entry, its query and the
// domains it will run against.
type SearchPlan struct {
	Search  search.Search
	Query   federation.Query
	Params  map[string]string
	Domains []config.DomainEntry

	// Target is set for single-domain searches.
	Target string
}

// NewSearchPlan looks the search up, builds its query from --param values and
// narrows the domain set for single-domain searches.
func NewSearchPlan(cfg *config.Config, domains []config.DomainEntry) (*SearchPlan, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}
	s, err := search.Lookup(cfg.Search.Name)
	if err != nil {
		return nil, err
	}

	params, err := config.ParseParamAssignments(cfg.Search.Params)
	if err != nil {
		return nil, err
	}
	params, err = search.CheckParams(s, params)
	if err != nil {
		return nil, err
	}
	q, err := s.Build(params)
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", s.ID(), err)
	}

	p := &SearchPlan{Search: s, Query: q, Params: params, Domains: domains}
	if s.Scope() != search.ScopeDomain {
		if len(domains) == 0 {
			return nil, fmt.Errorf("no active domains")
		}
		return p, nil
	}

	target := strings.TrimSpace(cfg.Domains.Domain)
	if target == "" {
		target = config.DefaultDomain
	}
	if hasGlobChars(target) {
		return nil, fmt.Errorf("--domain %q must name a single domain", target)
	}
	for _, d := range domains {
		if strings.EqualFold(d.Name, target) {
			p.Target = d.Name
			p.Domains = []config.DomainEntry{d}
			return p, nil
		}
	}
	if len(domains) == 0 {
		return nil, fmt.Errorf("domain %s is not active (no active domains)", target)
	}
	return nil, fmt.Errorf("domain %s is not active (active: %s)", target, domainNames(domains))
}

// Statement describes the plan for --dry-run.
func (p *SearchPlan) Statement() string {
	var b strings.Builder
	if c := p.Query.Canary(); c != "" {
		fmt.Fprintf(&b, "canary:    %s\n", c)
	}
	fmt.Fprintf(&b, "statement: %s\n", p.Query.Statement())
	fmt.Fprintf(&b, "class:     %s (arity %d)\n", p.Query.ClassTable(), p.Query.Arity())
	return b.String()
}
