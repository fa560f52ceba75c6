package catalog

import (
	"strconv"

	"fedsearch/internal/federation"
	"fedsearch/internal/repository"
	"fedsearch/internal/search"
)

// LightweightCsosSearch lists id and name of the CSOs of one SWMM project
// without loading the full objects.
type LightweightCsosSearch struct{}

func (s *LightweightCsosSearch) ID() string          { return "lightweight-csos" }
func (s *LightweightCsosSearch) Title() string       { return "Lightweight CSOs" }
func (s *LightweightCsosSearch) Scope() search.Scope { return search.ScopeDomain }

func (s *LightweightCsosSearch) Description() string {
	return "Lists id and name of the combined sewer overflows of a SWMM project in the selected domain."
}

func (s *LightweightCsosSearch) Options() []search.Option {
	return []search.Option{
		{Name: "swmm-project", Description: "SWMM project id", Required: true},
	}
}

func (s *LightweightCsosSearch) Build(params map[string]string) (federation.Query, error) {
	p, err := search.CheckParams(s, params)
	if err != nil {
		return nil, err
	}
	project, err := search.Int(p, "swmm-project")
	if err != nil {
		return nil, err
	}
	stmt := "SELECT id, name FROM linz_cso WHERE swmm_project = " + strconv.Itoa(project)
	return newProjection(s.ID(), canaryCso, stmt, "linz_cso", "name"), nil
}

// LightweightSwmmProjectsSearch lists the SWMM projects of one domain.
type LightweightSwmmProjectsSearch struct{}

func (s *LightweightSwmmProjectsSearch) ID() string          { return "lightweight-swmm-projects" }
func (s *LightweightSwmmProjectsSearch) Title() string       { return "Lightweight SWMM Projects" }
func (s *LightweightSwmmProjectsSearch) Scope() search.Scope { return search.ScopeDomain }

func (s *LightweightSwmmProjectsSearch) Description() string {
	return "Lists id, title, description and input file of every SWMM project in the selected domain."
}

func (s *LightweightSwmmProjectsSearch) Options() []search.Option { return nil }

func (s *LightweightCsosSearch) View(objs []repository.Object) any { return LightweightCsos(objs) }

func (s *LightweightSwmmProjectsSearch) Build(params map[string]string) (federation.Query, error) {
	if _, err := search.CheckParams(s, params); err != nil {
		return nil, err
	}
	stmt := "SELECT id, title, description, inp_file_name FROM swmm_project"
	return newProjection(s.ID(), "", stmt, "swmm_project", "title", "description", "inp_file_name"), nil
}

func (s *LightweightSwmmProjectsSearch) View(objs []repository.Object) any {
	return LightweightSwmmProjects(objs)
}

type LightweightCso struct {
	ID     int               `json:"id"`
	Name   string            `json:"name"`
	Domain repository.Domain `json:"domain"`
}

type LightweightSwmmProject struct {
	ID          int               `json:"id"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	InpFileName string            `json:"inp_file_name"`
	Domain      repository.Domain `json:"domain"`
}

// LightweightCsos converts the objects of a lightweight-csos search.
func LightweightCsos(objs []repository.Object) []LightweightCso {
	out := make([]LightweightCso, 0, len(objs))
	for _, o := range objs {
		out = append(out, LightweightCso{
			ID:     o.ID,
			Name:   federation.StringValue(o.Fields["name"]),
			Domain: o.Domain,
		})
	}
	return out
}

// LightweightSwmmProjects converts the objects of a
// lightweight-swmm-projects search.
func LightweightSwmmProjects(objs []repository.Object) []LightweightSwmmProject {
	out := make([]LightweightSwmmProject, 0, len(objs))
	for _, o := range objs {
		out = append(out, LightweightSwmmProject{
			ID:          o.ID,
			Title:       federation.StringValue(o.Fields["title"]),
			Description: federation.StringValue(o.Fields["description"]),
			InpFileName: federation.StringValue(o.Fields["inp_file_name"]),
			Domain:      o.Domain,
		})
	}
	return out
}

func init() {
	search.Register(&LightweightCsosSearch{})
	search.Register(&LightweightSwmmProjectsSearch{})
}
