package harness

import (
	"github.com/booklore-app/booklore/internal/facet"
	"github.com/booklore-app/booklore/internal/query"
)

// DefaultToken is the result token used when a scenario sets none.
const DefaultToken = "test-run-default"

// BookLine is a book as shown in step output.
type BookLine struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
}

// StepResult is the observable outcome of one step.
type StepResult struct {
	Name         string        `json:"name"`
	Scope        string        `json:"scope"`
	Label        string        `json:"label"`
	Sort         string        `json:"sort"`
	Books        []BookLine    `json:"books"`
	Facets       []facet.Facet `json:"facets,omitempty"` // only those the step asked for
	SeriesCounts map[int64]int `json:"series_counts,omitempty"`
	Warnings     []string      `json:"warnings,omitempty"`
	Broken       bool          `json:"broken"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every expectation held.
	Pass bool `json:"pass"`

	Token  string       `json:"token"`
	Steps  []StepResult `json:"steps"`
	Errors []string     `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult(token string) *Result {
	return &Result{
		Pass:   true,
		Token:  token,
		Steps:  []StepResult{},
		Errors: []string{},
	}
}

// AddError adds a failed expectation and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

func newStepResult(step Step, res *query.Result) StepResult {
	sr := StepResult{
		Name:         step.Name,
		Scope:        res.Scope.String(),
		Label:        res.ScopeLabel,
		Sort:         res.Sort.String(),
		Books:        make([]BookLine, len(res.Books)),
		SeriesCounts: res.SeriesCounts,
		Warnings:     res.Warnings,
		Broken:       res.Broken,
	}
	for i, b := range res.Books {
		sr.Books[i] = BookLine{ID: b.ID, Title: b.Metadata.Title}
	}
	for _, name := range step.Facets {
		attr := facet.Attribute(name)
		f, ok := findFacet(res.Facets, attr)
		if !ok {
			f = facet.Facet{Attribute: attr, Label: facet.Label(attr)}
		}
		sr.Facets = append(sr.Facets, f)
	}
	return sr
}

func findFacet(facets []facet.Facet, attr facet.Attribute) (facet.Facet, bool) {
	for _, f := range facets {
		if f.Attribute == attr {
			return f, true
		}
	}
	return facet.Facet{}, false
}
