package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/booklore-app/booklore/internal/book"
	"github.com/booklore-app/booklore/internal/facet"
	"github.com/booklore-app/booklore/internal/scope"
	"github.com/booklore-app/booklore/internal/sorting"
)

// Scenario defines a browsing scenario.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Token is the fixed result token. Defaults to "test-run-default".
	Token string `yaml:"token,omitempty"`

	Libraries []book.Library `yaml:"libraries,omitempty"`
	Shelves   []book.Shelf   `yaml:"shelves,omitempty"`

	// MagicShelves are imported verbatim, so broken records are allowed.
	MagicShelves []book.MagicShelf `yaml:"magic_shelves,omitempty"`

	// ShelfFiles lists CUE files of magic shelves, compiled and saved
	// after MagicShelves. Paths are relative to the scenario file.
	ShelfFiles []string `yaml:"shelf_files,omitempty"`

	// SortPreferences are stored before the first step.
	SortPreferences []SortPreference `yaml:"sort_preferences,omitempty"`

	Books []book.Book `yaml:"books"`

	Steps []Step `yaml:"steps"`
}

// SortPreference is a stored sort choice for a scope ("global" for the
// user-wide one).
type SortPreference struct {
	Scope     string `yaml:"scope"`
	SortKey   string `yaml:"sort_key"`
	Direction string `yaml:"direction"`
}

// Step changes the browse state, runs the pipeline and checks the result.
// Unset fields leave the state as the previous step left it.
type Step struct {
	Name string `yaml:"name"`

	// URL is a browser query string (sort, direction, filter). When set,
	// the ordering is re-resolved from stored preferences and the URL,
	// and the filters are replaced.
	URL string `yaml:"url,omitempty"`

	Scope          string  `yaml:"scope,omitempty"`
	Search         *string `yaml:"search,omitempty"`
	Join           string  `yaml:"join,omitempty"`
	CollapseSeries *bool   `yaml:"collapse_series,omitempty"`
	FacetSort      string  `yaml:"facet_sort,omitempty"`

	// Facets lists the attributes rendered into the golden output.
	Facets []string `yaml:"facets,omitempty"`

	Expect *Expect `yaml:"expect,omitempty"`
}

// Expect lists checks on a step's result. Unset fields are not checked.
type Expect struct {
	// Books is the exact ordered list of book IDs.
	Books []int64 `yaml:"books,omitempty"`

	// Empty asserts that nothing matched.
	Empty bool `yaml:"empty,omitempty"`

	Label  string `yaml:"label,omitempty"`
	Sort   string `yaml:"sort,omitempty"` // e.g. "title asc"
	Broken *bool  `yaml:"broken,omitempty"`

	// Facets maps attribute -> value id -> book count. Only the listed
	// values are checked, and a count of 0 asserts the value is absent.
	Facets map[string]map[string]int `yaml:"facets,omitempty"`

	// SeriesCounts maps representative book ID -> matching volumes.
	SeriesCounts map[int64]int `yaml:"series_counts,omitempty"`

	// Warnings are substrings each expected in some warning.
	Warnings []string `yaml:"warnings,omitempty"`
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
// ShelfFiles are resolved relative to the file's directory.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict decoding catches typos like "expects:" vs "expect:".
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	base := filepath.Dir(path)
	for i, p := range scenario.ShelfFiles {
		if !filepath.IsAbs(p) {
			scenario.ShelfFiles[i] = filepath.Join(base, p)
		}
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	for _, p := range s.ShelfFiles {
		if _, err := os.Stat(p); os.IsNotExist(err) {
			return fmt.Errorf("shelf file not found: %s", p)
		}
	}

	for i, p := range s.SortPreferences {
		if p.Scope != "global" {
			if _, err := scope.Parse(p.Scope); err != nil {
				return fmt.Errorf("sort_preferences[%d]: %w", i, err)
			}
		}
		if _, ok := sorting.Lookup(p.SortKey, sorting.Asc); !ok {
			return fmt.Errorf("sort_preferences[%d]: unknown sort key %q", i, p.SortKey)
		}
	}

	for i, step := range s.Steps {
		if step.Name == "" {
			return fmt.Errorf("steps[%d]: name is required", i)
		}
		if step.Scope != "" {
			if _, err := scope.Parse(step.Scope); err != nil {
				return fmt.Errorf("steps[%d]: %w", i, err)
			}
		}
		if step.FacetSort != "" && facet.ParseSortMode(step.FacetSort) != facet.SortMode(step.FacetSort) {
			return fmt.Errorf("steps[%d]: unknown facet_sort %q", i, step.FacetSort)
		}
		if step.Expect != nil && step.Expect.Empty && len(step.Expect.Books) > 0 {
			return fmt.Errorf("steps[%d].expect: empty and books are mutually exclusive", i)
		}
	}
	return nil
}
