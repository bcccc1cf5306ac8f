package harness

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/booklore-app/booklore/internal/book"
	"github.com/booklore-app/booklore/internal/facet"
	"github.com/booklore-app/booklore/internal/query"
	"github.com/booklore-app/booklore/internal/sorting"
	"github.com/booklore-app/booklore/internal/testutil"
)

func TestScenarios(t *testing.T) {
	files, err := filepath.Glob("testdata/scenarios/*.yaml")
	require.NoError(t, err)
	require.NotEmpty(t, files)

	for _, file := range files {
		t.Run(filepath.Base(file), func(t *testing.T) {
			scenario, err := LoadScenario(file)
			require.NoError(t, err)
			require.NoError(t, RunWithGolden(t, scenario))
		})
	}
}

func TestRunReportsFailedExpectations(t *testing.T) {
	scenario := &Scenario{
		Name:        "mismatch",
		Description: "expects the wrong order",
		Token:       "tok",
		Books: []book.Book{
			{ID: 1, LibraryID: 1, Metadata: book.Metadata{Title: "A"}},
			{ID: 2, LibraryID: 1, Metadata: book.Metadata{Title: "B"}},
		},
		Steps: []Step{{
			Name:   "by title",
			URL:    "?sort=title&direction=asc",
			Expect: &Expect{Books: []int64{2, 1}, Label: "Library 1"},
		}},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	assert.Equal(t, "tok", result.Token)
	assert.Equal(t, []string{
		`step "by title": books: expected [2 1], got [1 2]`,
		`step "by title": label: expected "Library 1", got "All Books"`,
	}, result.Errors)
}

func TestRunSeedsGenericNames(t *testing.T) {
	scenario := &Scenario{
		Name:        "generic",
		Description: "undeclared library and shelf",
		Books: []book.Book{
			{ID: 1, LibraryID: 7, Shelves: []int64{3}, Metadata: book.Metadata{Title: "A"}},
		},
		Steps: []Step{
			{Name: "library", Scope: "library:7", Expect: &Expect{Label: "Library 7", Books: []int64{1}}},
			{Name: "shelf", Scope: "shelf:3", Expect: &Expect{Label: "Shelf 3", Books: []int64{1}}},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Equal(t, DefaultToken, result.Token)
	require.Len(t, result.Steps, 2)
	assert.Equal(t, "library:7", result.Steps[0].Scope)
}

func TestRunStampsAddedOnInListingOrder(t *testing.T) {
	scenario := &Scenario{
		Name:        "listing order",
		Description: "later entries are newer",
		Books: []book.Book{
			{ID: 2, LibraryID: 1, Metadata: book.Metadata{Title: "Listed first"}},
			{ID: 1, LibraryID: 1, Metadata: book.Metadata{Title: "Listed second"}},
			{ID: 3, LibraryID: 1, AddedOn: testutil.Epoch.Add(time.Hour), Metadata: book.Metadata{Title: "Explicit"}},
		},
		Steps: []Step{{
			Name:   "default sort",
			Expect: &Expect{Books: []int64{3, 1, 2}, Sort: "addedOn desc"},
		}},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestRunMissingShelfFile(t *testing.T) {
	scenario := &Scenario{
		Name:        "missing",
		Description: "shelf file vanished",
		ShelfFiles:  []string{filepath.Join(t.TempDir(), "gone.cue")},
		Steps:       []Step{{Name: "noop"}},
	}

	_, err := Run(scenario)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read shelf file")
}

func TestLoadScenarioRejectsUnknownFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "typo.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
name: typo
description: misspelled expect
steps:
  - name: one
    expects:
      books: [1]
`), 0o644))

	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestLoadScenarioResolvesShelfFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "s.cue"), []byte(`shelf: X: rules: [{field: "title", operator: "contains", value: "x"}]`), 0o644))
	path := filepath.Join(dir, "s.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
name: resolve
description: relative shelf file
shelf_files: [s.cue]
steps:
  - name: one
`), 0o644))

	s, err := LoadScenario(path)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "s.cue")}, s.ShelfFiles)
}

func TestValidateScenario(t *testing.T) {
	valid := func() *Scenario {
		return &Scenario{Name: "n", Description: "d", Steps: []Step{{Name: "s"}}}
	}

	tests := []struct {
		name    string
		mutate  func(*Scenario)
		wantErr string
	}{
		{"valid", func(*Scenario) {}, ""},
		{"missing name", func(s *Scenario) { s.Name = "" }, "name is required"},
		{"missing description", func(s *Scenario) { s.Description = "" }, "description is required"},
		{"no steps", func(s *Scenario) { s.Steps = nil }, "steps list is required"},
		{"unnamed step", func(s *Scenario) { s.Steps[0].Name = "" }, "steps[0]: name is required"},
		{"bad scope", func(s *Scenario) { s.Steps[0].Scope = "planet:3" }, "steps[0]"},
		{"bad facet sort", func(s *Scenario) { s.Steps[0].FacetSort = "random" }, `unknown facet_sort "random"`},
		{"empty and books", func(s *Scenario) {
			s.Steps[0].Expect = &Expect{Empty: true, Books: []int64{1}}
		}, "mutually exclusive"},
		{"bad sort key", func(s *Scenario) {
			s.SortPreferences = []SortPreference{{Scope: "global", SortKey: "mood", Direction: "asc"}}
		}, `unknown sort key "mood"`},
		{"bad preference scope", func(s *Scenario) {
			s.SortPreferences = []SortPreference{{Scope: "nowhere", SortKey: "title"}}
		}, "sort_preferences[0]"},
		{"missing shelf file", func(s *Scenario) { s.ShelfFiles = []string{"/no/such/file.cue"} }, "shelf file not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := valid()
			tt.mutate(s)
			err := validateScenario(s)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestCheckExpect(t *testing.T) {
	broken := true
	title, _ := sorting.Lookup("title", sorting.Asc)
	res := &query.Result{
		Books:      []book.Book{{ID: 1}, {ID: 2}},
		Sort:       title,
		ScopeLabel: "All Books",
		Facets: []facet.Facet{{
			Attribute: facet.AttrAuthor,
			Filters:   []facet.Filter{{Value: facet.Value{ID: "Ann", Name: "Ann"}, BookCount: 2}},
		}},
		SeriesCounts: map[int64]int{1: 2},
		Warnings:     []string{`magic shelf "X" has no valid rules`},
	}

	t.Run("all hold", func(t *testing.T) {
		errs := checkExpect(&Expect{
			Books:        []int64{1, 2},
			Label:        "All Books",
			Sort:         "title asc",
			Facets:       map[string]map[string]int{"author": {"Ann": 2, "Bob": 0}},
			SeriesCounts: map[int64]int{1: 2},
			Warnings:     []string{"no valid rules"},
		}, res)
		assert.Empty(t, errs)
	})

	t.Run("each mismatch reported", func(t *testing.T) {
		errs := checkExpect(&Expect{
			Books:        []int64{2},
			Empty:        true,
			Sort:         "title desc",
			Broken:       &broken,
			Facets:       map[string]map[string]int{"author": {"Ann": 1}},
			SeriesCounts: map[int64]int{2: 1},
			Warnings:     []string{"unavailable"},
		}, res)
		assert.Equal(t, []string{
			"books: expected [2], got [1 2]",
			"books: expected no matches, got [1 2]",
			`sort: expected "title desc", got "title asc"`,
			"broken: expected true, got false",
			`facet author value "Ann": expected 1 books, got 2`,
			"series count of book 2: expected 1, got 0",
			`warnings: expected one containing "unavailable", got ["magic shelf \"X\" has no valid rules"]`,
		}, errs)
	})
}

func TestRender(t *testing.T) {
	result := NewResult("tok")
	result.Steps = append(result.Steps, StepResult{
		Name:         "first",
		Scope:        "magic:4",
		Label:        "Shelf",
		Sort:         "title asc",
		Books:        []BookLine{{ID: 4, Title: "Dune"}},
		SeriesCounts: map[int64]int{9: 2, 4: 3},
		Broken:       true,
		Warnings:     []string{"careful"},
		Facets: []facet.Facet{{
			Attribute: facet.AttrSeries,
			Filters:   []facet.Filter{{Value: facet.Value{ID: "Dune", Name: "Dune"}, BookCount: 3}},
		}},
	})

	want := "scenario: demo\n" +
		"token: tok\n" +
		"\n" +
		"step: first\n" +
		"scope: Shelf (magic:4)\n" +
		"sort: title asc\n" +
		"books: 1\n" +
		"  4 Dune\n" +
		"series: 4=3 9=2\n" +
		"broken\n" +
		"warning: careful\n" +
		"facet series:\n" +
		"  Dune \"Dune\" 3\n"
	assert.Equal(t, want, string(Render("demo", result)))
}

func TestResultAddError(t *testing.T) {
	r := NewResult("t")
	assert.True(t, r.Pass)
	r.AddError("boom")
	assert.False(t, r.Pass)
	assert.Equal(t, []string{"boom"}, r.Errors)
}
