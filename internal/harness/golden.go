package harness

import (
	"bytes"
	"fmt"
	"slices"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// Render formats a result as the text stored in golden files.
//
//	scenario: <name>
//	token: <token>
//
//	step: <name>
//	scope: <label> (<scope>)
//	sort: <field> <direction>
//	books: <count>
//	  <id> <title>
//	series: <id>=<count> ...
//	broken
//	warning: <text>
//	facet <attribute>:
//	  <value id> "<value name>" <count>
//
// series, broken, warning and facet lines appear only when relevant.
func Render(name string, result *Result) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "scenario: %s\n", name)
	fmt.Fprintf(&buf, "token: %s\n", result.Token)

	for _, step := range result.Steps {
		fmt.Fprintf(&buf, "\nstep: %s\n", step.Name)
		fmt.Fprintf(&buf, "scope: %s (%s)\n", step.Label, step.Scope)
		fmt.Fprintf(&buf, "sort: %s\n", step.Sort)
		fmt.Fprintf(&buf, "books: %d\n", len(step.Books))
		for _, b := range step.Books {
			fmt.Fprintf(&buf, "  %d %s\n", b.ID, b.Title)
		}

		if len(step.SeriesCounts) > 0 {
			ids := make([]int64, 0, len(step.SeriesCounts))
			for id := range step.SeriesCounts {
				ids = append(ids, id)
			}
			slices.Sort(ids)
			buf.WriteString("series:")
			for _, id := range ids {
				fmt.Fprintf(&buf, " %d=%d", id, step.SeriesCounts[id])
			}
			buf.WriteString("\n")
		}
		if step.Broken {
			buf.WriteString("broken\n")
		}
		for _, w := range step.Warnings {
			fmt.Fprintf(&buf, "warning: %s\n", w)
		}
		for _, f := range step.Facets {
			fmt.Fprintf(&buf, "facet %s:\n", f.Attribute)
			for _, filter := range f.Filters {
				fmt.Fprintf(&buf, "  %s %q %d\n", filter.Value.ID, filter.Value.Name, filter.BookCount)
			}
		}
	}
	return buf.Bytes()
}

// RunWithGolden executes a scenario, fails t for every unmet expectation
// and compares the rendered steps against testdata/golden/<name>.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if the scenario cannot run.
func RunWithGolden(t *testing.T, scenario *Scenario) error {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return err
	}
	for _, msg := range result.Errors {
		t.Error(msg)
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenario.Name, Render(scenario.Name, result))
	return nil
}
