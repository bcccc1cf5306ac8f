package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/booklore-app/booklore/internal/facet"
)

// FacetsOptions holds flags for the facets command.
type FacetsOptions struct {
	*RootOptions
	StateOptions
	Database   string
	Attributes []string
}

// NewFacetsCommand creates the facets command.
func NewFacetsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &FacetsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "facets",
		Short: "Show filter options and book counts for a scope",
		Long: `Show the filter sidebar of a scope: every attribute value present
in the scope with the number of books carrying it.

Counts cover the whole scope; search and active filters do not change
them.

Examples:
  booklore facets --scope library:1
  booklore facets --attribute author --attribute amazonRating
  booklore facets --facet-sort alphabetical --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFacets(opts, cmd)
		},
	}

	opts.StateOptions.register(cmd)
	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (default: config)")
	cmd.Flags().StringArrayVar(&opts.Attributes, "attribute", nil, "only show these attributes (repeatable)")

	return cmd
}

func runFacets(opts *FacetsOptions, cmd *cobra.Command) error {
	for _, a := range opts.Attributes {
		if !facet.Known(facet.Attribute(a)) {
			return NewExitError(ExitCommandError, fmt.Sprintf("unknown attribute %q", a))
		}
	}

	res, err := browseOnce(opts.RootOptions, &opts.StateOptions, opts.Database, cmd)
	if err != nil {
		return err
	}

	facets := res.Facets
	if len(opts.Attributes) > 0 {
		facets = make([]facet.Facet, 0, len(opts.Attributes))
		for _, a := range opts.Attributes {
			if f, ok := lookupFacet(res.Facets, facet.Attribute(a)); ok {
				facets = append(facets, f)
			}
		}
	}

	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
	if opts.Format != "json" {
		for _, w := range res.Warnings {
			formatter.Warn("%s", w)
		}
	}
	return formatter.Result(formatFacetsText(res.ScopeLabel, facets), facets, res.Token)
}

func lookupFacet(facets []facet.Facet, attr facet.Attribute) (facet.Facet, bool) {
	for _, f := range facets {
		if f.Attribute == attr {
			return f, true
		}
	}
	return facet.Facet{}, false
}

func formatFacetsText(label string, facets []facet.Facet) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s\n", label)
	if len(facets) == 0 {
		sb.WriteString("No filter options.\n")
		return sb.String()
	}
	for _, f := range facets {
		fmt.Fprintf(&sb, "\n%s\n", f.Label)
		for _, filter := range f.Filters {
			fmt.Fprintf(&sb, "  %-32s %d\n", filter.Value.Name, filter.BookCount)
		}
	}
	return sb.String()
}
