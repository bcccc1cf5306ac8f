package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/booklore-app/booklore/internal/book"
	"github.com/booklore-app/booklore/internal/query"
)

// BrowseOptions holds flags for the browse command.
type BrowseOptions struct {
	*RootOptions
	StateOptions
	Database string
	Limit    int
	Watch    bool
	Interval time.Duration // polling interval for writes by other processes
}

// BrowseOutput is the JSON payload of browse.
type BrowseOutput struct {
	Scope        string        `json:"scope"`
	Label        string        `json:"label"`
	Sort         string        `json:"sort"`
	InScope      int           `json:"in_scope"`
	Books        []BookSummary `json:"books"`
	SeriesCounts map[int64]int `json:"series_counts,omitempty"`
	Broken       bool          `json:"broken"`
	Warnings     []string      `json:"warnings,omitempty"`
}

// BookSummary is one row of browse output.
type BookSummary struct {
	ID      int64    `json:"id"`
	Title   string   `json:"title"`
	Authors []string `json:"authors,omitempty"`
	Series  string   `json:"series,omitempty"`
}

// NewBrowseCommand creates the browse command.
func NewBrowseCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &BrowseOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "browse",
		Short: "List the books of a scope",
		Long: `List the books of a scope after search, facet filters, series
collapsing and sorting, as the library browser shows them.

The sort is taken from the scope's stored preference, then the global
preference, then --url, then the configured default.

With --watch the result is printed again whenever the collection changes
(including writes by other booklore processes) or a command is read from
standard input, one per line:
  scope <scope>          search [term]        sort <field> [asc|desc]
  filter <key:v1|v2,..>  toggle <attr> <id>   join and|or
  collapse on|off        facet-sort <mode>    quit

Examples:
  booklore browse --db ./booklore.db
  booklore browse --scope magic:3 --url "sort=title&direction=asc"
  booklore browse --url "filter=author:Frank%20Herbert,category:Fantasy" --join or
  booklore browse --search dune --collapse-series --format json
  booklore browse --watch --scope shelf:2`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBrowse(opts, cmd)
		},
	}

	opts.StateOptions.register(cmd)
	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (default: config)")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "show at most this many books (0 = all)")
	cmd.Flags().BoolVar(&opts.Watch, "watch", false, "keep running and print each new result")
	cmd.Flags().DurationVar(&opts.Interval, "interval", 2*time.Second, "how often --watch checks for writes by other processes")

	return cmd
}

func runBrowse(opts *BrowseOptions, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
	if opts.Watch {
		return runWatch(opts, formatter, cmd)
	}

	res, err := browseOnce(opts.RootOptions, &opts.StateOptions, opts.Database, cmd)
	if err != nil {
		return err
	}
	return printBrowseResult(formatter, res, opts.Limit)
}

func printBrowseResult(f *OutputFormatter, res *query.Result, limit int) error {
	if f.Format != "json" {
		for _, w := range res.Warnings {
			f.Warn("%s", w)
		}
	}
	out := newBrowseOutput(res, limit)
	return f.Result(formatBrowseText(out, len(res.Books)), out, res.Token)
}

// browseOnce computes a single result through a browser view: the view is
// stopped before Run, so Run computes the initial result and returns.
func browseOnce(rootOpts *RootOptions, stateOpts *StateOptions, dbPath string, cmd *cobra.Command) (*query.Result, error) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sess, err := openSession(rootOpts, dbPath, cmd)
	if err != nil {
		return nil, err
	}
	defer sess.Close()

	st, err := sess.buildState(ctx, stateOpts, cmd)
	if err != nil {
		return nil, err
	}

	view := sess.view(st)
	view.Stop()
	if err := view.Run(ctx); err != nil {
		return nil, WrapExitError(ExitCommandError, "browse interrupted", err)
	}
	res := view.Latest()
	if res == nil {
		return nil, NewExitError(ExitCommandError, "failed to read the collection")
	}
	return res, nil
}

func newBrowseOutput(res *query.Result, limit int) BrowseOutput {
	books := res.Books
	if limit > 0 && len(books) > limit {
		books = books[:limit]
	}
	out := BrowseOutput{
		Scope:        res.Scope.String(),
		Label:        res.ScopeLabel,
		Sort:         res.Sort.String(),
		InScope:      res.ScopeCount,
		Books:        make([]BookSummary, len(books)),
		SeriesCounts: res.SeriesCounts,
		Broken:       res.Broken,
		Warnings:     res.Warnings,
	}
	for i := range books {
		out.Books[i] = summarize(&books[i])
	}
	return out
}

func summarize(b *book.Book) BookSummary {
	return BookSummary{
		ID:      b.ID,
		Title:   b.Metadata.Title,
		Authors: b.Metadata.Authors,
		Series:  b.Metadata.SeriesName,
	}
}

func formatBrowseText(out BrowseOutput, total int) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s (%d in scope, sorted by %s)\n", out.Label, out.InScope, out.Sort)
	if out.Broken {
		sb.WriteString("This magic shelf matches nothing until its rules are fixed.\n")
	}
	if total == 0 {
		sb.WriteString("No books match.\n")
		return sb.String()
	}

	for _, b := range out.Books {
		fmt.Fprintf(&sb, "%6d  %s", b.ID, b.Title)
		if len(b.Authors) > 0 {
			fmt.Fprintf(&sb, " - %s", strings.Join(b.Authors, ", "))
		}
		if n := out.SeriesCounts[b.ID]; n > 1 {
			fmt.Fprintf(&sb, " [%s, %d books]", b.Series, n)
		}
		sb.WriteString("\n")
	}
	if len(out.Books) < total {
		fmt.Fprintf(&sb, "... %d more\n", total-len(out.Books))
	}
	return sb.String()
}
