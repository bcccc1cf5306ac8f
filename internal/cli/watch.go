package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/booklore-app/booklore/internal/browser"
	"github.com/booklore-app/booklore/internal/facet"
	"github.com/booklore-app/booklore/internal/scope"
	"github.com/booklore-app/booklore/internal/sorting"
)

// runWatch keeps a view running over the store and prints every result it
// publishes, until interrupted or "quit" is read from standard input.
// Results computed faster than they are printed are skipped; the latest
// one is always printed.
func runWatch(opts *BrowseOptions, f *OutputFormatter, cmd *cobra.Command) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sess, err := openSession(opts.RootOptions, opts.Database, cmd)
	if err != nil {
		return err
	}
	defer sess.Close()

	st, err := sess.buildState(ctx, &opts.StateOptions, cmd)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	view := sess.view(st)
	results, unsubscribe := view.Subscribe()
	defer unsubscribe()
	changes, unfollow := sess.store.Subscribe(0)
	defer unfollow()

	go view.Follow(ctx, changes)
	go func() {
		if err := sess.store.WatchExternal(ctx, opts.Interval); err != nil {
			sess.logger.Warn("watching for external writes stopped", "error", err)
		}
	}()
	go readWatchCommands(cmd.InOrStdin(), view, f)

	runErr := make(chan error, 1)
	go func() { runErr <- view.Run(ctx) }()

	for res := range results {
		if err := printBrowseResult(f, res, opts.Limit); err != nil {
			cancel()
			<-runErr
			return err
		}
		if f.Format != "json" {
			fmt.Fprintln(f.Writer)
		}
	}

	if err := <-runErr; err != nil && !errors.Is(err, context.Canceled) {
		return WrapExitError(ExitCommandError, "watch stopped", err)
	}
	return nil
}

// readWatchCommands submits one change per input line. Malformed lines
// are reported as warnings and skipped; end of input leaves the view
// running.
func readWatchCommands(r io.Reader, view *browser.View, f *OutputFormatter) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		c, quit, err := parseWatchCommand(scanner.Text())
		switch {
		case err != nil:
			f.Warn("%v", err)
		case quit:
			view.Stop()
			return
		case c.Kind != 0:
			if !view.Submit(c) {
				return
			}
		}
	}
}

// parseWatchCommand reads one "verb argument" line. A blank line yields
// a zero Change.
func parseWatchCommand(line string) (c browser.Change, quit bool, err error) {
	verb, rest, _ := strings.Cut(strings.TrimSpace(line), " ")
	rest = strings.TrimSpace(rest)

	switch strings.ToLower(verb) {
	case "":
		return c, false, nil
	case "quit", "exit":
		return c, true, nil

	case "scope":
		sc, err := scope.Parse(rest)
		if err != nil {
			return c, false, err
		}
		return browser.SetScope(sc), false, nil

	case "search":
		return browser.SetSearch(rest), false, nil

	case "sort":
		field, dirText, _ := strings.Cut(rest, " ")
		dir := sorting.Asc
		if dirText = strings.TrimSpace(dirText); dirText != "" {
			d, ok := sorting.ParseDirection(dirText)
			if !ok {
				return c, false, fmt.Errorf("sort: unknown direction %q", dirText)
			}
			dir = d
		}
		opt, ok := sorting.Lookup(field, dir)
		if !ok {
			return c, false, fmt.Errorf("sort: unknown field %q", field)
		}
		return browser.SetSort(opt), false, nil

	case "filter":
		return browser.SetFilters(facet.ParseSelection(rest)), false, nil

	case "toggle":
		attr, id, ok := strings.Cut(rest, " ")
		id = strings.TrimSpace(id)
		if !ok || id == "" || !facet.Known(facet.Attribute(attr)) {
			return c, false, fmt.Errorf("toggle: want <attribute> <value id>, got %q", rest)
		}
		return browser.ToggleFilter(facet.Attribute(attr), id), false, nil

	case "join":
		j := facet.Join(strings.ToLower(rest))
		if j != facet.JoinAnd && j != facet.JoinOr {
			return c, false, fmt.Errorf("join: must be and or or, got %q", rest)
		}
		return browser.SetJoin(j), false, nil

	case "collapse":
		switch strings.ToLower(rest) {
		case "on", "true":
			return browser.SetCollapseSeries(true), false, nil
		case "off", "false":
			return browser.SetCollapseSeries(false), false, nil
		}
		return c, false, fmt.Errorf("collapse: must be on or off, got %q", rest)

	case "facet-sort":
		mode := facet.SortMode(rest)
		if facet.ParseSortMode(rest) != mode {
			return c, false, fmt.Errorf("facet-sort: unknown mode %q", rest)
		}
		return browser.SetFacetSort(mode), false, nil

	default:
		return c, false, fmt.Errorf("unknown command %q", verb)
	}
}
