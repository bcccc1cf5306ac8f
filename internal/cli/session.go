package cli

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/booklore-app/booklore/internal/browser"
	"github.com/booklore-app/booklore/internal/config"
	"github.com/booklore-app/booklore/internal/facet"
	"github.com/booklore-app/booklore/internal/query"
	"github.com/booklore-app/booklore/internal/scope"
	"github.com/booklore-app/booklore/internal/store"
)

// session is the configuration, logger and open store a command works with.
type session struct {
	cfg    *config.Config
	logger *slog.Logger
	store  *store.Store

	// URL level of the sort precedence, set by buildState.
	urlSort      string
	urlDirection string
}

// openSession loads the config, applies the --db override and opens the
// database. Failures are command errors (exit code 2).
func openSession(opts *RootOptions, dbPath string, cmd *cobra.Command) (*session, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load config", err)
	}
	if dbPath != "" {
		cfg.Database.Path = dbPath
	}

	logger := cfg.NewLogger(cmd.ErrOrStderr(), opts.Verbose)
	logger.Debug("opening database", "path", cfg.Database.Path)
	st, err := store.Open(cfg.Database.Path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	return &session{cfg: cfg, logger: logger, store: st}, nil
}

func (s *session) Close() error {
	return s.store.Close()
}

// pipeline builds a query pipeline whose selector reads magic shelves and
// entity names from the store.
func (s *session) pipeline() *query.Pipeline {
	selector := scope.NewSelector(s.store, scope.WithLogger(s.logger))
	return query.NewPipeline(selector, query.UUIDv7Generator{}, query.WithLogger(s.logger))
}

// view builds a browser view over the store starting from st. Entering
// another scope picks its stored sort preference.
func (s *session) view(st query.State) *browser.View {
	return browser.NewView(s.store, s.pipeline(), st,
		browser.WithLogger(s.logger),
		browser.WithSortPreferences(s.store, s.urlSort, s.urlDirection),
	)
}

// StateOptions are the flags that shape a browse state.
type StateOptions struct {
	Scope          string
	URL            string // encoded query string, e.g. "sort=title&filter=author:X"
	Search         string
	Join           string
	CollapseSeries bool
	FacetSort      string
}

func (o *StateOptions) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.Scope, "scope", "all", "all, unshelved, library:<id>, shelf:<id> or magic:<id>")
	cmd.Flags().StringVar(&o.URL, "url", "", "browser query string (sort, direction, filter)")
	cmd.Flags().StringVarP(&o.Search, "search", "s", "", "title, author, series or ISBN search")
	cmd.Flags().StringVar(&o.Join, "join", "and", "facet join mode (and|or)")
	cmd.Flags().BoolVar(&o.CollapseSeries, "collapse-series", false, "show one book per series (default: stored setting)")
	cmd.Flags().StringVar(&o.FacetSort, "facet-sort", "", "facet order (count|alphabetical|sortIndex; default: stored setting)")
}

// buildState resolves a query.State from flags, stored settings and config.
// Flags given on the command line win over stored settings, which win
// over the config file.
func (s *session) buildState(ctx context.Context, o *StateOptions, cmd *cobra.Command) (query.State, error) {
	st := query.DefaultState()

	sc, err := scope.Parse(o.Scope)
	if err != nil {
		return st, WrapExitError(ExitCommandError, "invalid --scope", err)
	}
	st = st.WithScope(sc)

	join := strings.ToLower(o.Join)
	if join != string(facet.JoinAnd) && join != string(facet.JoinOr) {
		return st, NewExitError(ExitCommandError, fmt.Sprintf("invalid --join %q: must be and or or", o.Join))
	}
	st = st.WithJoin(facet.Join(join))

	mode, err := s.facetSortMode(ctx, o, cmd)
	if err != nil {
		return st, err
	}
	st = st.WithFacetSort(mode)

	collapse := o.CollapseSeries
	if !cmd.Flags().Changed("collapse-series") {
		collapse, err = s.store.SeriesCollapsed(ctx, s.cfg.Browse.CollapseSeries)
		if err != nil {
			return st, WrapExitError(ExitCommandError, "failed to read settings", err)
		}
	}
	st = st.WithCollapseSeries(collapse)

	var u query.URLState
	if o.URL != "" {
		u, err = query.ParseRawQuery(o.URL)
		if err != nil {
			return st, WrapExitError(ExitCommandError, "invalid --url", err)
		}
	}
	// The configured default sort plays the part of the URL parameters
	// when the URL names none.
	if u.Sort == "" {
		u.Sort = s.cfg.Browse.Sort
		u.Direction = s.cfg.Browse.Direction
	}
	s.urlSort, s.urlDirection = u.Sort, u.Direction
	prefs, err := s.store.SortPreferences(ctx, sc)
	if err != nil {
		return st, WrapExitError(ExitCommandError, "failed to read sort preferences", err)
	}
	st = query.StateFromURL(u, prefs, st)

	if o.Search != "" {
		st = st.WithSearch(o.Search)
	}

	s.logger.Debug("browse state",
		"scope", st.Scope.String(),
		"sort", st.Sort.String(),
		"join", st.Join,
		"collapse_series", st.CollapseSeries,
		"facet_sort", st.FacetSort,
	)
	return st, nil
}

func (s *session) facetSortMode(ctx context.Context, o *StateOptions, cmd *cobra.Command) (facet.SortMode, error) {
	if cmd.Flags().Changed("facet-sort") {
		mode := facet.SortMode(o.FacetSort)
		if facet.ParseSortMode(o.FacetSort) != mode {
			return "", NewExitError(ExitCommandError, fmt.Sprintf("invalid --facet-sort %q", o.FacetSort))
		}
		return mode, nil
	}
	stored, ok, err := s.store.Setting(ctx, store.SettingFacetSortMode)
	if err != nil {
		return "", WrapExitError(ExitCommandError, "failed to read settings", err)
	}
	if ok {
		return facet.ParseSortMode(stored), nil
	}
	return s.cfg.FacetSortMode(), nil
}
