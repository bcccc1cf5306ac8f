package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/booklore-app/booklore/internal/book"
	"github.com/booklore-app/booklore/internal/facet"
	"github.com/booklore-app/booklore/internal/scope"
	"github.com/booklore-app/booklore/internal/sorting"
	"github.com/booklore-app/booklore/internal/store"
)

// ImportOptions holds flags for the import command.
type ImportOptions struct {
	*RootOptions
	Database string
}

// ImportSummary counts what an import wrote.
type ImportSummary struct {
	Libraries       int `json:"libraries"`
	Shelves         int `json:"shelves"`
	Books           int `json:"books"`
	MagicShelves    int `json:"magic_shelves"` // stored verbatim from books.yaml
	CompiledShelves int `json:"compiled_shelves"`
	SortPreferences int `json:"sort_preferences"`
}

func (s ImportSummary) String() string {
	return fmt.Sprintf("✓ Imported %d libraries, %d shelves, %d books, %d magic shelves (%d from CUE), %d sort preferences",
		s.Libraries, s.Shelves, s.Books, s.MagicShelves+s.CompiledShelves, s.CompiledShelves, s.SortPreferences)
}

// NewImportCommand creates the import command.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ImportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "import <catalog-dir>",
		Short: "Load a catalog into the database",
		Long: `Load a catalog directory into the database.

The directory may hold a books.yaml file (libraries, shelves, books,
magic shelves, sort preferences and settings) and CUE files declaring
magic shelves. Records with an existing id are replaced.

Magic shelves listed in books.yaml are stored exactly as given, even
when their rule tree does not parse; CUE shelves are compiled first and
nothing is written if any of them fails.

Example:
  booklore import ./catalog --db ./booklore.db`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (default: config)")
	return cmd
}

func runImport(opts *ImportOptions, dir string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return outputValidateError(formatter, ErrCodeNotFound, fmt.Sprintf("catalog directory not found: %s", dir), nil)
	}

	catalog := &Catalog{}
	catalogPath := filepath.Join(dir, CatalogFile)
	if _, err := os.Stat(catalogPath); err == nil {
		c, err := LoadCatalog(catalogPath)
		if err != nil {
			var loadErr *LoadError
			if errors.As(err, &loadErr) {
				return outputValidateError(formatter, loadErr.Code, loadErr.Message, nil)
			}
			return outputValidateError(formatter, ErrCodeGeneric, err.Error(), nil)
		}
		catalog = c
		formatter.VerboseLog("Read %s: %d books", catalogPath, len(catalog.Books))
	}
	if err := checkCatalog(catalog); err != nil {
		return outputValidateError(formatter, ErrCodeParseFailed, err.Error(), nil)
	}

	var compiled []book.MagicShelf
	cueFiles, err := FindCUEFiles(dir)
	if err != nil {
		return outputValidateError(formatter, ErrCodeScanError, err.Error(), nil)
	}
	if len(cueFiles) > 0 {
		loadResult, loadErrors := LoadShelves(dir, LoadModeCollectAll)
		if loadResult == nil {
			return outputValidateError(formatter, ErrCodeGeneric, loadErrors[0].Error(), nil)
		}
		if len(loadErrors) > 0 {
			issues := make([]ShelfIssue, len(loadErrors))
			for i, err := range loadErrors {
				issues[i] = issueFromLoadError(err)
			}
			return outputValidationErrors(formatter, len(loadResult.Shelves), issues)
		}
		compiled = loadResult.Shelves
	}

	if catalogEmpty(catalog) && len(compiled) == 0 {
		return outputValidateError(formatter, ErrCodeNoFiles, fmt.Sprintf("nothing to import in %s: expected %s or CUE shelves", dir, CatalogFile), nil)
	}

	sess, err := openSession(opts.RootOptions, opts.Database, cmd)
	if err != nil {
		return err
	}
	defer sess.Close()

	ctx := context.Background()
	summary, err := writeCatalog(ctx, sess.store, catalog)
	if err != nil {
		return WrapExitError(ExitCommandError, ErrCodeWriteFailed+": import failed", err)
	}
	saved, err := saveShelves(ctx, sess.store, formatter, compiled)
	if err != nil {
		return err
	}
	summary.CompiledShelves = len(saved)

	sess.logger.Info("catalog imported",
		"dir", dir,
		"books", summary.Books,
		"magic_shelves", summary.MagicShelves+summary.CompiledShelves,
	)
	return formatter.Success(summary)
}

// checkCatalog rejects references the store cannot resolve.
func checkCatalog(c *Catalog) error {
	for i, p := range c.SortPreferences {
		if !strings.EqualFold(p.Scope, "global") {
			if _, err := scope.Parse(p.Scope); err != nil {
				return fmt.Errorf("sort_preferences[%d]: %w", i, err)
			}
		}
		if _, ok := sorting.Lookup(p.SortKey, sorting.Asc); !ok {
			return fmt.Errorf("sort_preferences[%d]: unknown sort key %q", i, p.SortKey)
		}
		if _, ok := sorting.ParseDirection(p.Direction); !ok {
			return fmt.Errorf("sort_preferences[%d]: unknown direction %q", i, p.Direction)
		}
	}
	if m := c.Settings.FacetSort; m != "" && facet.ParseSortMode(m) != facet.SortMode(m) {
		return fmt.Errorf("settings.facet_sort: unknown mode %q", m)
	}
	return nil
}

func catalogEmpty(c *Catalog) bool {
	return len(c.Libraries) == 0 && len(c.Shelves) == 0 && len(c.Books) == 0 &&
		len(c.MagicShelves) == 0 && len(c.SortPreferences) == 0 &&
		c.Settings.FacetSort == "" && c.Settings.CollapseSeries == nil
}

// writeCatalog stores c. Containers go first so books can reference them.
func writeCatalog(ctx context.Context, st *store.Store, c *Catalog) (ImportSummary, error) {
	var summary ImportSummary

	for _, lib := range c.Libraries {
		if err := st.PutLibrary(ctx, lib); err != nil {
			return summary, err
		}
		summary.Libraries++
	}
	for _, sh := range c.Shelves {
		if err := st.PutShelf(ctx, sh); err != nil {
			return summary, err
		}
		summary.Shelves++
	}
	if len(c.Books) > 0 {
		if err := st.PutBooks(ctx, c.Books); err != nil {
			return summary, err
		}
		summary.Books = len(c.Books)
	}
	if len(c.MagicShelves) > 0 {
		if err := st.ImportMagicShelves(ctx, c.MagicShelves); err != nil {
			return summary, err
		}
		summary.MagicShelves = len(c.MagicShelves)
	}

	for _, p := range c.SortPreferences {
		dir, _ := sorting.ParseDirection(p.Direction)
		pref := sorting.Preference{SortKey: p.SortKey, Direction: dir}
		if strings.EqualFold(p.Scope, "global") {
			if err := st.SetGlobalSortPreference(ctx, pref); err != nil {
				return summary, err
			}
		} else {
			sc, _ := scope.Parse(p.Scope)
			if err := st.SetSortPreference(ctx, sc, pref); err != nil {
				return summary, err
			}
		}
		summary.SortPreferences++
	}

	if c.Settings.FacetSort != "" {
		if err := st.SetFacetSortMode(ctx, facet.SortMode(c.Settings.FacetSort)); err != nil {
			return summary, err
		}
	}
	if c.Settings.CollapseSeries != nil {
		if err := st.SetSeriesCollapsed(ctx, *c.Settings.CollapseSeries); err != nil {
			return summary, err
		}
	}
	return summary, nil
}
