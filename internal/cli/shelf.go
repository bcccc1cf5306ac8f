package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/booklore-app/booklore/internal/book"
	"github.com/booklore-app/booklore/internal/compiler"
	"github.com/booklore-app/booklore/internal/store"
)

// NewShelfCommand groups the magic shelf commands.
func NewShelfCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "shelf",
		Short: "Manage magic shelves",
	}
	cmd.AddCommand(NewShelfValidateCommand(rootOpts))
	cmd.AddCommand(NewShelfSaveCommand(rootOpts))
	return cmd
}

// ShelfSaveOptions holds flags for shelf save.
type ShelfSaveOptions struct {
	*RootOptions
	Database string
}

// SavedShelf reports one stored shelf.
type SavedShelf struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Created bool   `json:"created"`
}

// NewShelfSaveCommand creates the shelf save command.
func NewShelfSaveCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ShelfSaveOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "save <shelves-dir>",
		Short: "Compile CUE magic shelves and store them",
		Long: `Compile the CUE magic shelves in a directory and store them.

A shelf whose name is already stored replaces it. Nothing is stored if
any shelf fails to compile. Rules that can never match are reported as
warnings; the shelf is stored anyway.

Example:
  booklore shelf save ./shelves --db ./booklore.db`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShelfSave(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (default: config)")
	return cmd
}

func runShelfSave(opts *ShelfSaveOptions, dir string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	loadResult, loadErrors := LoadShelves(dir, LoadModeCollectAll)
	if loadResult == nil && len(loadErrors) > 0 {
		return outputValidateError(formatter, ErrCodeGeneric, loadErrors[0].Error(), nil)
	}
	if len(loadErrors) > 0 {
		issues := make([]ShelfIssue, len(loadErrors))
		for i, err := range loadErrors {
			issues[i] = issueFromLoadError(err)
		}
		return outputValidationErrors(formatter, len(loadResult.Shelves), issues)
	}

	sess, err := openSession(opts.RootOptions, opts.Database, cmd)
	if err != nil {
		return err
	}
	defer sess.Close()

	saved, err := saveShelves(context.Background(), sess.store, formatter, loadResult.Shelves)
	if err != nil {
		return err
	}

	if opts.Format == "json" {
		return formatter.Success(saved)
	}
	var sb strings.Builder
	for _, s := range saved {
		verb := "updated"
		if s.Created {
			verb = "created"
		}
		fmt.Fprintf(&sb, "✓ %s magic shelf %d %q\n", verb, s.ID, s.Name)
	}
	return formatter.Result(sb.String(), saved, "")
}

// saveShelves stores compiled shelves, replacing stored shelves of the
// same name. Inert rules are reported through formatter.Warn.
func saveShelves(ctx context.Context, st *store.Store, formatter *OutputFormatter, shelves []book.MagicShelf) ([]SavedShelf, error) {
	saved := make([]SavedShelf, 0, len(shelves))
	for _, ms := range shelves {
		existing, err := st.MagicShelfByName(ctx, ms.Name)
		switch {
		case err == nil:
			ms.ID = existing.ID
		case errors.Is(err, store.ErrNotFound):
			ms.ID = 0
		default:
			return saved, WrapExitError(ExitCommandError, "failed to read magic shelves", err)
		}

		for _, ve := range compiler.Validate(ms) {
			formatter.Warn("shelf %q: %s", ms.Name, ve.Error())
		}

		stored, err := st.SaveMagicShelf(ctx, ms)
		if err != nil {
			return saved, WrapExitError(ExitCommandError, fmt.Sprintf("%s: failed to save shelf %q", ErrCodeWriteFailed, ms.Name), err)
		}
		saved = append(saved, SavedShelf{ID: stored.ID, Name: stored.Name, Created: ms.ID == 0})
	}
	return saved, nil
}
