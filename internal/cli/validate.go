package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/booklore-app/booklore/internal/book"
	"github.com/booklore-app/booklore/internal/compiler"
)

// ShelfIssue is one problem found in a magic shelf.
type ShelfIssue struct {
	Shelf   string `json:"shelf,omitempty"`
	Code    string `json:"code"`
	Path    string `json:"path,omitempty"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
	File    string `json:"file,omitempty"`
	Line    int    `json:"line,omitempty"`
}

func (i ShelfIssue) String() string {
	loc := i.Path
	if i.Field != "" {
		loc += " " + i.Field
	}
	if i.Line > 0 {
		loc = fmt.Sprintf("%s:%d %s", i.File, i.Line, loc)
	}
	if i.Shelf != "" {
		return fmt.Sprintf("%s: %q %s: %s", i.Code, i.Shelf, loc, i.Message)
	}
	return fmt.Sprintf("%s: %s", i.Code, i.Message)
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid   bool         `json:"valid"`
	Shelves int          `json:"shelves"`
	Errors  []ShelfIssue `json:"errors,omitempty"`
}

// ShelfValidateOptions holds flags for shelf validate.
type ShelfValidateOptions struct {
	*RootOptions
	Database string
}

// NewShelfValidateCommand creates the shelf validate command.
func NewShelfValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ShelfValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate [shelves-dir]",
		Short: "Check magic shelf rules",
		Long: `Check magic shelves for rules that can never match: unknown fields
or operators, operators the field does not accept, missing or
unparseable values and inverted ranges.

With a directory, the CUE shelves in it are compiled and checked.
Without one, the shelves stored in the database are checked, including
imported shelves whose rule tree no longer parses.

Exit codes:
  0 - All shelves valid
  1 - One or more problems found
  2 - Command error (missing directory, CUE syntax, database)`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := &OutputFormatter{
				Format:    opts.Format,
				Writer:    cmd.OutOrStdout(),
				ErrWriter: cmd.ErrOrStderr(),
				Verbose:   opts.Verbose,
			}
			if len(args) == 1 {
				return validateShelfDir(formatter, args[0])
			}
			return validateStoredShelves(opts, formatter, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (default: config)")
	return cmd
}

func validateShelfDir(formatter *OutputFormatter, dir string) error {
	loadResult, loadErrors := LoadShelves(dir, LoadModeCollectAll)
	if loadResult == nil && len(loadErrors) > 0 {
		var loadErr *LoadError
		if errors.As(loadErrors[0], &loadErr) {
			return outputValidateError(formatter, loadErr.Code, loadErr.Message, nil)
		}
		return outputValidateError(formatter, ErrCodeGeneric, loadErrors[0].Error(), nil)
	}
	formatter.VerboseLog("Found %d CUE file(s) in %s", loadResult.FileCount, dir)

	var issues []ShelfIssue
	for _, err := range loadErrors {
		issues = append(issues, issueFromLoadError(err))
	}
	issues = append(issues, checkShelves(formatter, loadResult.Shelves)...)

	if len(issues) > 0 {
		return outputValidationErrors(formatter, len(loadResult.Shelves), issues)
	}
	return outputValidateSuccess(formatter, len(loadResult.Shelves))
}

func validateStoredShelves(opts *ShelfValidateOptions, formatter *OutputFormatter, cmd *cobra.Command) error {
	sess, err := openSession(opts.RootOptions, opts.Database, cmd)
	if err != nil {
		return err
	}
	defer sess.Close()

	shelves, err := sess.store.MagicShelves(context.Background())
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read magic shelves", err)
	}

	issues := checkShelves(formatter, shelves)
	if len(issues) > 0 {
		return outputValidationErrors(formatter, len(shelves), issues)
	}
	return outputValidateSuccess(formatter, len(shelves))
}

// checkShelves runs rule validation over each shelf.
func checkShelves(formatter *OutputFormatter, shelves []book.MagicShelf) []ShelfIssue {
	var issues []ShelfIssue
	for _, ms := range shelves {
		formatter.VerboseLog("Validating shelf: %s", ms.Name)
		for _, ve := range compiler.Validate(ms) {
			issues = append(issues, ShelfIssue{
				Shelf:   ms.Name,
				Code:    ve.Code,
				Path:    ve.Path,
				Field:   ve.Field,
				Message: ve.Message,
			})
		}
	}
	return issues
}

func issueFromLoadError(err error) ShelfIssue {
	var loadErr *LoadError
	if !errors.As(err, &loadErr) {
		return ShelfIssue{Code: ErrCodeGeneric, Message: err.Error()}
	}
	issue := ShelfIssue{Shelf: loadErr.Shelf, Code: loadErr.Code, Message: loadErr.Message}
	if loadErr.Pos.IsValid() {
		issue.File = loadErr.Pos.Filename()
		issue.Line = loadErr.Pos.Line()
	}
	return issue
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter, shelves int) error {
	if formatter.Format == "json" {
		return formatter.Success(ValidationResult{Valid: true, Shelves: shelves})
	}
	fmt.Fprintf(formatter.Writer, "✓ All %d shelves valid\n", shelves)
	return nil
}

// outputValidateError outputs an error that stopped validation.
func outputValidateError(formatter *OutputFormatter, code, message string, details any) error {
	_ = formatter.Error(code, message, details)
	return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message))
}

// outputValidationErrors outputs every problem found. Problems are
// check failures (exit code 1).
func outputValidationErrors(formatter *OutputFormatter, shelves int, issues []ShelfIssue) error {
	if formatter.Format == "json" {
		if err := formatter.encode(CLIResponse{
			Status: "error",
			Data:   ValidationResult{Valid: false, Shelves: shelves, Errors: issues},
			Error:  &CLIError{Code: issues[0].Code, Message: issues[0].Message},
		}); err != nil {
			return err
		}
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(issues)))
	}

	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)
	for _, issue := range issues {
		fmt.Fprintf(formatter.Writer, "  %s\n", issue)
	}
	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(issues)))
}
