package compiler

import (
	"github.com/booklore-app/booklore/internal/book"
	"github.com/booklore-app/booklore/internal/rule"
)

// ErrMalformedShelf is the validation code for a FilterJSON that does not
// parse as a rule tree.
const ErrMalformedShelf = "R000"

// Validate reports every problem with a shelf's rule tree.
// Returns all errors found (does not fail-fast).
func Validate(ms book.MagicShelf) []rule.ValidationError {
	root, err := rule.ParseString(ms.FilterJSON)
	if err != nil {
		return []rule.ValidationError{{
			Path:    "root",
			Message: err.Error(),
			Code:    ErrMalformedShelf,
		}}
	}
	return rule.Validate(root)
}
