// Package scope selects the subset of a collection a view is browsing:
// everything, unshelved books, one library, one shelf, or one magic shelf.
package scope

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Kind is the entity type a scope targets.
type Kind string

const (
	KindAllBooks   Kind = "ALL_BOOKS"
	KindUnshelved  Kind = "UNSHELVED"
	KindLibrary    Kind = "LIBRARY"
	KindShelf      Kind = "SHELF"
	KindMagicShelf Kind = "MAGIC_SHELF"
)

// ErrInvalidScope is returned by Parse for unrecognised input.
var ErrInvalidScope = errors.New("invalid scope")

// Scope identifies a browse target. ID is only meaningful for library,
// shelf and magic shelf scopes.
type Scope struct {
	Kind Kind  `json:"kind"`
	ID   int64 `json:"id,omitempty"`
}

func All() Scope { return Scope{Kind: KindAllBooks} }

func Unshelved() Scope { return Scope{Kind: KindUnshelved} }

func Library(id int64) Scope { return Scope{Kind: KindLibrary, ID: id} }

func Shelf(id int64) Scope { return Scope{Kind: KindShelf, ID: id} }

func MagicShelf(id int64) Scope { return Scope{Kind: KindMagicShelf, ID: id} }

var prefixes = map[string]Kind{
	"library": KindLibrary,
	"shelf":   KindShelf,
	"magic":   KindMagicShelf,
}

// Parse reads the text form produced by String: "all", "unshelved",
// "library:<id>", "shelf:<id>" or "magic:<id>". Blank input is "all".
func Parse(s string) (Scope, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "", "all":
		return All(), nil
	case "unshelved":
		return Unshelved(), nil
	}

	prefix, rest, ok := strings.Cut(s, ":")
	kind, known := prefixes[prefix]
	if !ok || !known {
		return Scope{}, fmt.Errorf("%w: %q", ErrInvalidScope, s)
	}
	id, err := strconv.ParseInt(strings.TrimSpace(rest), 10, 64)
	if err != nil || id <= 0 {
		return Scope{}, fmt.Errorf("%w: %q needs a positive id", ErrInvalidScope, s)
	}
	return Scope{Kind: kind, ID: id}, nil
}

// String renders the scope in the form accepted by Parse.
func (s Scope) String() string {
	switch s.Kind {
	case KindUnshelved:
		return "unshelved"
	case KindLibrary:
		return "library:" + strconv.FormatInt(s.ID, 10)
	case KindShelf:
		return "shelf:" + strconv.FormatInt(s.ID, 10)
	case KindMagicShelf:
		return "magic:" + strconv.FormatInt(s.ID, 10)
	default:
		return "all"
	}
}

// HasEntity reports whether the scope targets a stored entity, and so may
// carry its own sort preference.
func (s Scope) HasEntity() bool {
	return s.Kind == KindLibrary || s.Kind == KindShelf || s.Kind == KindMagicShelf
}

// KindLabel returns the display name of a scope kind.
func KindLabel(k Kind) string {
	switch k {
	case KindLibrary:
		return "Library"
	case KindShelf:
		return "Shelf"
	case KindMagicShelf:
		return "Magic Shelf"
	case KindUnshelved:
		return "Unshelved Books"
	default:
		return "All Books"
	}
}
