// Package search narrows a book list by a free-text term.
package search

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/booklore-app/booklore/internal/book"
)

// Filter keeps the books whose title, subtitle, series name or any author
// contains term, ignoring case. Strings are NFC-normalised first so
// composed and decomposed accents compare equal. A blank term returns
// books unchanged. Order is preserved.
func Filter(books []book.Book, term string) []book.Book {
	term = strings.TrimSpace(term)
	if term == "" {
		return books
	}

	fold := cases.Fold()
	canon := func(s string) string {
		return fold.String(norm.NFC.String(s))
	}
	needle := canon(term)

	out := make([]book.Book, 0, len(books))
	for i := range books {
		if matches(&books[i], needle, canon) {
			out = append(out, books[i])
		}
	}
	return out
}

func matches(b *book.Book, needle string, canon func(string) string) bool {
	m := &b.Metadata
	for _, s := range []string{m.Title, m.Subtitle, m.SeriesName} {
		if s != "" && strings.Contains(canon(s), needle) {
			return true
		}
	}
	for _, a := range m.Authors {
		if strings.Contains(canon(a), needle) {
			return true
		}
	}
	return false
}
