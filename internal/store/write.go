package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/booklore-app/booklore/internal/book"
	"github.com/booklore-app/booklore/internal/rule"
	"github.com/booklore-app/booklore/internal/scope"
)

// PutLibrary inserts or renames a library.
func (s *Store) PutLibrary(ctx context.Context, lib book.Library) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO libraries (id, name) VALUES (?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name
	`, lib.ID, lib.Name)
	if err != nil {
		return fmt.Errorf("put library %d: %w", lib.ID, err)
	}
	s.publish(Change{Kind: ChangeLibrary, ID: lib.ID})
	return nil
}

// DeleteLibrary removes a library and, by cascade, its books.
func (s *Store) DeleteLibrary(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM libraries WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete library %d: %w", id, err)
	}
	if err := requireAffected(res, "library", id); err != nil {
		return err
	}
	s.publish(Change{Kind: ChangeLibrary, ID: id})
	return nil
}

// PutShelf inserts or renames a shelf.
func (s *Store) PutShelf(ctx context.Context, sh book.Shelf) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO shelves (id, name) VALUES (?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name
	`, sh.ID, sh.Name)
	if err != nil {
		return fmt.Errorf("put shelf %d: %w", sh.ID, err)
	}
	s.publish(Change{Kind: ChangeShelf, ID: sh.ID})
	return nil
}

// DeleteShelf removes a shelf and its memberships. Books stay.
func (s *Store) DeleteShelf(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM shelves WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete shelf %d: %w", id, err)
	}
	if err := requireAffected(res, "shelf", id); err != nil {
		return err
	}
	s.publish(Change{Kind: ChangeShelf, ID: id})
	return nil
}

// PutBook inserts or replaces a book and its shelf memberships.
// A zero ID allocates a new one. Returns the book's ID.
//
// The library and every shelf must already exist (foreign key).
func (s *Store) PutBook(ctx context.Context, b book.Book) (int64, error) {
	var id int64
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		id, err = putBook(ctx, tx, b)
		return err
	})
	if err != nil {
		return 0, err
	}
	s.publish(Change{Kind: ChangeBook, ID: id})
	return id, nil
}

// PutBooks writes many books in one transaction and publishes a single
// batch change.
func (s *Store) PutBooks(ctx context.Context, books []book.Book) error {
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		for _, b := range books {
			if _, err := putBook(ctx, tx, b); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.publish(Change{Kind: ChangeBook})
	return nil
}

func putBook(ctx context.Context, tx *sql.Tx, b book.Book) (int64, error) {
	meta, err := marshalMetadata(b.Metadata)
	if err != nil {
		return 0, fmt.Errorf("put book %d: %w", b.ID, err)
	}

	var id any
	if b.ID != 0 {
		id = b.ID
	}
	res, err := tx.ExecContext(ctx, `
		INSERT INTO books
		(id, library_id, file_type, file_size_kb, added_on, last_read_time,
		 read_status, date_finished, metadata_match_score, read_progress, metadata)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			library_id = excluded.library_id,
			file_type = excluded.file_type,
			file_size_kb = excluded.file_size_kb,
			added_on = excluded.added_on,
			last_read_time = excluded.last_read_time,
			read_status = excluded.read_status,
			date_finished = excluded.date_finished,
			metadata_match_score = excluded.metadata_match_score,
			read_progress = excluded.read_progress,
			metadata = excluded.metadata
	`,
		id,
		b.LibraryID,
		string(b.FileType),
		ptrValue(b.FileSizeKB),
		b.AddedOn.UnixMilli(),
		millis(b.LastReadTime),
		string(b.ReadStatus.Normalized()),
		millis(b.DateFinished),
		ptrValue(b.MetadataMatchScore),
		ptrValue(b.ReadProgress),
		meta,
	)
	if err != nil {
		return 0, fmt.Errorf("put book %d: %w", b.ID, err)
	}

	bookID := b.ID
	if bookID == 0 {
		if bookID, err = res.LastInsertId(); err != nil {
			return 0, fmt.Errorf("put book: last insert id: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM book_shelves WHERE book_id = ?`, bookID); err != nil {
		return 0, fmt.Errorf("put book %d: clear shelves: %w", bookID, err)
	}
	for _, shelfID := range b.Shelves {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO book_shelves (book_id, shelf_id) VALUES (?, ?)
			ON CONFLICT DO NOTHING
		`, bookID, shelfID)
		if err != nil {
			return 0, fmt.Errorf("put book %d: shelf %d: %w", bookID, shelfID, err)
		}
	}
	return bookID, nil
}

// DeleteBook removes a book and its shelf memberships.
func (s *Store) DeleteBook(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM books WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete book %d: %w", id, err)
	}
	if err := requireAffected(res, "book", id); err != nil {
		return err
	}
	s.publish(Change{Kind: ChangeBook, ID: id})
	return nil
}

// SaveMagicShelf validates and stores a magic shelf. A zero ID allocates
// a new one. Returns the shelf as stored, with FilterJSON rewritten to
// the canonical rule tree encoding.
//
// Rejected with:
//   - ErrNameRequired for a blank name
//   - rule.ErrMalformed (wrapped) when FilterJSON is not a rule tree
//   - ErrEmptyShelf when no rule has both a field and an operator
//   - ErrDuplicateName when another shelf has the same name
//
// Configuration errors inside an otherwise usable tree (unknown fields,
// illegal operators) are accepted; those rules simply never match.
func (s *Store) SaveMagicShelf(ctx context.Context, ms book.MagicShelf) (book.MagicShelf, error) {
	ms.Name = strings.TrimSpace(ms.Name)
	if ms.Name == "" {
		return book.MagicShelf{}, ErrNameRequired
	}

	root, err := rule.ParseString(ms.FilterJSON)
	if err != nil {
		return book.MagicShelf{}, fmt.Errorf("save magic shelf %q: %w", ms.Name, err)
	}
	if !rule.HasValidRule(root) {
		return book.MagicShelf{}, fmt.Errorf("save magic shelf %q: %w", ms.Name, ErrEmptyShelf)
	}
	canonical, err := json.Marshal(root)
	if err != nil {
		return book.MagicShelf{}, fmt.Errorf("save magic shelf %q: %w", ms.Name, err)
	}
	ms.FilterJSON = string(canonical)

	var id any
	if ms.ID != 0 {
		id = ms.ID
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO magic_shelves (id, name, icon, filter_json)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			icon = excluded.icon,
			filter_json = excluded.filter_json
	`, id, ms.Name, ms.Icon, ms.FilterJSON)
	if err != nil {
		if isUniqueViolation(err) {
			return book.MagicShelf{}, fmt.Errorf("save magic shelf %q: %w", ms.Name, ErrDuplicateName)
		}
		return book.MagicShelf{}, fmt.Errorf("save magic shelf %q: %w", ms.Name, err)
	}
	if ms.ID == 0 {
		if ms.ID, err = res.LastInsertId(); err != nil {
			return book.MagicShelf{}, fmt.Errorf("save magic shelf %q: last insert id: %w", ms.Name, err)
		}
	}

	s.publish(Change{Kind: ChangeMagicShelf, ID: ms.ID})
	return ms, nil
}

// DeleteMagicShelf removes a magic shelf and its sort preference.
func (s *Store) DeleteMagicShelf(ctx context.Context, id int64) error {
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM magic_shelves WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("delete magic shelf %d: %w", id, err)
		}
		if err := requireAffected(res, "magic shelf", id); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `
			DELETE FROM sort_preferences WHERE entity_type = ? AND entity_id = ?
		`, string(scope.KindMagicShelf), id)
		if err != nil {
			return fmt.Errorf("delete magic shelf %d: preferences: %w", id, err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.publish(Change{Kind: ChangeMagicShelfDeleted, ID: id})
	return nil
}

// ImportMagicShelves writes shelves verbatim in one transaction, keeping
// their IDs. Shelves with a zero ID get a new one, written back into the
// slice once the transaction commits; on failure the slice is untouched.
// Unlike SaveMagicShelf nothing is validated: records carried over from
// another installation stay as they were, and a broken rule tree surfaces
// when the shelf is browsed.
func (s *Store) ImportMagicShelves(ctx context.Context, shelves []book.MagicShelf) error {
	ids := make([]int64, len(shelves))
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		for i, ms := range shelves {
			ids[i] = ms.ID
			var id any
			if ms.ID != 0 {
				id = ms.ID
			}
			res, err := tx.ExecContext(ctx, `
				INSERT INTO magic_shelves (id, name, icon, filter_json)
				VALUES (?, ?, ?, ?)
				ON CONFLICT(id) DO UPDATE SET
					name = excluded.name,
					icon = excluded.icon,
					filter_json = excluded.filter_json
			`, id, ms.Name, ms.Icon, ms.FilterJSON)
			if err != nil {
				if isUniqueViolation(err) {
					return fmt.Errorf("import magic shelf %q: %w", ms.Name, ErrDuplicateName)
				}
				return fmt.Errorf("import magic shelf %q: %w", ms.Name, err)
			}
			if ms.ID == 0 {
				if ids[i], err = res.LastInsertId(); err != nil {
					return fmt.Errorf("import magic shelf %q: last insert id: %w", ms.Name, err)
				}
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	for i, id := range ids {
		shelves[i].ID = id
		s.publish(Change{Kind: ChangeMagicShelf, ID: id})
	}
	return nil
}
