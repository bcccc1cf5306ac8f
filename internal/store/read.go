package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/booklore-app/booklore/internal/book"
)

// Books returns a snapshot of every book ordered by id, with shelf
// memberships in ascending shelf id order.
//
// Returns an empty slice (not nil) when there are no books.
func (s *Store) Books(ctx context.Context) ([]book.Book, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, library_id, file_type, file_size_kb, added_on, last_read_time,
		       read_status, date_finished, metadata_match_score, read_progress, metadata
		FROM books
		ORDER BY id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query books: %w", err)
	}
	defer rows.Close()

	books := []book.Book{}
	index := make(map[int64]int)
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, err
		}
		index[b.ID] = len(books)
		books = append(books, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate books: %w", err)
	}
	// Release the single connection before the membership query.
	rows.Close()

	if err := s.attachShelves(ctx, books, index); err != nil {
		return nil, err
	}
	return books, nil
}

// Book retrieves a single book by ID.
// Returns ErrNotFound if it does not exist.
func (s *Store) Book(ctx context.Context, id int64) (book.Book, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, library_id, file_type, file_size_kb, added_on, last_read_time,
		       read_status, date_finished, metadata_match_score, read_progress, metadata
		FROM books
		WHERE id = ?
	`, id)
	b, err := scanBook(row)
	if errors.Is(err, sql.ErrNoRows) {
		return book.Book{}, fmt.Errorf("book %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return book.Book{}, err
	}

	shelves, err := s.db.QueryContext(ctx, `
		SELECT shelf_id FROM book_shelves WHERE book_id = ? ORDER BY shelf_id ASC
	`, id)
	if err != nil {
		return book.Book{}, fmt.Errorf("query shelves of book %d: %w", id, err)
	}
	defer shelves.Close()
	for shelves.Next() {
		var shelfID int64
		if err := shelves.Scan(&shelfID); err != nil {
			return book.Book{}, fmt.Errorf("scan shelf id: %w", err)
		}
		b.Shelves = append(b.Shelves, shelfID)
	}
	if err := shelves.Err(); err != nil {
		return book.Book{}, fmt.Errorf("iterate shelves: %w", err)
	}
	return b, nil
}

func (s *Store) attachShelves(ctx context.Context, books []book.Book, index map[int64]int) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT book_id, shelf_id FROM book_shelves ORDER BY book_id ASC, shelf_id ASC
	`)
	if err != nil {
		return fmt.Errorf("query book shelves: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var bookID, shelfID int64
		if err := rows.Scan(&bookID, &shelfID); err != nil {
			return fmt.Errorf("scan book shelf: %w", err)
		}
		if i, ok := index[bookID]; ok {
			books[i].Shelves = append(books[i].Shelves, shelfID)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate book shelves: %w", err)
	}
	return nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanBook(row scanner) (book.Book, error) {
	var (
		b           book.Book
		fileType    string
		fileSize    sql.NullInt64
		addedOn     int64
		lastRead    sql.NullInt64
		status      string
		finished    sql.NullInt64
		matchScore  sql.NullFloat64
		progress    sql.NullFloat64
		metadataRaw string
	)
	err := row.Scan(
		&b.ID,
		&b.LibraryID,
		&fileType,
		&fileSize,
		&addedOn,
		&lastRead,
		&status,
		&finished,
		&matchScore,
		&progress,
		&metadataRaw,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return book.Book{}, err
	}
	if err != nil {
		return book.Book{}, fmt.Errorf("scan book: %w", err)
	}

	meta, err := unmarshalMetadata(metadataRaw)
	if err != nil {
		return book.Book{}, fmt.Errorf("book %d: %w", b.ID, err)
	}

	b.FileType = book.FileType(fileType)
	b.FileSizeKB = nullInt(fileSize)
	b.AddedOn = *fromMillis(sql.NullInt64{Int64: addedOn, Valid: true})
	b.LastReadTime = fromMillis(lastRead)
	b.ReadStatus = book.ReadStatus(status)
	b.DateFinished = fromMillis(finished)
	b.MetadataMatchScore = nullFloat(matchScore)
	b.ReadProgress = nullFloat(progress)
	b.Metadata = meta
	return b, nil
}

// Library retrieves a library by ID.
// Returns ErrNotFound if it does not exist.
func (s *Store) Library(ctx context.Context, id int64) (book.Library, error) {
	var lib book.Library
	err := s.db.QueryRowContext(ctx, `SELECT id, name FROM libraries WHERE id = ?`, id).
		Scan(&lib.ID, &lib.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return book.Library{}, fmt.Errorf("library %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return book.Library{}, fmt.Errorf("read library %d: %w", id, err)
	}
	return lib, nil
}

// Libraries returns every library ordered by id.
func (s *Store) Libraries(ctx context.Context) ([]book.Library, error) {
	return queryNamed(ctx, s.db, `SELECT id, name FROM libraries ORDER BY id ASC`,
		func(id int64, name string) book.Library { return book.Library{ID: id, Name: name} })
}

// Shelf retrieves a shelf by ID.
// Returns ErrNotFound if it does not exist.
func (s *Store) Shelf(ctx context.Context, id int64) (book.Shelf, error) {
	var sh book.Shelf
	err := s.db.QueryRowContext(ctx, `SELECT id, name FROM shelves WHERE id = ?`, id).
		Scan(&sh.ID, &sh.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return book.Shelf{}, fmt.Errorf("shelf %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return book.Shelf{}, fmt.Errorf("read shelf %d: %w", id, err)
	}
	return sh, nil
}

// Shelves returns every shelf ordered by id.
func (s *Store) Shelves(ctx context.Context) ([]book.Shelf, error) {
	return queryNamed(ctx, s.db, `SELECT id, name FROM shelves ORDER BY id ASC`,
		func(id int64, name string) book.Shelf { return book.Shelf{ID: id, Name: name} })
}

// MagicShelf retrieves a magic shelf by ID.
// Returns ErrNotFound if it does not exist.
func (s *Store) MagicShelf(ctx context.Context, id int64) (book.MagicShelf, error) {
	var ms book.MagicShelf
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, icon, filter_json FROM magic_shelves WHERE id = ?
	`, id).Scan(&ms.ID, &ms.Name, &ms.Icon, &ms.FilterJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return book.MagicShelf{}, fmt.Errorf("magic shelf %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return book.MagicShelf{}, fmt.Errorf("read magic shelf %d: %w", id, err)
	}
	return ms, nil
}

// MagicShelfByName retrieves a magic shelf by name, ignoring case.
// Returns ErrNotFound if it does not exist.
func (s *Store) MagicShelfByName(ctx context.Context, name string) (book.MagicShelf, error) {
	var ms book.MagicShelf
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, icon, filter_json FROM magic_shelves WHERE name = ?
	`, name).Scan(&ms.ID, &ms.Name, &ms.Icon, &ms.FilterJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return book.MagicShelf{}, fmt.Errorf("magic shelf %q: %w", name, ErrNotFound)
	}
	if err != nil {
		return book.MagicShelf{}, fmt.Errorf("read magic shelf %q: %w", name, err)
	}
	return ms, nil
}

// MagicShelves returns every magic shelf ordered by id.
func (s *Store) MagicShelves(ctx context.Context) ([]book.MagicShelf, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, icon, filter_json FROM magic_shelves ORDER BY id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query magic shelves: %w", err)
	}
	defer rows.Close()

	shelves := []book.MagicShelf{}
	for rows.Next() {
		var ms book.MagicShelf
		if err := rows.Scan(&ms.ID, &ms.Name, &ms.Icon, &ms.FilterJSON); err != nil {
			return nil, fmt.Errorf("scan magic shelf: %w", err)
		}
		shelves = append(shelves, ms)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate magic shelves: %w", err)
	}
	return shelves, nil
}

// queryNamed runs an (id, name) query and maps each row with build.
func queryNamed[T any](ctx context.Context, db *sql.DB, query string, build func(int64, string) T) ([]T, error) {
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	out := []T{}
	for rows.Next() {
		var (
			id   int64
			name string
		)
		if err := rows.Scan(&id, &name); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		out = append(out, build(id, name))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate: %w", err)
	}
	return out, nil
}
