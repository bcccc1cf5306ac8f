package store

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/booklore-app/booklore/internal/book"
)

// marshalMetadata converts book metadata to JSON TEXT for storage.
// HTML escaping is disabled so titles like "Q&A" are stored verbatim.
func marshalMetadata(m book.Metadata) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(m); err != nil {
		return "", fmt.Errorf("marshal metadata: %w", err)
	}
	// Encoder adds a trailing newline, remove it
	return strings.TrimSpace(buf.String()), nil
}

// unmarshalMetadata parses JSON TEXT to book metadata.
func unmarshalMetadata(data string) (book.Metadata, error) {
	var m book.Metadata
	if data == "" || data == "{}" {
		return m, nil
	}
	if err := json.Unmarshal([]byte(data), &m); err != nil {
		return book.Metadata{}, fmt.Errorf("unmarshal metadata: %w", err)
	}
	return m, nil
}

// millis converts an optional time to a nullable unix-millisecond column.
func millis(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UnixMilli()
}

// fromMillis converts a nullable unix-millisecond column to a UTC time.
func fromMillis(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}
	t := time.UnixMilli(v.Int64).UTC()
	return &t
}

func nullInt(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	n := v.Int64
	return &n
}

func nullFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func ptrValue[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}
