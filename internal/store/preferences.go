package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/booklore-app/booklore/internal/facet"
	"github.com/booklore-app/booklore/internal/scope"
	"github.com/booklore-app/booklore/internal/sorting"
)

// globalEntity is the sort_preferences entity_type of the global row.
const globalEntity = "GLOBAL"

// Setting keys.
const (
	SettingFacetSortMode   = "facet_sort_mode"
	SettingSeriesCollapsed = "series_collapsed"
)

// SetGlobalSortPreference stores the sort used when the browsed entity
// has no preference of its own.
func (s *Store) SetGlobalSortPreference(ctx context.Context, p sorting.Preference) error {
	return s.putSortPreference(ctx, globalEntity, 0, p)
}

// SetSortPreference stores the sort for the entity sc targets. Scopes
// without an entity (all books, unshelved) use the global preference.
func (s *Store) SetSortPreference(ctx context.Context, sc scope.Scope, p sorting.Preference) error {
	if !sc.HasEntity() {
		return s.SetGlobalSortPreference(ctx, p)
	}
	return s.putSortPreference(ctx, string(sc.Kind), sc.ID, p)
}

func (s *Store) putSortPreference(ctx context.Context, entityType string, entityID int64, p sorting.Preference) error {
	dir, ok := sorting.ParseDirection(string(p.Direction))
	if !ok {
		dir = sorting.Asc
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sort_preferences (entity_type, entity_id, sort_key, direction)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(entity_type, entity_id) DO UPDATE SET
			sort_key = excluded.sort_key,
			direction = excluded.direction
	`, entityType, entityID, p.SortKey, string(dir))
	if err != nil {
		return fmt.Errorf("put sort preference %s/%d: %w", entityType, entityID, err)
	}
	s.publish(Change{Kind: ChangePreferences, ID: entityID})
	return nil
}

// SortPreferences returns the stored preferences that apply when
// browsing sc: the entity's own (if sc has an entity) and the global one.
// Missing rows are nil.
func (s *Store) SortPreferences(ctx context.Context, sc scope.Scope) (sorting.Preferences, error) {
	var prefs sorting.Preferences

	global, err := s.sortPreference(ctx, globalEntity, 0)
	if err != nil {
		return sorting.Preferences{}, err
	}
	prefs.Global = global

	if sc.HasEntity() {
		entity, err := s.sortPreference(ctx, string(sc.Kind), sc.ID)
		if err != nil {
			return sorting.Preferences{}, err
		}
		prefs.Entity = entity
	}
	return prefs, nil
}

func (s *Store) sortPreference(ctx context.Context, entityType string, entityID int64) (*sorting.Preference, error) {
	var (
		key string
		dir string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT sort_key, direction FROM sort_preferences
		WHERE entity_type = ? AND entity_id = ?
	`, entityType, entityID).Scan(&key, &dir)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read sort preference %s/%d: %w", entityType, entityID, err)
	}
	return &sorting.Preference{SortKey: key, Direction: sorting.Direction(dir)}, nil
}

// Setting returns a stored setting and whether it exists.
func (s *Store) Setting(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read setting %q: %w", key, err)
	}
	return value, true, nil
}

// SetSetting stores a setting, replacing any previous value.
func (s *Store) SetSetting(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("write setting %q: %w", key, err)
	}
	s.publish(Change{Kind: ChangePreferences})
	return nil
}

// FacetSortMode returns the stored facet ordering, or
// facet.DefaultSortMode when none is stored.
func (s *Store) FacetSortMode(ctx context.Context) (facet.SortMode, error) {
	v, _, err := s.Setting(ctx, SettingFacetSortMode)
	if err != nil {
		return "", err
	}
	return facet.ParseSortMode(v), nil
}

// SetFacetSortMode stores the facet ordering.
func (s *Store) SetFacetSortMode(ctx context.Context, m facet.SortMode) error {
	return s.SetSetting(ctx, SettingFacetSortMode, string(facet.ParseSortMode(string(m))))
}

// SeriesCollapsed returns the stored series preference. def is returned
// when none is stored.
func (s *Store) SeriesCollapsed(ctx context.Context, def bool) (bool, error) {
	v, ok, err := s.Setting(ctx, SettingSeriesCollapsed)
	if err != nil || !ok {
		return def, err
	}
	on, err := strconv.ParseBool(v)
	if err != nil {
		return def, nil
	}
	return on, nil
}

// SetSeriesCollapsed stores the series preference.
func (s *Store) SetSeriesCollapsed(ctx context.Context, on bool) error {
	return s.SetSetting(ctx, SettingSeriesCollapsed, strconv.FormatBool(on))
}
