package store

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// defaultWatchInterval is the polling interval when WatchExternal is
// given a non-positive one.
const defaultWatchInterval = 2 * time.Second

// WatchExternal polls for commits made by other connections to the same
// database file, such as a second booklore process, and publishes a
// ChangeResync to subscribers for each one it sees. Writes made through
// this Store are already published and do not trigger it.
//
// WatchExternal blocks until ctx is done and then returns nil.
func (s *Store) WatchExternal(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = defaultWatchInterval
	}

	last, err := s.dataVersion(ctx)
	if err != nil {
		return err
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			v, err := s.dataVersion(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return err
			}
			if v != last {
				slog.Debug("external write detected", "data_version", v)
				last = v
				s.publish(Change{Kind: ChangeResync})
			}
		}
	}
}

// dataVersion reads PRAGMA data_version. The store holds a single
// connection, so the value only moves when another connection commits.
func (s *Store) dataVersion(ctx context.Context) (int64, error) {
	var v int64
	if err := s.db.QueryRowContext(ctx, "PRAGMA data_version").Scan(&v); err != nil {
		return 0, fmt.Errorf("read data_version: %w", err)
	}
	return v, nil
}
