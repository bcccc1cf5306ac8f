package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/booklore-app/booklore/internal/book"
)

func TestWatchExternal_PublishesResyncForOtherConnections(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shared.db")
	watched, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { watched.Close() })
	other, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { other.Close() })

	ch, cancel := watched.Subscribe(0)
	defer cancel()

	ctx, stop := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- watched.WatchExternal(ctx, 10*time.Millisecond) }()

	// The watcher reads its baseline asynchronously, so keep writing
	// until one of the writes lands after it.
	deadline := time.After(2 * time.Second)
	for id := int64(1); ; id++ {
		require.NoError(t, other.PutLibrary(context.Background(), book.Library{ID: id, Name: "Fiction"}))
		select {
		case c := <-ch:
			assert.Equal(t, Change{Kind: ChangeResync}, c)
		case <-time.After(50 * time.Millisecond):
			select {
			case <-deadline:
				t.Fatal("no resync after an external write")
			default:
			}
			continue
		}
		break
	}

	stop()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("WatchExternal did not return after cancel")
	}
}

func TestWatchExternal_IgnoresOwnWrites(t *testing.T) {
	s := createTestStore(t)
	ch, cancel := s.Subscribe(0)
	defer cancel()

	ctx, stop := context.WithCancel(context.Background())
	defer stop()
	go s.WatchExternal(ctx, 5*time.Millisecond)

	require.NoError(t, s.PutLibrary(context.Background(), book.Library{ID: 1, Name: "Fiction"}))
	time.Sleep(50 * time.Millisecond)

	assert.Equal(t, []Change{{Kind: ChangeLibrary, ID: 1}}, drain(ch))
}
