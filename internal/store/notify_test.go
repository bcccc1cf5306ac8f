package store

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/booklore-app/booklore/internal/book"
	"github.com/booklore-app/booklore/internal/testutil"
)

// drain returns every change currently buffered on ch.
func drain(ch <-chan Change) []Change {
	var out []Change
	for {
		select {
		case c := <-ch:
			out = append(out, c)
		default:
			return out
		}
	}
}

func TestSubscribe_PublishesAfterCommit(t *testing.T) {
	s := createTestStore(t)
	ch, cancel := s.Subscribe(0)
	defer cancel()
	ctx := context.Background()

	seedContainers(t, s)
	_, err := s.PutBook(ctx, testutil.NewBook(5, "A"))
	require.NoError(t, err)
	require.NoError(t, s.PutBooks(ctx, []book.Book{testutil.NewBook(6, "B")}))
	saved, err := s.SaveMagicShelf(ctx, book.MagicShelf{Name: "Finished", FilterJSON: readShelfJSON})
	require.NoError(t, err)
	require.NoError(t, s.DeleteMagicShelf(ctx, saved.ID))

	assert.Equal(t, []Change{
		{Kind: ChangeLibrary, ID: 1},
		{Kind: ChangeLibrary, ID: 2},
		{Kind: ChangeShelf, ID: 1},
		{Kind: ChangeShelf, ID: 2},
		{Kind: ChangeBook, ID: 5},
		{Kind: ChangeBook},
		{Kind: ChangeMagicShelf, ID: saved.ID},
		{Kind: ChangeMagicShelfDeleted, ID: saved.ID},
	}, drain(ch))
}

func TestSubscribe_FailedWritesAreSilent(t *testing.T) {
	s := createTestStore(t)
	ch, cancel := s.Subscribe(0)
	defer cancel()
	ctx := context.Background()

	_, err := s.PutBook(ctx, testutil.NewBook(1, "Orphan"))
	require.Error(t, err)
	_, err = s.SaveMagicShelf(ctx, book.MagicShelf{Name: "Empty", FilterJSON: `{"type":"group","join":"and","rules":[]}`})
	require.Error(t, err)

	assert.Empty(t, drain(ch))
}

func TestSubscribe_SlowSubscriberGetsResync(t *testing.T) {
	s := createTestStore(t)
	ch, cancel := s.Subscribe(1)
	defer cancel()
	ctx := context.Background()

	seedContainers(t, s) // four writes into a buffer of one

	assert.Equal(t, []Change{
		{Kind: ChangeLibrary, ID: 1},
		{Kind: ChangeResync},
	}, drain(ch))

	// Once drained, changes are delivered one by one again.
	_, err := s.PutBook(ctx, testutil.NewBook(5, "A"))
	require.NoError(t, err)
	assert.Equal(t, []Change{{Kind: ChangeBook, ID: 5}}, drain(ch))
}

func TestSubscribe_OverflowDuringImport(t *testing.T) {
	s := createTestStore(t)
	ch, cancel := s.Subscribe(2)
	defer cancel()
	ctx := context.Background()

	shelves := make([]book.MagicShelf, 5)
	for i := range shelves {
		shelves[i] = book.MagicShelf{Name: fmt.Sprintf("Shelf %d", i), FilterJSON: readShelfJSON}
	}
	require.NoError(t, s.ImportMagicShelves(ctx, shelves))

	got := drain(ch)
	require.Len(t, got, 3)
	assert.Equal(t, ChangeMagicShelf, got[0].Kind)
	assert.Equal(t, ChangeMagicShelf, got[1].Kind)
	assert.Equal(t, Change{Kind: ChangeResync}, got[2])
}

func TestSubscribe_CancelAndClose(t *testing.T) {
	s := createTestStore(t)

	ch, cancel := s.Subscribe(0)
	cancel()
	_, open := <-ch
	assert.False(t, open, "cancel closes the channel")
	cancel() // second cancel is a no-op

	ch2, _ := s.Subscribe(0)
	require.NoError(t, s.Close())
	_, open = <-ch2
	assert.False(t, open, "Close closes every subscription")

	ch3, _ := s.Subscribe(0)
	_, open = <-ch3
	assert.False(t, open, "subscribing after Close yields a closed channel")
}
