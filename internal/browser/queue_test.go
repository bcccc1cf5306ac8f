package browser

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChangeQueue_DrainAllPreservesOrder(t *testing.T) {
	q := newChangeQueue()
	require.True(t, q.Enqueue(SetSearch("a")))
	require.True(t, q.Enqueue(SetSearch("b")))
	require.True(t, q.Enqueue(SetSearch("c")))
	assert.Equal(t, 3, q.Len())

	got := q.DrainAll()
	require.Len(t, got, 3)
	assert.Equal(t, "a", got[0].Term)
	assert.Equal(t, "c", got[2].Term)
	assert.Equal(t, 0, q.Len())
	assert.Nil(t, q.DrainAll())
}

func TestChangeQueue_SignalCoalesces(t *testing.T) {
	q := newChangeQueue()
	q.Enqueue(SetSearch("a"))
	q.Enqueue(SetSearch("b"))

	select {
	case <-q.Wait():
	default:
		t.Fatal("expected a pending signal")
	}
	select {
	case <-q.Wait():
		t.Fatal("expected a single signal for a burst")
	default:
	}
}

func TestChangeQueue_CloseRejectsAndWakes(t *testing.T) {
	q := newChangeQueue()
	q.Close()
	q.Close()

	assert.False(t, q.Enqueue(SetSearch("late")))
	_, ok := <-q.Wait()
	assert.False(t, ok)
}

func TestChangeQueue_ConcurrentEnqueue(t *testing.T) {
	q := newChangeQueue()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				q.Enqueue(CollectionChanged())
			}
		}()
	}
	wg.Wait()
	assert.Len(t, q.DrainAll(), 800)
}
