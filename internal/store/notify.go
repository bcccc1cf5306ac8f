package store

import "log/slog"

// ChangeKind identifies what a write touched.
type ChangeKind string

const (
	ChangeLibrary           ChangeKind = "library"
	ChangeShelf             ChangeKind = "shelf"
	ChangeBook              ChangeKind = "book"
	ChangeMagicShelf        ChangeKind = "magic_shelf"
	ChangeMagicShelfDeleted ChangeKind = "magic_shelf_deleted"
	ChangePreferences       ChangeKind = "preferences"
	// ChangeResync replaces changes a subscriber had no room for. It
	// carries no ID: everything read before it may be out of date.
	ChangeResync ChangeKind = "resync"
)

// Change is a committed write. ID is the affected row, or 0 for batch
// writes touching many rows.
type Change struct {
	Kind ChangeKind `json:"kind"`
	ID   int64      `json:"id"`
}

// defaultSubscriptionBuffer is the channel capacity when Subscribe is
// called with a non-positive buffer.
const defaultSubscriptionBuffer = 64

// Subscribe registers for change notifications. The returned function
// unsubscribes and closes the channel; Close also closes it.
//
// Delivery never blocks writers. When a subscriber's buffer is full the
// change is replaced by a single ChangeResync, and further changes are
// dropped until the subscriber has read past it.
func (s *Store) Subscribe(buffer int) (<-chan Change, func()) {
	if buffer <= 0 {
		buffer = defaultSubscriptionBuffer
	}
	// One slot beyond buffer is kept for the resync notice.
	ch := make(chan Change, buffer+1)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		close(ch)
		return ch, func() {}
	}
	id := s.nextID
	s.nextID++
	s.subs[id] = ch

	return ch, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if c, ok := s.subs[id]; ok {
			close(c)
			delete(s.subs, id)
		}
	}
}

// publish delivers c to every subscriber. Called after commit.
//
// Only publish sends, under s.mu, so a channel's length can only shrink
// between the check and the send. A change lands in the first cap-1
// slots; the last slot is only ever filled by a resync, so a full
// channel always ends with a pending resync that covers c.
func (s *Store) publish(c Change) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, ch := range s.subs {
		switch n := len(ch); {
		case n < cap(ch)-1:
			ch <- c
		case n == cap(ch)-1:
			slog.Warn("store subscriber is behind, sending resync",
				"subscriber", id,
				"kind", c.Kind,
				"id", c.ID,
			)
			ch <- Change{Kind: ChangeResync}
		default:
			slog.Debug("dropping store change behind pending resync",
				"subscriber", id,
				"kind", c.Kind,
				"id", c.ID,
			)
		}
	}
}
