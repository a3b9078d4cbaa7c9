// Package sequence generates candidate ad sequences from the clip catalog
// and holds the most recent generation batch.
//
// A sequence always has the shape hook, 1-3 selling points, CTA (zero
// selling points only when the catalog has none). Sequences reference clip
// snapshots taken at generation time: retagging or removing a clip later
// does not alter sequences that already exist, but exporting such a
// sequence fails when the clip's bytes are gone.
package sequence

import (
	"sync"

	"github.com/google/uuid"
	"github.com/spotforge/spotforge-agent/internal/catalog"
)

// Sequence is one candidate assembled video.
type Sequence struct {
	ID       string         `json:"id"`
	Clips    []catalog.Clip `json:"clips"`
	Duration float64        `json:"duration_s"`
}

// NewID returns a fresh sequence identifier.
func NewID() string {
	return uuid.NewString()
}

// Store holds the current generation batch in generation order. A new
// generation replaces the whole list; sequences are not persisted across
// restarts. Mutations notify registered change listeners.
type Store struct {
	mu        sync.Mutex
	seqs      []Sequence
	listeners []func()
}

func NewStore() *Store {
	return &Store{}
}

// OnChange registers a listener invoked after every mutation. Listeners run
// outside the store lock and must not block for long.
func (s *Store) OnChange(fn func()) {
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

// Replace swaps in a freshly generated batch.
func (s *Store) Replace(seqs []Sequence) {
	s.mu.Lock()
	s.seqs = seqs
	s.mu.Unlock()
	s.notify()
}

// List returns a snapshot of the batch in generation order.
func (s *Store) List() []Sequence {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Sequence, len(s.seqs))
	copy(out, s.seqs)
	return out
}

// Get returns the sequence matching id.
func (s *Store) Get(id string) (Sequence, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, seq := range s.seqs {
		if seq.ID == id {
			return seq, true
		}
	}
	return Sequence{}, false
}

// Remove deletes the sequence matching id. Absent ids are ignored.
func (s *Store) Remove(id string) bool {
	s.mu.Lock()
	removed := false
	for i := range s.seqs {
		if s.seqs[i].ID == id {
			s.seqs = append(s.seqs[:i], s.seqs[i+1:]...)
			removed = true
			break
		}
	}
	s.mu.Unlock()

	if removed {
		s.notify()
	}
	return removed
}

// Count returns the number of sequences in the current batch.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.seqs)
}

func (s *Store) notify() {
	s.mu.Lock()
	listeners := make([]func(), len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.Unlock()

	for _, fn := range listeners {
		fn()
	}
}
