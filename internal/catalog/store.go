package catalog

import "sync"

// Store is the ordered in-memory clip collection. All methods are safe for
// concurrent use. Every mutation notifies registered change listeners so
// surfaces like the tray can refresh their counts.
type Store struct {
	mu        sync.Mutex
	clips     []Clip
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

// Add appends a clip with a freshly assigned id and returns the stored copy.
func (s *Store) Add(clip Clip) Clip {
	s.mu.Lock()
	clip.ID = NewID()
	s.clips = append(s.clips, clip)
	s.mu.Unlock()

	s.notify()
	return clip
}

// Retag replaces the role of the clip matching id. Absent ids are ignored.
func (s *Store) Retag(id string, role Role) {
	s.mu.Lock()
	changed := false
	for i := range s.clips {
		if s.clips[i].ID == id {
			s.clips[i].Role = role
			changed = true
			break
		}
	}
	s.mu.Unlock()

	if changed {
		s.notify()
	}
}

// Remove deletes the clip matching id and returns it. Absent ids are
// ignored; ok reports whether a clip was removed.
func (s *Store) Remove(id string) (Clip, bool) {
	s.mu.Lock()
	var removed Clip
	ok := false
	for i := range s.clips {
		if s.clips[i].ID == id {
			removed = s.clips[i]
			s.clips = append(s.clips[:i], s.clips[i+1:]...)
			ok = true
			break
		}
	}
	s.mu.Unlock()

	if ok {
		s.notify()
	}
	return removed, ok
}

// Clear removes all clips and returns them.
func (s *Store) Clear() []Clip {
	s.mu.Lock()
	removed := s.clips
	s.clips = nil
	s.mu.Unlock()

	if len(removed) > 0 {
		s.notify()
	}
	return removed
}

// Get returns the clip matching id.
func (s *Store) Get(id string) (Clip, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.clips {
		if c.ID == id {
			return c, true
		}
	}
	return Clip{}, false
}

// Clips returns a snapshot copy of the collection in insertion order.
func (s *Store) Clips() []Clip {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Clip, len(s.clips))
	copy(out, s.clips)
	return out
}

// Count returns the number of clips.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clips)
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
