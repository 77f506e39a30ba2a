package selection

import (
	"sort"
	"sync"
)

// Store maps identities to their checked bit. Absent means unchecked.
type Store struct {
	mu      sync.RWMutex
	checked map[string]bool
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{checked: make(map[string]bool)}
}

// Get returns the bit for id.
func (s *Store) Get(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.checked[id]
}

// Set records the bit for id. Entries are kept even when false.
func (s *Store) Set(id string, value bool) {
	s.mu.Lock()
	s.checked[id] = value
	s.mu.Unlock()
}

// Checked returns every identity currently set to true, sorted.
func (s *Store) Checked() []string {
	s.mu.RLock()
	out := make([]string, 0, len(s.checked))
	for id, v := range s.checked {
		if v {
			out = append(out, id)
		}
	}
	s.mu.RUnlock()

	sort.Strings(out)
	return out
}

// Clear removes every entry.
func (s *Store) Clear() {
	s.mu.Lock()
	s.checked = make(map[string]bool)
	s.mu.Unlock()
}

// Len returns the number of entries, true or false.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.checked)
}
