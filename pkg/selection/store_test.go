package selection

import (
	"reflect"
	"sync"
	"testing"
)

func TestStore(t *testing.T) {
	s := NewStore()
	if s.Get("/x") {
		t.Error("unknown identity should read false")
	}

	s.Set("/b", true)
	s.Set("/a", true)
	s.Set("/c", false)

	if got := s.Checked(); !reflect.DeepEqual(got, []string{"/a", "/b"}) {
		t.Errorf("Checked = %v", got)
	}
	if s.Len() != 3 {
		t.Errorf("Len = %d, want 3", s.Len())
	}

	s.Clear()
	if s.Len() != 0 || len(s.Checked()) != 0 {
		t.Error("Clear should drop every entry")
	}
}

func TestStore_ConcurrentWriters(t *testing.T) {
	s := NewStore()
	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id := string(rune('a' + i%26))
			s.Set(id, true)
			_ = s.Get(id)
		}()
	}
	wg.Wait()
	if got := len(s.Checked()); got != 26 {
		t.Errorf("Checked has %d entries, want 26", got)
	}
}
