package mediapreview

import (
	"fmt"
	"log/slog"
	"sync"
)

// Occupant is whatever currently owns the decode graph: a preview extraction
// or a playback session. Teardown releases every engine resource it holds.
type Occupant interface {
	Teardown() error
}

// GraphSlot holds at most one active decode graph. Replace is the only way to
// put a graph in: it tears the previous occupant down before building the next.
type GraphSlot struct {
	mu      sync.Mutex
	current Occupant
}

// Replace tears down the current occupant, then calls build and stores its
// result. When build fails the slot stays empty.
//
// A teardown error is logged and does not prevent the build.
func (s *GraphSlot) Replace(build func() (Occupant, error)) (Occupant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.teardownLocked()

	occ, err := build()
	if err != nil {
		return nil, err
	}
	if occ == nil {
		return nil, fmt.Errorf("media-preview: graph build returned no occupant")
	}
	s.current = occ
	return occ, nil
}

// Release tears occ down and empties the slot if occ still owns it.
// Returns false when occ had already been replaced.
func (s *GraphSlot) Release(occ Occupant) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil || s.current != occ {
		return false
	}
	s.teardownLocked()
	return true
}

// Clear tears down whatever occupies the slot.
func (s *GraphSlot) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.teardownLocked()
}

// Current returns the occupant, nil when empty.
func (s *GraphSlot) Current() Occupant {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Occupied reports whether a graph is active.
func (s *GraphSlot) Occupied() bool {
	return s.Current() != nil
}

func (s *GraphSlot) teardownLocked() {
	if s.current == nil {
		return
	}
	if err := s.current.Teardown(); err != nil {
		slog.Error("media-preview: failed to tear down graph", "error", err)
	}
	s.current = nil
}
