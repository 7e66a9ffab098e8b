package crawl

import (
	"github.com/google/uuid"
)

// State is the per-run crawl session state. It is created when a run starts,
// mutated only by the controllers on the single control thread, and
// discarded when the run ends; nothing persists across runs.
type State struct {
	RunID          string
	Surface        string
	Cursor         int // scroll offset or page index, per variant
	SeenKeys       map[string]struct{}
	EmittedCount   int
	AttemptedPages int
}

// NewState creates a fresh run state for a surface.
func NewState(surface string) *State {
	return &State{
		RunID:    uuid.NewString(),
		Surface:  surface,
		SeenKeys: make(map[string]struct{}),
	}
}

// Seen reports whether a dedup key was already emitted this run.
func (s *State) Seen(key string) bool {
	_, ok := s.SeenKeys[key]
	return ok
}

// MarkSeen records a dedup key for the remainder of the run.
func (s *State) MarkSeen(key string) {
	s.SeenKeys[key] = struct{}{}
}
