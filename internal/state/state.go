// Package state owns the in-memory application state: the entry store and
// the optional target, plus change notification for persistence and views.
package state

import (
	"sync"

	"github.com/sahilbhatiani/net-worth-tracker/internal/model"
)

// Origin tells observers where a change came from.
type Origin int

const (
	// Local changes are made by the user on this device.
	Local Origin = iota
	// Remote changes were loaded from the remote document store.
	Remote
)

func (o Origin) String() string {
	if o == Remote {
		return "remote"
	}
	return "local"
}

// Change is delivered to observers after every mutation. Doc is a full
// snapshot taken right after the mutation.
type Change struct {
	Origin Origin
	Doc    model.Document
}

// Observer receives changes. Observers run on the mutating goroutine, one at
// a time and in mutation order, so they must not call mutators on the same
// State.
type Observer func(Change)

// State is safe for concurrent use.
type State struct {
	mu      sync.Mutex
	entries model.EntryStore
	target  model.TargetModel

	notifyMu  sync.Mutex
	obsMu     sync.Mutex
	observers map[int]Observer
	nextObs   int
}

// New returns an empty state.
func New() *State {
	return &State{observers: make(map[int]Observer)}
}

// Subscribe registers fn and returns a function that removes it.
func (s *State) Subscribe(fn Observer) func() {
	s.obsMu.Lock()
	id := s.nextObs
	s.nextObs++
	s.observers[id] = fn
	s.obsMu.Unlock()

	return func() {
		s.obsMu.Lock()
		delete(s.observers, id)
		s.obsMu.Unlock()
	}
}

// AddEntry records a snapshot.
func (s *State) AddEntry(e model.Entry) {
	s.AddEntries(e)
}

// AddEntries records several snapshots with a single notification.
func (s *State) AddEntries(entries ...model.Entry) {
	if len(entries) == 0 {
		return
	}
	s.mutate(Local, func() bool {
		s.entries.AddAll(entries...)
		return true
	})
}

// RemoveEntry deletes the entry with id. Unknown ids change nothing and
// notify nobody.
func (s *State) RemoveEntry(id string) bool {
	var removed bool
	s.mutate(Local, func() bool {
		removed = s.entries.Remove(id)
		return removed
	})
	return removed
}

// SetTarget replaces the target.
func (s *State) SetTarget(t model.TargetSettings) {
	s.mutate(Local, func() bool {
		s.target.Set(t)
		return true
	})
}

// ClearTarget removes the target.
func (s *State) ClearTarget() {
	s.mutate(Local, func() bool {
		s.target.Clear()
		return true
	})
}

// Replace swaps entries and target wholesale. A nil Entries slice becomes
// empty and a nil target clears the current one.
func (s *State) Replace(doc model.Document, origin Origin) {
	s.mutate(origin, func() bool {
		s.entries.Replace(doc.Entries)
		if doc.TargetSettings != nil {
			s.target.Set(*doc.TargetSettings)
		} else {
			s.target.Clear()
		}
		return true
	})
}

// Snapshot returns a copy of the current state.
func (s *State) Snapshot() model.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Entries returns the entries in date order.
func (s *State) Entries() []model.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entries.List()
}

// Target returns a copy of the target or nil.
func (s *State) Target() *model.TargetSettings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.target.Ptr()
}

func (s *State) snapshotLocked() model.Document {
	return model.Document{Entries: s.entries.List(), TargetSettings: s.target.Ptr()}
}

// mutate applies fn under the data lock and, when fn reports a change,
// notifies observers after releasing it. notifyMu keeps notifications in
// mutation order.
func (s *State) mutate(origin Origin, fn func() bool) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	changed := fn()
	var doc model.Document
	if changed {
		doc = s.snapshotLocked()
	}
	s.mu.Unlock()

	if !changed {
		return
	}

	s.obsMu.Lock()
	obs := make([]Observer, 0, len(s.observers))
	for id := 0; id < s.nextObs; id++ {
		if fn, ok := s.observers[id]; ok {
			obs = append(obs, fn)
		}
	}
	s.obsMu.Unlock()

	ch := Change{Origin: origin, Doc: doc}
	for _, fn := range obs {
		fn(ch)
	}
}
