package model

import "slices"

// EntryStore keeps entries ordered ascending by date. Entries sharing a date
// keep their insertion order. The zero value is an empty store.
type EntryStore struct {
	entries []Entry
}

// NewEntryStore returns a store holding entries, sorted.
func NewEntryStore(entries []Entry) *EntryStore {
	s := &EntryStore{}
	s.Replace(entries)
	return s
}

// Add inserts e and re-establishes date order. Duplicate ids and dates are
// accepted as-is.
func (s *EntryStore) Add(e Entry) {
	s.AddAll(e)
}

// AddAll inserts entries in the given order.
func (s *EntryStore) AddAll(entries ...Entry) {
	s.entries = append(s.entries, entries...)
	sortByDate(s.entries)
}

// Remove deletes the entry with the given id. It reports whether anything was
// removed; an unknown id is not an error.
func (s *EntryStore) Remove(id string) bool {
	n := len(s.entries)
	s.entries = slices.DeleteFunc(s.entries, func(e Entry) bool { return e.ID == id })
	return len(s.entries) != n
}

// Replace swaps the whole collection.
func (s *EntryStore) Replace(entries []Entry) {
	s.entries = slices.Clone(entries)
	sortByDate(s.entries)
}

// List returns a copy of the entries in date order.
func (s *EntryStore) List() []Entry {
	out := slices.Clone(s.entries)
	if out == nil {
		out = []Entry{}
	}
	return out
}

// Len returns the number of entries.
func (s *EntryStore) Len() int { return len(s.entries) }

func sortByDate(entries []Entry) {
	slices.SortStableFunc(entries, func(a, b Entry) int { return a.Date.Compare(b.Date) })
}

// TargetModel holds at most one active target.
type TargetModel struct {
	t *TargetSettings
}

// Set replaces the current target wholesale. No validation is applied.
func (m *TargetModel) Set(t TargetSettings) { m.t = &t }

// Clear removes the target.
func (m *TargetModel) Clear() { m.t = nil }

// Get returns the current target, if any.
func (m *TargetModel) Get() (TargetSettings, bool) {
	if m.t == nil {
		return TargetSettings{}, false
	}
	return *m.t, true
}

// Ptr returns a copy of the target or nil.
func (m *TargetModel) Ptr() *TargetSettings {
	if m.t == nil {
		return nil
	}
	t := *m.t
	return &t
}
