// Package workset holds the live, reconciled outlet collection of a city.
//
// The collection is published as immutable snapshots. Writers build a new
// snapshot and swap it in atomically; readers load the current snapshot
// without locking and never observe a partially applied update.
package workset

import (
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sig-0/fxpoints/storage/types"
)

// Snapshot is an immutable view of the working set
type Snapshot struct {
	UpdatedAt time.Time
	byID      map[string]*types.Outlet
	City      string

	// Outlets are shared with other snapshots, and must not be modified
	Outlets []*types.Outlet
	Version uint64
}

// Get returns the outlet with the given ID, if any
func (s *Snapshot) Get(id string) (*types.Outlet, bool) {
	o, ok := s.byID[id]

	return o, ok
}

// Len returns the number of outlets in the snapshot
func (s *Snapshot) Len() int {
	return len(s.Outlets)
}

// Loaded reports if the set was ever populated
func (s *Snapshot) Loaded() bool {
	return s.Version > 0
}

// Set is the working set of a single city.
// It has a single writer role, and any number of readers
type Set struct {
	current atomic.Pointer[Snapshot]

	subs   map[uint64]chan *Snapshot
	nextID uint64
	subsMu sync.Mutex

	writeMu sync.Mutex
}

// New creates a new empty working set for the given city
func New(city string) *Set {
	s := &Set{
		subs: make(map[uint64]chan *Snapshot),
	}

	s.current.Store(&Snapshot{
		City: city,
		byID: make(map[string]*types.Outlet),
	})

	return s
}

// Snapshot returns the current snapshot
func (s *Set) Snapshot() *Snapshot {
	return s.current.Load()
}

// ReplaceAll replaces the whole set with the given outlets.
// Outlets with duplicate IDs keep their first occurrence
func (s *Set) ReplaceAll(outlets []*types.Outlet) *Snapshot {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	prev := s.current.Load()

	next := &Snapshot{
		City:      prev.City,
		Outlets:   make([]*types.Outlet, 0, len(outlets)),
		byID:      make(map[string]*types.Outlet, len(outlets)),
		Version:   prev.Version + 1,
		UpdatedAt: time.Now().UTC(),
	}

	for _, o := range outlets {
		if o == nil {
			continue
		}

		if _, exists := next.byID[o.ID]; exists {
			continue
		}

		next.byID[o.ID] = o
		next.Outlets = append(next.Outlets, o)
	}

	s.current.Store(next)
	s.publish(next)

	return next
}

// PatchOne overwrites the quotes and actual time of a single outlet.
// Every other outlet field is left untouched.
// Returns false if the outlet is not in the set
func (s *Set) PatchOne(id string, quotes []types.Quote, actualTime time.Time) bool {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	prev := s.current.Load()

	existing, ok := prev.byID[id]
	if !ok {
		return false
	}

	patched := existing.Clone()
	patched.Quotes = slices.Clone(quotes)
	patched.ActualTime = actualTime

	next := &Snapshot{
		City:      prev.City,
		Outlets:   slices.Clone(prev.Outlets),
		byID:      make(map[string]*types.Outlet, len(prev.byID)),
		Version:   prev.Version + 1,
		UpdatedAt: time.Now().UTC(),
	}

	for i, o := range next.Outlets {
		if o.ID == id {
			next.Outlets[i] = patched
		}

		next.byID[next.Outlets[i].ID] = next.Outlets[i]
	}

	s.current.Store(next)
	s.publish(next)

	return true
}

// Subscribe registers for snapshot updates.
// Slow subscribers only receive the latest snapshot.
// The returned function cancels the subscription
func (s *Set) Subscribe() (<-chan *Snapshot, func()) {
	ch := make(chan *Snapshot, 1)

	s.subsMu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = ch
	s.subsMu.Unlock()

	var once sync.Once

	cancel := func() {
		once.Do(func() {
			s.subsMu.Lock()
			delete(s.subs, id)
			s.subsMu.Unlock()
		})
	}

	return ch, cancel
}

// publish notifies the subscribers of the new snapshot, without blocking
func (s *Set) publish(snap *Snapshot) {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()

	for _, ch := range s.subs {
		// Drop the stale pending snapshot, if any
		select {
		case <-ch:
		default:
		}

		select {
		case ch <- snap:
		default:
		}
	}
}
