package geo

import (
	"strings"
	"sync/atomic"
	"time"
)

// Position is the latest known device position, with its resolved city
type Position struct {
	UpdatedAt  time.Time  `json:"updated_at"`
	City       string     `json:"city"`
	Coordinate Coordinate `json:"coordinate"`
}

// Locator supplies the latest known position, if any.
// Implementations must never block
type Locator interface {
	Latest() (Position, bool)
}

// Tracker is an in-process Locator, fed by an external geolocation source
type Tracker struct {
	current atomic.Pointer[Position]
}

// NewTracker creates a new tracker with no known position
func NewTracker() *Tracker {
	return &Tracker{}
}

// Update stores the given position as the latest one
func (t *Tracker) Update(coordinate Coordinate, city string) {
	t.current.Store(&Position{
		Coordinate: coordinate,
		City:       strings.TrimSpace(city),
		UpdatedAt:  time.Now().UTC(),
	})
}

// Latest returns the latest stored position
func (t *Tracker) Latest() (Position, bool) {
	p := t.current.Load()
	if p == nil {
		return Position{}, false
	}

	return *p, true
}
