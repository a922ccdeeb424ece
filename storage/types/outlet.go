package types

import (
	"slices"
	"strings"
	"time"

	"github.com/sig-0/fxpoints/geo"
)

// OutletKind is the kind of the exchange outlet
type OutletKind string

const (
	OutletKindExchanger OutletKind = "EXCHANGER"
	OutletKindBank      OutletKind = "BANK"
)

// Quote is a single currency buy / sell price pair at an outlet.
// Prices are in the local currency (KZT), and are always positive
type Quote struct {
	Currency Currency `json:"currency"`
	Buy      float64  `json:"buy"`
	Sell     float64  `json:"sell"`
}

// Price returns the quote price for the given side
func (q Quote) Price(side Side) float64 {
	if side == SideSELL {
		return q.Sell
	}

	return q.Buy
}

// DayHours is an [open, close] pair of "HH:MM" strings.
// An empty value means the outlet is closed that day
type DayHours []string

// Open returns the opening time, if any
func (d DayHours) Open() string {
	if len(d) == 0 {
		return ""
	}

	return d[0]
}

// Close returns the closing time, if any
func (d DayHours) Close() string {
	if len(d) < 2 {
		return ""
	}

	return d[1]
}

// Schedule is the outlet weekly schedule, as reported by the source
type Schedule struct {
	Mon     DayHours `json:"mon"`
	Tue     DayHours `json:"tue"`
	Wed     DayHours `json:"wed"`
	Thu     DayHours `json:"thu"`
	Fri     DayHours `json:"fri"`
	Sat     DayHours `json:"sat"`
	Sun     DayHours `json:"sun"`
	Holiday DayHours `json:"holiday"`

	AlwaysOpen bool `json:"always_open"`
	Closed     bool `json:"closed"`
	OpenNow    bool `json:"open_now"` // computed by the source
}

// Day returns the hours for the given weekday.
// Per-day hours are irrelevant if the outlet is always open
func (s Schedule) Day(d time.Weekday) DayHours {
	switch d {
	case time.Monday:
		return s.Mon
	case time.Tuesday:
		return s.Tue
	case time.Wednesday:
		return s.Wed
	case time.Thursday:
		return s.Thu
	case time.Friday:
		return s.Fri
	case time.Saturday:
		return s.Sat
	default:
		return s.Sun
	}
}

// Outlet is a single currency exchange location.
// Outlets held by a working set are shared and must be treated as read-only
type Outlet struct {
	ActualTime  time.Time      `json:"actual_time"`
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	City        string         `json:"city"`
	MainAddress string         `json:"main_address"`
	Address     string         `json:"address"`
	Kind        OutletKind     `json:"kind"`
	Source      Source         `json:"source"`
	Phones      []string       `json:"phones"`
	Quotes      []Quote        `json:"quotes"`
	Schedule    Schedule       `json:"schedule"`
	Coordinate  geo.Coordinate `json:"coordinate"`
}

// Quote returns the quote for the given currency, if any
func (o *Outlet) Quote(c Currency) (Quote, bool) {
	for _, q := range o.Quotes {
		if q.Currency == c {
			return q, true
		}
	}

	return Quote{}, false
}

// MinutesSinceUpdate returns the whole minutes passed since the outlet's rates were updated
func (o *Outlet) MinutesSinceUpdate(now time.Time) int {
	if o.ActualTime.IsZero() || now.Before(o.ActualTime) {
		return 0
	}

	return int(now.Sub(o.ActualTime) / time.Minute)
}

// Clone returns a deep copy of the outlet
func (o *Outlet) Clone() *Outlet {
	c := *o

	c.Phones = slices.Clone(o.Phones)
	c.Quotes = slices.Clone(o.Quotes)
	c.Schedule = o.Schedule.clone()

	return &c
}

func (s Schedule) clone() Schedule {
	c := s

	c.Mon = slices.Clone(s.Mon)
	c.Tue = slices.Clone(s.Tue)
	c.Wed = slices.Clone(s.Wed)
	c.Thu = slices.Clone(s.Thu)
	c.Fri = slices.Clone(s.Fri)
	c.Sat = slices.Clone(s.Sat)
	c.Sun = slices.Clone(s.Sun)
	c.Holiday = slices.Clone(s.Holiday)

	return c
}

// SortQuotes returns a copy of the quotes, ordered by currency code.
// Source order is not stable across fetches
func SortQuotes(quotes []Quote) []Quote {
	out := slices.Clone(quotes)

	slices.SortFunc(out, func(a, b Quote) int {
		return strings.Compare(a.Currency.String(), b.Currency.String())
	})

	return out
}
