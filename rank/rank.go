// Package rank computes the filtered, ordered presentation views
// of a working set. Projections are pure, and never modify the outlets
package rank

import (
	"cmp"
	"errors"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/sig-0/fxpoints/geo"
	"github.com/sig-0/fxpoints/storage/types"
)

var (
	errInvalidMode     = errors.New("invalid sort mode")
	errInvalidSide     = errors.New("invalid side")
	errInvalidCurrency = errors.New("invalid currency")
)

// Mode is the projection sort mode
type Mode string

const (
	// ModeAll sorts by distance from the origin (nearest first)
	ModeAll Mode = "all"

	// ModeCurrency keeps outlets quoting the currency, sorted by the best price
	ModeCurrency Mode = "currency"

	// ModeRecency sorts by the rates update time (newest first)
	ModeRecency Mode = "recency"
)

// Params are the projection parameters
type Params struct {
	// Origin is the reference coordinate for distances, if any
	Origin *geo.Coordinate

	Mode Mode

	// Currency and Side are only used by ModeCurrency.
	// BUY ranks the highest buy price first, SELL the lowest sell price first
	Currency types.Currency
	Side     types.Side
}

// Entry is a single projected outlet
type Entry struct {
	Outlet *types.Outlet `json:"outlet"`

	// DistanceKm is the distance from the origin, if one was given
	DistanceKm *float64 `json:"distance_km,omitempty"`

	// Price is the ranked price (ModeCurrency only)
	Price *float64 `json:"price,omitempty"`
}

// ParseParams parses the textual projection parameters.
// Empty values fall back to ModeAll and the BUY side
func ParseParams(mode, currency, side string) (Params, error) {
	p := Params{
		Mode: ModeAll,
		Side: types.SideBUY,
	}

	if v := strings.ToLower(strings.TrimSpace(mode)); v != "" {
		switch Mode(v) {
		case ModeAll, ModeCurrency, ModeRecency:
			p.Mode = Mode(v)
		default:
			return Params{}, errInvalidMode
		}
	}

	if v := strings.ToUpper(strings.TrimSpace(side)); v != "" {
		switch types.Side(v) {
		case types.SideBUY, types.SideSELL:
			p.Side = types.Side(v)
		default:
			return Params{}, errInvalidSide
		}
	}

	if v := strings.ToUpper(strings.TrimSpace(currency)); v != "" {
		c := types.Currency(v)
		if !c.Valid() {
			return Params{}, errInvalidCurrency
		}

		p.Currency = c
	}

	if p.Mode == ModeCurrency && p.Currency == "" {
		return Params{}, errInvalidCurrency
	}

	return p, nil
}

// Project filters the outlets by name (case-insensitive substring match),
// and orders them according to the params
func Project(outlets []*types.Outlet, search string, params Params) []Entry {
	needle := strings.ToLower(strings.TrimSpace(search))

	entries := make([]Entry, 0, len(outlets))

	for _, o := range outlets {
		if o == nil {
			continue
		}

		if needle != "" && !strings.Contains(strings.ToLower(o.Name), needle) {
			continue
		}

		e := Entry{
			Outlet: o,
		}

		if params.Origin != nil {
			d := geo.DistanceKm(*params.Origin, o.Coordinate)
			e.DistanceKm = &d
		}

		if params.Mode == ModeCurrency {
			price, ok := quotedPrice(o, params.Currency, params.Side)
			if !ok {
				continue
			}

			e.Price = &price
		}

		entries = append(entries, e)
	}

	switch params.Mode {
	case ModeCurrency:
		slices.SortStableFunc(entries, func(a, b Entry) int {
			if c := comparePrice(a, b, params.Side); c != 0 {
				return c
			}

			if c := compareDistance(a, b); c != 0 {
				return c
			}

			return compareIDs(a.Outlet.ID, b.Outlet.ID)
		})
	case ModeRecency:
		slices.SortStableFunc(entries, func(a, b Entry) int {
			if c := b.Outlet.ActualTime.Compare(a.Outlet.ActualTime); c != 0 {
				return c
			}

			return compareIDs(a.Outlet.ID, b.Outlet.ID)
		})
	default:
		slices.SortStableFunc(entries, func(a, b Entry) int {
			if c := compareDistance(a, b); c != 0 {
				return c
			}

			return compareIDs(a.Outlet.ID, b.Outlet.ID)
		})
	}

	return entries
}

// quotedPrice returns the outlet price for the currency side,
// if the outlet trades the currency
func quotedPrice(o *types.Outlet, c types.Currency, side types.Side) (float64, bool) {
	q, ok := o.Quote(c)
	if !ok {
		return 0, false
	}

	price := q.Price(side)
	if math.IsNaN(price) || price <= 0 {
		return 0, false
	}

	return price, true
}

// comparePrice orders by the best price for the side.
// Missing prices always sort last
func comparePrice(a, b Entry, side types.Side) int {
	if side == types.SideSELL {
		return cmp.Compare(priceOr(a, math.Inf(1)), priceOr(b, math.Inf(1)))
	}

	return cmp.Compare(priceOr(b, math.Inf(-1)), priceOr(a, math.Inf(-1)))
}

func priceOr(e Entry, fallback float64) float64 {
	if e.Price == nil {
		return fallback
	}

	return *e.Price
}

// compareDistance orders by distance, with unknown distances last
func compareDistance(a, b Entry) int {
	var (
		da = math.Inf(1)
		db = math.Inf(1)
	)

	if a.DistanceKm != nil {
		da = *a.DistanceKm
	}

	if b.DistanceKm != nil {
		db = *b.DistanceKm
	}

	return cmp.Compare(da, db)
}

// compareIDs orders numeric IDs first, by value,
// and then the other IDs lexicographically
func compareIDs(a, b string) int {
	na, errA := strconv.ParseInt(a, 10, 64)
	nb, errB := strconv.ParseInt(b, 10, 64)

	switch {
	case errA == nil && errB == nil:
		if c := cmp.Compare(na, nb); c != 0 {
			return c
		}

		// "7" and "07"
		return strings.Compare(a, b)
	case errA == nil:
		return -1
	case errB == nil:
		return 1
	default:
		return strings.Compare(a, b)
	}
}
