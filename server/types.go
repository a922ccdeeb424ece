package server

import (
	"time"

	"github.com/sig-0/fxpoints/geo"
	"github.com/sig-0/fxpoints/ingest"
	"github.com/sig-0/fxpoints/provider/kurs"
	"github.com/sig-0/fxpoints/rank"
	"github.com/sig-0/fxpoints/storage/types"
)

type CitiesResponse struct {
	Results  []*kurs.City `json:"results"`
	Default  string       `json:"default"`
	Archived []string     `json:"archived,omitempty"`
}

type CurrenciesResponse struct {
	Results []types.Currency `json:"results"`
}

type OutletsResponse struct {
	UpdatedAt time.Time     `json:"updated_at"`
	City      string        `json:"city"`
	Status    ingest.Status `json:"status,omitempty"`
	Results   []rank.Entry  `json:"results"`
	Version   uint64        `json:"version"`
	Total     int           `json:"total"`
}

type OutletResponse struct {
	Outlet *types.Outlet `json:"outlet"`

	// MinutesSinceUpdate is the age of the outlet rates
	MinutesSinceUpdate int `json:"minutes_since_update"`
}

type RefreshCityResponse struct {
	UpdatedAt      time.Time     `json:"updated_at"`
	City           string        `json:"city"`
	Status         ingest.Status `json:"status"`
	Version        uint64        `json:"version"`
	Outlets        int           `json:"outlets"`
	Literals       int           `json:"literals"`
	FailedLiterals int           `json:"failed_literals"`
	Dropped        int           `json:"dropped"`
}

type RefreshOutletResponse struct {
	ID      string              `json:"id"`
	Outcome ingest.PatchOutcome `json:"outcome"`
}

type LocationRequest struct {
	City string  `json:"city"`
	Lat  float64 `json:"lat"`
	Lng  float64 `json:"lng"`
}

type LocationResponse struct {
	Position geo.Position `json:"position"`
}

type ErrorResponse struct {
	Error string `json:"error"`

	// Retry is set when the same request can succeed later
	Retry bool `json:"retry,omitempty"`
}
