package ingest

import (
	"context"

	"github.com/sig-0/fxpoints/provider/kurs"
)

// Provider is a single city listing provider
type Provider interface {
	// Name returns the human-readable name of the provider
	Name() string

	// Fetch fetches and decodes the listing of the given city.
	// Only transport-level failures are returned as errors
	Fetch(context.Context, *kurs.City) (*kurs.Report, error)
}
