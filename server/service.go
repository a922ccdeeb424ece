package server

import (
	"context"

	"github.com/sig-0/fxpoints/ingest"
	"github.com/sig-0/fxpoints/provider/kurs"
	"github.com/sig-0/fxpoints/workset"
)

// Service is the outlet ingestion service, backing the outlet endpoints
type Service interface {
	// Catalog returns the supported city catalog
	Catalog() *kurs.Catalog

	// Snapshot returns the current working set snapshot of the city
	Snapshot(city string) (*workset.Snapshot, error)

	// Subscribe registers for working set updates of the city
	Subscribe(city string) (<-chan *workset.Snapshot, func(), error)

	// RefreshAll refreshes the whole city listing
	RefreshAll(ctx context.Context, city string) (*ingest.Result, error)

	// RefreshOne refreshes the quotes of a single outlet
	RefreshOne(ctx context.Context, id string) (ingest.PatchOutcome, error)
}
