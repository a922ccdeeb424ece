package ingest

import (
	"time"

	"github.com/sig-0/fxpoints/storage/types"
)

// Status is the completeness of a full refresh
type Status string

const (
	// StatusComplete means every literal on the page decoded
	StatusComplete Status = "complete"

	// StatusDegraded means the outlet list might be incomplete
	StatusDegraded Status = "degraded"
)

// PatchOutcome is the outcome of a single outlet refresh
type PatchOutcome string

const (
	// PatchApplied means the outlet quotes were updated
	PatchApplied PatchOutcome = "applied"

	// PatchBusy means another single outlet refresh was in flight,
	// and nothing was done
	PatchBusy PatchOutcome = "busy"

	// PatchNotFound means the outlet is missing from the fresh listing.
	// The local outlet is left unchanged
	PatchNotFound PatchOutcome = "not_found"
)

// Result is the outcome of a full city refresh
type Result struct {
	UpdatedAt time.Time
	City      string
	Status    Status

	// Outlets is the working set content after the refresh
	Outlets []*types.Outlet

	Version        uint64
	Literals       int
	FailedLiterals int
	Dropped        int
}

// Degraded reports if the result might be missing outlets
func (r *Result) Degraded() bool {
	return r.Status == StatusDegraded
}
