package ingest

import (
	"context"
	"time"

	"github.com/rs/xid"

	"github.com/sig-0/fxpoints/provider/kurs"
)

// scheduledRefresh is a single scheduled city refresh job
type scheduledRefresh struct {
	at    time.Time
	city  *kurs.City
	jobID xid.ID
}

// Less is utilized to sort scheduled refreshes by their due-time (earliest == first)
func (a scheduledRefresh) Less(b scheduledRefresh) bool {
	return a.at.Before(b.at)
}

// workerInfo is the work context for the fetch routine
type workerInfo struct {
	provider Provider
	city     *kurs.City
	resCh    chan<- *workerResponse
	jobID    xid.ID
}

// workerResponse is the fetch routine response
type workerResponse struct {
	error  error        // encountered error, if any
	report *kurs.Report // the fetched listing
	jobID  xid.ID       // the refresh job ID
}

// handleJob fetches the city listing using the provider
func handleJob(
	ctx context.Context,
	info *workerInfo,
) {
	report, err := info.provider.Fetch(ctx, info.city)

	response := &workerResponse{
		error:  err,
		report: report,
		jobID:  info.jobID,
	}

	select {
	case <-ctx.Done():
	case info.resCh <- response:
	}
}
