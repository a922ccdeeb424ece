package ingest

import (
	"context"
	"time"

	"github.com/sig-0/fxpoints/provider/kurs"
	"github.com/sig-0/fxpoints/storage/types"
)

// archive saves the buy and sell price of every fetched quote.
// Failures are logged, and never fail the refresh
func (o *Orchestrator) archive(
	ctx context.Context,
	city *kurs.City,
	outlets []*types.Outlet,
	fetchedAt time.Time,
) {
	if o.storage == nil {
		return
	}

	saveCtx, cancelFn := context.WithTimeout(context.WithoutCancel(ctx), archiveTimeout)
	defer cancelFn()

	var saved, failed int

	for _, record := range quoteRecords(city, outlets, fetchedAt) {
		if err := o.storage.SaveQuote(saveCtx, record); err != nil {
			failed++

			o.logger.Error(
				"unable to save quote",
				"outlet", record.OutletID,
				"currency", record.Currency,
				"side", record.Side,
				"err", err,
			)

			if saveCtx.Err() != nil {
				break
			}

			continue
		}

		saved++
	}

	o.logger.Debug(
		"archived quotes",
		"city", city.Name,
		"saved", saved,
		"failed", failed,
	)
}

// quoteRecords flattens the outlets into archive records,
// one per outlet, currency and side
func quoteRecords(city *kurs.City, outlets []*types.Outlet, fetchedAt time.Time) []*types.QuoteRecord {
	if fetchedAt.IsZero() {
		fetchedAt = time.Now().UTC()
	}

	out := make([]*types.QuoteRecord, 0, len(outlets)*2)

	for _, outlet := range outlets {
		for _, q := range outlet.Quotes {
			for _, side := range []types.Side{types.SideBUY, types.SideSELL} {
				out = append(out, &types.QuoteRecord{
					OutletID:  outlet.ID,
					City:      city.Name,
					Currency:  q.Currency,
					Side:      side,
					Source:    outlet.Source,
					Price:     q.Price(side),
					AsOf:      outlet.ActualTime,
					FetchedAt: fetchedAt,
				})
			}
		}
	}

	return out
}
