package mock

import (
	"context"
	"time"

	"github.com/sig-0/fxpoints/storage/types"
)

type (
	SaveQuoteDelegate      func(context.Context, *types.QuoteRecord) error
	QuotesAsOfDelegate     func(context.Context, *types.QuoteQuery, time.Time) (*types.Page[*types.QuoteRecord], error)
	ListCitiesDelegate     func(context.Context) ([]string, error)
	ListCurrenciesDelegate func(context.Context) ([]types.Currency, error)
)

type Storage struct {
	SaveQuoteFn      SaveQuoteDelegate
	QuotesAsOfFn     QuotesAsOfDelegate
	ListCitiesFn     ListCitiesDelegate
	ListCurrenciesFn ListCurrenciesDelegate
}

func (m *Storage) SaveQuote(ctx context.Context, quote *types.QuoteRecord) error {
	if m.SaveQuoteFn != nil {
		return m.SaveQuoteFn(ctx, quote)
	}

	return nil
}

func (m *Storage) QuotesAsOf(
	ctx context.Context,
	query *types.QuoteQuery,
	at time.Time,
) (*types.Page[*types.QuoteRecord], error) {
	if m.QuotesAsOfFn != nil {
		return m.QuotesAsOfFn(ctx, query, at)
	}

	return nil, nil
}

func (m *Storage) ListCities(ctx context.Context) ([]string, error) {
	if m.ListCitiesFn != nil {
		return m.ListCitiesFn(ctx)
	}

	return nil, nil
}

func (m *Storage) ListCurrencies(ctx context.Context) ([]types.Currency, error) {
	if m.ListCurrenciesFn != nil {
		return m.ListCurrenciesFn(ctx)
	}

	return nil, nil
}
