package storage

import (
	"context"
	"time"

	"github.com/sig-0/fxpoints/storage/types"
)

// Storage is an abstraction over the archived outlet quotes
type Storage interface {
	// SaveQuote saves the given quote observation
	SaveQuote(context.Context, *types.QuoteRecord) error

	// QuotesAsOf fetches the latest outlet quotes as of the given time
	QuotesAsOf(context.Context, *types.QuoteQuery, time.Time) (*types.Page[*types.QuoteRecord], error)

	// ListCities lists all cities with archived quotes
	ListCities(context.Context) ([]string, error)

	// ListCurrencies lists all archived currencies
	ListCurrencies(context.Context) ([]types.Currency, error)
}
