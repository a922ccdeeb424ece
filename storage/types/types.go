package types

import "time"

type Currency string

const (
	CurrencyKZT Currency = "KZT"
	CurrencyUSD Currency = "USD"
	CurrencyEUR Currency = "EUR"
	CurrencyRUB Currency = "RUB"
)

func (c Currency) String() string {
	return string(c)
}

// Valid reports if the currency code is 3-4 upper-case ASCII letters
// (ISO-like codes, plus instruments such as GOLD)
func (c Currency) Valid() bool {
	if len(c) < 3 || len(c) > 4 {
		return false
	}

	for i := 0; i < len(c); i++ {
		if c[i] < 'A' || c[i] > 'Z' {
			return false
		}
	}

	return true
}

// Side is the quote side, from the outlet's point of view
type Side string

const (
	SideBUY  Side = "BUY"
	SideSELL Side = "SELL"
)

func (s Side) String() string {
	return string(s)
}

type Source string

const (
	SourceKurs Source = "Kurs.kz" // https://kurs.kz/
)

func (s Source) String() string {
	return string(s)
}

// QuoteRecord is a single archived price observation
type QuoteRecord struct {
	AsOf      time.Time `json:"as_of"`
	FetchedAt time.Time `json:"fetched_at"`
	OutletID  string    `json:"outlet_id"`
	City      string    `json:"city"`
	Currency  Currency  `json:"currency"`
	Side      Side      `json:"side"`
	Source    Source    `json:"source"`
	Price     float64   `json:"price"`
}

// QuoteQuery filters archived quotes
type QuoteQuery struct {
	Currency *Currency `json:"currency"`
	Side     *Side     `json:"side"`
	City     *string   `json:"city"`
	OutletID string    `json:"outlet_id"`
	Offset   int64     `json:"offset"`
	Limit    int32     `json:"limit"`
}

// Page wraps the results for pagination
type Page[T any] struct {
	Results []T   `json:"results"`
	Total   int64 `json:"total"`
}
