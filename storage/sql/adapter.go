package sql

import (
	"context"
	"fmt"
	"math"
	"math/big"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/sig-0/fxpoints/storage"
	"github.com/sig-0/fxpoints/storage/types"
)

const saveQuoteQuery = `
INSERT INTO outlet_quotes (outlet_id, city, currency, side, source, price, as_of, fetched_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT ON CONSTRAINT outlet_quotes_unique
DO UPDATE SET price = EXCLUDED.price, city = EXCLUDED.city, fetched_at = EXCLUDED.fetched_at`

// quotesAsOfQuery picks the latest observation per (outlet, currency, side)
// at or before the cutoff. NULL filters match everything
const quotesAsOfQuery = `
WITH latest AS (
    SELECT DISTINCT ON (outlet_id, currency, side)
        outlet_id, city, currency, side, source, price, as_of, fetched_at
    FROM outlet_quotes
    WHERE as_of <= $1
      AND ($2::text IS NULL OR outlet_id = $2)
      AND ($3::text IS NULL OR city = $3)
      AND ($4::text IS NULL OR currency = $4)
      AND ($5::text IS NULL OR side = $5)
    ORDER BY outlet_id, currency, side, as_of DESC, fetched_at DESC
)
SELECT outlet_id, city, currency, side, source, price, as_of, fetched_at,
       COUNT(*) OVER () AS total
FROM latest
ORDER BY outlet_id, currency, side
LIMIT $6 OFFSET $7`

const (
	listCitiesQuery     = `SELECT DISTINCT city FROM outlet_quotes ORDER BY city`
	listCurrenciesQuery = `SELECT DISTINCT currency FROM outlet_quotes ORDER BY currency`
)

// DB is the subset of the pgx connection API the storage uses
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

type Storage struct {
	db DB
}

func NewStorage(db DB) *Storage {
	return &Storage{
		db: db,
	}
}

func (s *Storage) SaveQuote(
	ctx context.Context,
	q *types.QuoteRecord,
) error {
	_, err := s.db.Exec(
		ctx,
		saveQuoteQuery,
		q.OutletID,
		q.City,
		q.Currency.String(),
		q.Side.String(),
		q.Source.String(),
		floatToNumeric(q.Price),
		timeToTimestampz(q.AsOf),
		timeToTimestampz(q.FetchedAt),
	)
	if err != nil {
		return fmt.Errorf("unable to save quote: %w", err)
	}

	return nil
}

func (s *Storage) QuotesAsOf(
	ctx context.Context,
	query *types.QuoteQuery,
	t time.Time,
) (*types.Page[*types.QuoteRecord], error) {
	limit := query.Limit
	if limit <= 0 {
		limit = storage.DefaultLimit
	}

	if limit > storage.MaxLimit {
		limit = storage.MaxLimit
	}

	offset := query.Offset
	if offset < 0 {
		offset = 0
	}

	rows, err := s.db.Query(
		ctx,
		quotesAsOfQuery,
		timeToTimestampz(t),
		optionalText(query.OutletID),
		optionalText(deref(query.City)),
		optionalText(deref(query.Currency).String()),
		optionalText(deref(query.Side).String()),
		limit,
		offset,
	)
	if err != nil {
		return nil, fmt.Errorf("unable to fetch quotes: %w", err)
	}

	defer rows.Close()

	var (
		items = make([]*types.QuoteRecord, 0)
		total int64
	)

	for rows.Next() {
		var (
			outletID, city, currency, side, source string
			price                                  pgtype.Numeric
			asOf, fetchedAt                        pgtype.Timestamptz
		)

		if err = rows.Scan(
			&outletID,
			&city,
			&currency,
			&side,
			&source,
			&price,
			&asOf,
			&fetchedAt,
			&total,
		); err != nil {
			return nil, fmt.Errorf("unable to scan quote: %w", err)
		}

		if !price.Valid || price.Int == nil {
			continue
		}

		items = append(items, &types.QuoteRecord{
			OutletID:  outletID,
			City:      city,
			Currency:  types.Currency(currency),
			Side:      types.Side(side),
			Source:    types.Source(source),
			Price:     numericToFloat(price),
			AsOf:      timestampzToTime(asOf),
			FetchedAt: timestampzToTime(fetchedAt),
		})
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("unable to fetch quotes: %w", err)
	}

	if len(items) == 0 {
		return &types.Page[*types.QuoteRecord]{
			Results: nil,
			Total:   total,
		}, nil // valid case
	}

	return &types.Page[*types.QuoteRecord]{
		Results: items,
		Total:   total,
	}, nil
}

func (s *Storage) ListCities(ctx context.Context) ([]string, error) {
	results, err := s.listStrings(ctx, listCitiesQuery)
	if err != nil {
		return nil, fmt.Errorf("unable to fetch cities: %w", err)
	}

	return results, nil
}

func (s *Storage) ListCurrencies(ctx context.Context) ([]types.Currency, error) {
	results, err := s.listStrings(ctx, listCurrenciesQuery)
	if err != nil {
		return nil, fmt.Errorf("unable to fetch currencies: %w", err)
	}

	if len(results) == 0 {
		return nil, nil
	}

	out := make([]types.Currency, 0, len(results))

	for _, code := range results {
		out = append(out, types.Currency(code))
	}

	return out, nil
}

// listStrings runs a single text column query
func (s *Storage) listStrings(ctx context.Context, query string) ([]string, error) {
	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}

	results, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, err
	}

	if len(results) == 0 {
		return nil, nil
	}

	return results, nil
}

func deref[T any](v *T) T {
	var zero T
	if v == nil {
		return zero
	}

	return *v
}

// optionalText maps an empty filter to SQL NULL
func optionalText(value string) pgtype.Text {
	return pgtype.Text{
		String: value,
		Valid:  value != "",
	}
}

// floatToNumeric converts the float value to postgres numeric
func floatToNumeric(value float64) pgtype.Numeric {
	// round to 4dp and store as integer with exponent -4
	i := int64(math.Round(value * 1e4))

	return pgtype.Numeric{
		Int:   big.NewInt(i),
		Exp:   -4,
		Valid: true,
	}
}

// numericToFloat converts the postgres value to float
func numericToFloat(value pgtype.Numeric) float64 {
	f, _ := new(big.Rat).SetInt(value.Int).Float64()

	if value.Exp > 0 {
		f *= math.Pow10(int(value.Exp))
	} else if value.Exp < 0 {
		f /= math.Pow10(int(-value.Exp))
	}

	return f
}

// timeToTimestampz converts the time value to postgres timestamp
func timeToTimestampz(t time.Time) pgtype.Timestamptz {
	return pgtype.Timestamptz{
		Time:  t.UTC(),
		Valid: true,
	}
}

// timestampzToTime converts the postgres timestamp value to time
func timestampzToTime(ts pgtype.Timestamptz) time.Time {
	if !ts.Valid {
		return time.Time{}
	}

	return ts.Time.UTC()
}
