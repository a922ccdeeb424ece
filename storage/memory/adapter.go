package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/sig-0/fxpoints/storage"
	"github.com/sig-0/fxpoints/storage/types"
)

type key struct {
	outlet, currency, side string
	asOf                   int64 // unix nanos
}

type bucket struct {
	outlet, currency, side string
}

type Storage struct {
	data map[key]types.QuoteRecord

	mu sync.RWMutex
}

func NewStorage() *Storage {
	return &Storage{
		data: make(map[key]types.QuoteRecord),
	}
}

func (s *Storage) SaveQuote(_ context.Context, q *types.QuoteRecord) error {
	k := key{
		outlet:   q.OutletID,
		currency: q.Currency.String(),
		side:     q.Side.String(),
		asOf:     q.AsOf.UTC().UnixNano(),
	}

	elem := *q
	elem.AsOf = elem.AsOf.UTC()
	elem.FetchedAt = elem.FetchedAt.UTC()

	s.mu.Lock()
	s.data[k] = elem // key is unique
	s.mu.Unlock()

	return nil
}

func (s *Storage) QuotesAsOf(
	_ context.Context,
	query *types.QuoteQuery,
	asOf time.Time,
) (*types.Page[*types.QuoteRecord], error) {
	cutoff := asOf.UTC()

	s.mu.RLock()

	bestByBucket := make(map[bucket]types.QuoteRecord)

	for _, v := range s.data {
		if !matches(query, &v) {
			continue
		}

		if v.AsOf.After(cutoff) {
			continue
		}

		b := bucket{
			outlet:   v.OutletID,
			currency: v.Currency.String(),
			side:     v.Side.String(),
		}

		cur, ok := bestByBucket[b]
		if !ok ||
			v.AsOf.After(cur.AsOf) ||
			(v.AsOf.Equal(cur.AsOf) && v.FetchedAt.After(cur.FetchedAt)) {
			bestByBucket[b] = v
		}
	}

	s.mu.RUnlock()

	out := make([]*types.QuoteRecord, 0, len(bestByBucket))
	for _, v := range bestByBucket {
		cp := v
		out = append(out, &cp)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].OutletID != out[j].OutletID {
			return out[i].OutletID < out[j].OutletID
		}

		if out[i].Currency != out[j].Currency {
			return out[i].Currency.String() < out[j].Currency.String()
		}

		return out[i].Side.String() < out[j].Side.String()
	})

	return storage.Paginate(out, query.Limit, query.Offset), nil
}

func (s *Storage) ListCities(_ context.Context) ([]string, error) {
	s.mu.RLock()

	seen := make(map[string]struct{})

	for _, v := range s.data {
		seen[v.City] = struct{}{}
	}

	s.mu.RUnlock()

	out := make([]string, 0, len(seen))

	for v := range seen {
		out = append(out, v)
	}

	sort.Strings(out)

	return out, nil
}

func (s *Storage) ListCurrencies(_ context.Context) ([]types.Currency, error) {
	s.mu.RLock()

	seen := make(map[string]struct{})

	for k := range s.data {
		seen[k.currency] = struct{}{}
	}

	s.mu.RUnlock()

	out := make([]types.Currency, 0, len(seen))

	for v := range seen {
		out = append(out, types.Currency(v))
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].String() < out[j].String()
	})

	return out, nil
}

// matches checks the record against the optional query filters
func matches(query *types.QuoteQuery, v *types.QuoteRecord) bool {
	if query.OutletID != "" && v.OutletID != query.OutletID {
		return false
	}

	if query.City != nil && v.City != *query.City {
		return false
	}

	if query.Currency != nil && v.Currency != *query.Currency {
		return false
	}

	if query.Side != nil && v.Side != *query.Side {
		return false
	}

	return true
}
