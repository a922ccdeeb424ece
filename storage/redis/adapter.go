package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sig-0/fxpoints/storage"
	"github.com/sig-0/fxpoints/storage/types"
)

const (
	keyPrefix     = "fxpoints"
	seriesPrefix  = keyPrefix + ":quotes:"
	seriesIndex   = keyPrefix + ":series"
	citiesKey     = keyPrefix + ":cities"
	currenciesKey = keyPrefix + ":currencies"
)

var errInvalidSeriesKey = errors.New("invalid series key")

// series identifies a single (outlet, currency, side) price history
type series struct {
	outletID string
	currency types.Currency
	side     types.Side
}

// Storage archives quotes as sorted sets, one per series,
// scored by the observation time in unix milliseconds
type Storage struct {
	client redis.UniversalClient
}

func NewStorage(client redis.UniversalClient) *Storage {
	return &Storage{
		client: client,
	}
}

func (s *Storage) SaveQuote(ctx context.Context, q *types.QuoteRecord) error {
	elem := *q
	elem.AsOf = elem.AsOf.UTC()
	elem.FetchedAt = elem.FetchedAt.UTC()

	data, err := json.Marshal(elem)
	if err != nil {
		return fmt.Errorf("unable to marshal quote: %w", err)
	}

	var (
		key = seriesKey(series{
			outletID: q.OutletID,
			currency: q.Currency,
			side:     q.Side,
		})
		score    = scoreOf(elem.AsOf)
		scoreStr = strconv.FormatInt(score, 10)
	)

	// An observation is unique per series and time, so the previous
	// member at the same score is replaced
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZRemRangeByScore(ctx, key, scoreStr, scoreStr)
		pipe.ZAdd(ctx, key, redis.Z{
			Score:  float64(score),
			Member: data,
		})
		pipe.SAdd(ctx, seriesIndex, key)
		pipe.SAdd(ctx, citiesKey, elem.City)
		pipe.SAdd(ctx, currenciesKey, elem.Currency.String())

		return nil
	})
	if err != nil {
		return fmt.Errorf("unable to save quote: %w", err)
	}

	return nil
}

func (s *Storage) QuotesAsOf(
	ctx context.Context,
	query *types.QuoteQuery,
	asOf time.Time,
) (*types.Page[*types.QuoteRecord], error) {
	keys, err := s.client.SMembers(ctx, seriesIndex).Result()
	if err != nil {
		return nil, fmt.Errorf("unable to fetch series index: %w", err)
	}

	keys = filterSeries(keys, query)
	if len(keys) == 0 {
		return storage.Paginate[*types.QuoteRecord](nil, query.Limit, query.Offset), nil
	}

	maxScore := strconv.FormatInt(scoreOf(asOf.UTC()), 10)

	pipe := s.client.Pipeline()
	cmds := make([]*redis.StringSliceCmd, 0, len(keys))

	for _, key := range keys {
		cmds = append(cmds, pipe.ZRevRangeByScore(ctx, key, &redis.ZRangeBy{
			Min:   "-inf",
			Max:   maxScore,
			Count: 1,
		}))
	}

	if _, err = pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("unable to fetch quotes: %w", err)
	}

	out := make([]*types.QuoteRecord, 0, len(cmds))

	for i, cmd := range cmds {
		members, err := cmd.Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("unable to fetch quotes from %s: %w", keys[i], err)
		}

		if len(members) == 0 {
			continue
		}

		var record types.QuoteRecord
		if err = json.Unmarshal([]byte(members[0]), &record); err != nil {
			return nil, fmt.Errorf("unable to unmarshal quote from %s: %w", keys[i], err)
		}

		if query.City != nil && record.City != *query.City {
			continue
		}

		out = append(out, &record)
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

func (s *Storage) ListCities(ctx context.Context) ([]string, error) {
	cities, err := s.client.SMembers(ctx, citiesKey).Result()
	if err != nil {
		return nil, fmt.Errorf("unable to fetch cities: %w", err)
	}

	sort.Strings(cities)

	return cities, nil
}

func (s *Storage) ListCurrencies(ctx context.Context) ([]types.Currency, error) {
	codes, err := s.client.SMembers(ctx, currenciesKey).Result()
	if err != nil {
		return nil, fmt.Errorf("unable to fetch currencies: %w", err)
	}

	sort.Strings(codes)

	out := make([]types.Currency, 0, len(codes))
	for _, code := range codes {
		out = append(out, types.Currency(code))
	}

	return out, nil
}

// filterSeries drops the series keys that can't match the query
func filterSeries(keys []string, query *types.QuoteQuery) []string {
	out := make([]string, 0, len(keys))

	for _, key := range keys {
		sr, err := parseSeriesKey(key)
		if err != nil {
			continue
		}

		if query.OutletID != "" && sr.outletID != query.OutletID {
			continue
		}

		if query.Currency != nil && sr.currency != *query.Currency {
			continue
		}

		if query.Side != nil && sr.side != *query.Side {
			continue
		}

		out = append(out, key)
	}

	return out
}

func seriesKey(sr series) string {
	return fmt.Sprintf("%s%s:%s:%s", seriesPrefix, sr.outletID, sr.currency, sr.side)
}

// parseSeriesKey reverses seriesKey. The outlet id may itself contain
// separators, so currency and side are taken from the end
func parseSeriesKey(key string) (series, error) {
	rest, ok := strings.CutPrefix(key, seriesPrefix)
	if !ok {
		return series{}, errInvalidSeriesKey
	}

	sideIdx := strings.LastIndexByte(rest, ':')
	if sideIdx <= 0 {
		return series{}, errInvalidSeriesKey
	}

	side := rest[sideIdx+1:]
	rest = rest[:sideIdx]

	currencyIdx := strings.LastIndexByte(rest, ':')
	if currencyIdx <= 0 {
		return series{}, errInvalidSeriesKey
	}

	sr := series{
		outletID: rest[:currencyIdx],
		currency: types.Currency(rest[currencyIdx+1:]),
		side:     types.Side(side),
	}

	if !sr.currency.Valid() || (sr.side != types.SideBUY && sr.side != types.SideSELL) {
		return series{}, errInvalidSeriesKey
	}

	return sr, nil
}

func scoreOf(t time.Time) int64 {
	return t.UnixMilli()
}
