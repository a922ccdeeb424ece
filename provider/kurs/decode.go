package kurs

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/sig-0/fxpoints/geo"
	"github.com/sig-0/fxpoints/storage/types"
)

var errInvalidQuotes = errors.New("currency data is not an object")

// maxUnixSeconds is 9999-12-31T23:59:59Z
const maxUnixSeconds = 253402300799

// Decoded is the result of decoding a single listing literal
type Decoded struct {
	// Outlets are the valid outlets, in source order
	Outlets []*types.Outlet

	// Dropped is the number of records excluded for
	// being malformed, or missing a required field
	Dropped int
}

// rawRecord is a single listing entry, as embedded in the page
type rawRecord struct {
	ID          *int64        `json:"id"`
	Name        *string       `json:"name"`
	ActualTime  *float64      `json:"actualTime"`
	Lat         *float64      `json:"lat"`
	Lng         *float64      `json:"lng"`
	Workmodes   *rawWorkmodes `json:"workmodes"`
	City        string        `json:"city"`
	MainAddress string        `json:"mainaddress"`
	Address     string        `json:"address"`
	Phones      []string      `json:"phones"`
	Data        quoteList     `json:"data"`
}

type rawWorkmodes struct {
	Mon     []string `json:"mon"`
	Tue     []string `json:"tue"`
	Wed     []string `json:"wed"`
	Thu     []string `json:"thu"`
	Fri     []string `json:"fri"`
	Sat     []string `json:"sat"`
	Sun     []string `json:"sun"`
	Holyday []string `json:"holyday"`
	Nonstop bool     `json:"nonstop"`
	Closed  bool     `json:"closed"`
	Worknow bool     `json:"worknow"`
}

// Decode parses a single listing literal into outlets.
// The literal fails as a whole only if it isn't a JSON array
func Decode(literal string) (*Decoded, error) {
	var entries []json.RawMessage

	if err := json.Unmarshal([]byte(literal), &entries); err != nil {
		return nil, fmt.Errorf("unable to decode listing literal: %w", err)
	}

	out := &Decoded{
		Outlets: make([]*types.Outlet, 0, len(entries)),
	}

	for _, entry := range entries {
		var record rawRecord

		if err := json.Unmarshal(entry, &record); err != nil {
			out.Dropped++

			continue
		}

		outlet, ok := record.toOutlet()
		if !ok {
			out.Dropped++

			continue
		}

		out.Outlets = append(out.Outlets, outlet)
	}

	return out, nil
}

// toOutlet maps the raw record to the domain outlet,
// if all the required fields are present and valid
func (r *rawRecord) toOutlet() (*types.Outlet, bool) {
	if r.ID == nil || r.Name == nil || r.Lat == nil || r.Lng == nil || r.ActualTime == nil {
		return nil, false
	}

	name := strings.TrimSpace(*r.Name)
	if name == "" {
		return nil, false
	}

	coordinate := geo.Coordinate{
		Lat: *r.Lat,
		Lng: *r.Lng,
	}

	if !coordinate.Valid() {
		return nil, false
	}

	actualTime, ok := unixToTime(*r.ActualTime)
	if !ok {
		return nil, false
	}

	phones := make([]string, 0, len(r.Phones))

	for _, phone := range r.Phones {
		if p := strings.TrimSpace(phone); p != "" {
			phones = append(phones, p)
		}
	}

	return &types.Outlet{
		ID:          strconv.FormatInt(*r.ID, 10),
		Name:        name,
		City:        strings.TrimSpace(r.City),
		MainAddress: strings.TrimSpace(r.MainAddress),
		Address:     strings.TrimSpace(r.Address),
		Phones:      phones,
		ActualTime:  actualTime,
		Coordinate:  coordinate,
		Quotes:      []types.Quote(r.Data),
		Schedule:    r.Workmodes.toSchedule(),
		Kind:        types.OutletKindExchanger,
		Source:      types.SourceKurs,
	}, true
}

func (w *rawWorkmodes) toSchedule() types.Schedule {
	if w == nil {
		return types.Schedule{}
	}

	return types.Schedule{
		Mon:        w.Mon,
		Tue:        w.Tue,
		Wed:        w.Wed,
		Thu:        w.Thu,
		Fri:        w.Fri,
		Sat:        w.Sat,
		Sun:        w.Sun,
		Holiday:    w.Holyday,
		AlwaysOpen: w.Nonstop,
		Closed:     w.Closed,
		OpenNow:    w.Worknow,
	}
}

// quoteList is the currency mapping of a record, kept in source order
type quoteList []types.Quote

func (q *quoteList) UnmarshalJSON(b []byte) error {
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		*q = nil

		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(b))

	tok, err := dec.Token()
	if err != nil {
		return err
	}

	delim, ok := tok.(json.Delim)
	if !ok {
		return errInvalidQuotes
	}

	// An empty currency map may be encoded as an empty array
	if delim == '[' {
		if dec.More() {
			return errInvalidQuotes
		}

		*q = quoteList{}

		return nil
	}

	if delim != '{' {
		return errInvalidQuotes
	}

	var (
		out  = make(quoteList, 0, 8)
		seen = make(map[types.Currency]struct{}, 8)
	)

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}

		key, _ := keyTok.(string)

		var values json.RawMessage
		if err = dec.Decode(&values); err != nil {
			return err
		}

		quote, ok := parseQuote(key, values)
		if !ok {
			continue
		}

		if _, dup := seen[quote.Currency]; dup {
			continue
		}

		seen[quote.Currency] = struct{}{}
		out = append(out, quote)
	}

	// Consume the closing delimiter
	if _, err = dec.Token(); err != nil {
		return err
	}

	*q = out

	return nil
}

// parseQuote parses a single [buy, sell, ...] currency entry.
// Entries with a missing or zero price are not traded, and are skipped
func parseQuote(code string, raw json.RawMessage) (types.Quote, bool) {
	currency := types.Currency(strings.ToUpper(strings.TrimSpace(code)))
	if !currency.Valid() {
		return types.Quote{}, false
	}

	var values []json.RawMessage
	if err := json.Unmarshal(raw, &values); err != nil || len(values) < 2 {
		return types.Quote{}, false
	}

	buy, ok := parsePrice(values[0])
	if !ok {
		return types.Quote{}, false
	}

	sell, ok := parsePrice(values[1])
	if !ok {
		return types.Quote{}, false
	}

	return types.Quote{
		Currency: currency,
		Buy:      buy,
		Sell:     sell,
	}, true
}

// parsePrice parses a JSON number (or numeric string) price,
// which needs to be finite and strictly positive
func parsePrice(raw json.RawMessage) (float64, bool) {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return 0, false
	}

	var price float64

	switch val := v.(type) {
	case float64:
		price = val
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return 0, false
		}

		price = parsed
	default:
		return 0, false
	}

	if math.IsNaN(price) || math.IsInf(price, 0) || price <= 0 {
		return 0, false
	}

	return price, true
}

// unixToTime converts the (possibly fractional) epoch seconds to UTC time.
// Times past the end of year 9999 are rejected
func unixToTime(seconds float64) (time.Time, bool) {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds < 0 || seconds > maxUnixSeconds {
		return time.Time{}, false
	}

	whole, frac := math.Modf(seconds)

	return time.Unix(int64(whole), int64(frac*1e9)).UTC(), true
}
