package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sig-0/fxpoints/geo"
	"github.com/sig-0/fxpoints/ingest"
	"github.com/sig-0/fxpoints/rank"
	"github.com/sig-0/fxpoints/storage"
	"github.com/sig-0/fxpoints/storage/types"
)

const maxLocationBody = 1 << 12

var (
	errUnableToFetchQuotes     = errors.New("unable to fetch quotes")
	errUnableToFetchCurrencies = errors.New("unable to fetch currencies")
	errUnableToRefresh         = errors.New("unable to refresh the listing")
	errListingUnavailable      = errors.New("listing temporarily unavailable")

	errUnknownCity   = errors.New("unknown city")
	errUnknownOutlet = errors.New("unknown outlet")

	errInvalidLimit      = errors.New("invalid limit")
	errInvalidOffset     = errors.New("invalid offset")
	errInvalidType       = errors.New("invalid type")
	errInvalidCurrency   = errors.New("invalid currency")
	errInvalidCoordinate = errors.New("invalid coordinate (lat and lng are both required)")
	errInvalidLocation   = errors.New("invalid location body")
)

func (s *Server) Cities(w http.ResponseWriter, r *http.Request) {
	catalog := s.service.Catalog()

	resp := &CitiesResponse{
		Results: catalog.All(),
		Default: catalog.Default().Name,
	}

	// The archive listing is best-effort, the catalog is always served
	archived, err := s.storage.ListCities(r.Context())
	if err != nil {
		s.logger.Debug(
			"unable to fetch archived cities",
			"err", err,
		)
	}

	resp.Archived = archived

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) Currencies(w http.ResponseWriter, r *http.Request) {
	items, err := s.storage.ListCurrencies(r.Context())
	if err != nil {
		s.logger.Debug(
			"unable to fetch currencies",
			"err", err,
		)

		writeError(
			w,
			http.StatusInternalServerError,
			errUnableToFetchCurrencies,
		)

		return
	}

	resp := &CurrenciesResponse{
		Results: items,
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) Outlets(w http.ResponseWriter, r *http.Request) {
	var (
		cityParam = chi.URLParam(r, "city")

		query       = r.URL.Query()
		searchParam = query.Get("q")
		latParam    = query.Get("lat")
		lngParam    = query.Get("lng")
	)

	// Parse the ranking params
	params, err := rank.ParseParams(query.Get("sort"), query.Get("currency"), query.Get("side"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)

		return
	}

	// Parse the origin (defaults to the latest tracked position)
	origin, err := parseOrigin(latParam, lngParam)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)

		return
	}

	if origin == nil && s.tracker != nil {
		if pos, ok := s.tracker.Latest(); ok {
			origin = &pos.Coordinate
		}
	}

	params.Origin = origin

	snap, err := s.service.Snapshot(cityParam)
	if err != nil {
		s.writeServiceError(w, err)

		return
	}

	var status ingest.Status

	// Load the city on first view
	if !snap.Loaded() {
		result, err := s.service.RefreshAll(r.Context(), cityParam)
		if err != nil {
			s.writeServiceError(w, err)

			return
		}

		if snap, err = s.service.Snapshot(cityParam); err != nil {
			s.writeServiceError(w, err)

			return
		}

		status = result.Status
	}

	entries := rank.Project(snap.Outlets, searchParam, params)

	resp := &OutletsResponse{
		City:      snap.City,
		UpdatedAt: snap.UpdatedAt,
		Version:   snap.Version,
		Status:    status,
		Results:   entries,
		Total:     len(entries),
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) Outlet(w http.ResponseWriter, r *http.Request) {
	var (
		cityParam = chi.URLParam(r, "city")
		idParam   = strings.TrimSpace(chi.URLParam(r, "id"))
	)

	snap, err := s.service.Snapshot(cityParam)
	if err != nil {
		s.writeServiceError(w, err)

		return
	}

	outlet, ok := snap.Get(idParam)
	if !ok {
		writeError(w, http.StatusNotFound, errUnknownOutlet)

		return
	}

	// Quote order is not stable upstream
	view := outlet.Clone()
	view.Quotes = types.SortQuotes(outlet.Quotes)

	resp := &OutletResponse{
		Outlet:             view,
		MinutesSinceUpdate: outlet.MinutesSinceUpdate(time.Now()),
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) RefreshCity(w http.ResponseWriter, r *http.Request) {
	cityParam := chi.URLParam(r, "city")

	result, err := s.service.RefreshAll(r.Context(), cityParam)
	if err != nil {
		s.writeServiceError(w, err)

		return
	}

	resp := &RefreshCityResponse{
		City:           result.City,
		Status:         result.Status,
		UpdatedAt:      result.UpdatedAt,
		Version:        result.Version,
		Outlets:        len(result.Outlets),
		Literals:       result.Literals,
		FailedLiterals: result.FailedLiterals,
		Dropped:        result.Dropped,
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) RefreshOutlet(w http.ResponseWriter, r *http.Request) {
	idParam := strings.TrimSpace(chi.URLParam(r, "id"))

	outcome, err := s.service.RefreshOne(r.Context(), idParam)
	if err != nil {
		s.writeServiceError(w, err)

		return
	}

	status := http.StatusOK
	if outcome == ingest.PatchBusy {
		// Another refresh is in flight, which is expected
		status = http.StatusAccepted
	}

	resp := &RefreshOutletResponse{
		ID:      idParam,
		Outcome: outcome,
	}

	writeJSON(w, status, resp)
}

func (s *Server) Quotes(w http.ResponseWriter, r *http.Request) {
	var (
		idParam = strings.TrimSpace(chi.URLParam(r, "id"))

		asOfParam     = r.URL.Query().Get("as_of")
		limitParam    = r.URL.Query().Get("limit")
		offsetParam   = r.URL.Query().Get("offset")
		currencyParam = r.URL.Query().Get("currency")
		typeParam     = r.URL.Query().Get("type")
	)

	// Parse the effective date (defaults to now)
	asOf, err := parseAsOf(asOfParam)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)

		return
	}

	// Parse the pagination settings
	limit, offset, err := parseLimitOffset(limitParam, offsetParam)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)

		return
	}

	// Parse the currency and side (optional)
	currency, side, err := parseCurrencyAndType(currencyParam, typeParam)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)

		return
	}

	q := &types.QuoteQuery{
		OutletID: idParam,
		Currency: currency,
		Side:     side,
		Limit:    limit,
		Offset:   offset,
	}

	page, err := s.storage.QuotesAsOf(r.Context(), q, asOf)
	if err != nil {
		s.logger.Debug(
			"unable to fetch quotes",
			"outlet", idParam,
			"err", err,
		)

		writeError(
			w,
			http.StatusInternalServerError,
			errUnableToFetchQuotes,
		)

		return
	}

	writeJSON(w, http.StatusOK, page)
}

func (s *Server) UpdateLocation(w http.ResponseWriter, r *http.Request) {
	var req LocationRequest

	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxLocationBody)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, errInvalidLocation)

		return
	}

	coordinate := geo.Coordinate{Lat: req.Lat, Lng: req.Lng}
	if !coordinate.Valid() {
		writeError(w, http.StatusBadRequest, errInvalidCoordinate)

		return
	}

	s.tracker.Update(coordinate, req.City)

	pos, _ := s.tracker.Latest()

	writeJSON(w, http.StatusOK, &LocationResponse{Position: pos})
}

// writeServiceError maps the outlet service errors to responses
func (s *Server) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ingest.ErrUnknownCity):
		writeError(w, http.StatusNotFound, errUnknownCity)
	case errors.Is(err, ingest.ErrUnknownOutlet):
		writeError(w, http.StatusNotFound, errUnknownOutlet)
	case errors.Is(err, ingest.ErrTransient), errors.Is(err, ingest.ErrNoData):
		s.logger.Warn(
			"listing unavailable",
			"err", err,
		)

		writeJSON(w, http.StatusBadGateway, &ErrorResponse{
			Error: errListingUnavailable.Error(),
			Retry: true,
		})
	default:
		s.logger.Error(
			"unable to refresh the listing",
			"err", err,
		)

		writeError(w, http.StatusInternalServerError, errUnableToRefresh)
	}
}

func parseOrigin(latRaw, lngRaw string) (*geo.Coordinate, error) {
	latRaw, lngRaw = strings.TrimSpace(latRaw), strings.TrimSpace(lngRaw)

	if latRaw == "" && lngRaw == "" {
		return nil, nil //nolint:nilnil // no origin
	}

	if latRaw == "" || lngRaw == "" {
		return nil, errInvalidCoordinate
	}

	lat, err := strconv.ParseFloat(latRaw, 64)
	if err != nil {
		return nil, errInvalidCoordinate
	}

	lng, err := strconv.ParseFloat(lngRaw, 64)
	if err != nil {
		return nil, errInvalidCoordinate
	}

	c := &geo.Coordinate{Lat: lat, Lng: lng}
	if !c.Valid() {
		return nil, errInvalidCoordinate
	}

	return c, nil
}

func parseAsOf(asOfRaw string) (time.Time, error) {
	v := strings.TrimSpace(asOfRaw)
	if v == "" {
		return time.Now().UTC(), nil // default is now
	}

	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}, errors.New("invalid as_of (must be RFC3339 UTC)")
	}

	return t.UTC(), nil
}

func parseLimitOffset(limitRaw, offsetRaw string) (int32, int64, error) {
	limit := storage.DefaultLimit

	if v := strings.TrimSpace(limitRaw); v != "" {
		n, err := strconv.ParseInt(v, 10, 32)
		if err != nil || n < 0 {
			return 0, 0, errInvalidLimit
		}

		limit = int32(n)
	}

	if limit == 0 {
		limit = storage.DefaultLimit
	}

	if limit > storage.MaxLimit {
		limit = storage.MaxLimit
	}

	var offset int64

	if v := strings.TrimSpace(offsetRaw); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n < 0 {
			return 0, 0, errInvalidOffset
		}

		offset = n
	}

	return limit, offset, nil
}

func parseCurrencyAndType(currencyRaw, typeRaw string) (*types.Currency, *types.Side, error) {
	var currency *types.Currency

	if v := strings.TrimSpace(currencyRaw); v != "" {
		c := types.Currency(strings.ToUpper(v))
		if !c.Valid() {
			return nil, nil, errInvalidCurrency
		}

		currency = &c
	}

	var side *types.Side

	if v := strings.TrimSpace(typeRaw); v != "" {
		sd := types.Side(strings.ToUpper(v))

		switch sd {
		case types.SideBUY, types.SideSELL:
			side = &sd
		default:
			return nil, nil, errInvalidType
		}
	}

	return currency, side, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	_ = json.NewEncoder(w).Encode(v) //nolint:errcheck // Fine to ignore
}

func writeError(w http.ResponseWriter, status int, err error) {
	resp := &ErrorResponse{
		Error: err.Error(),
	}

	writeJSON(w, status, resp)
}
