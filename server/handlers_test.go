package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sig-0/fxpoints/geo"
	"github.com/sig-0/fxpoints/ingest"
	"github.com/sig-0/fxpoints/provider/kurs"
	"github.com/sig-0/fxpoints/rank"
	"github.com/sig-0/fxpoints/server/config"
	"github.com/sig-0/fxpoints/storage/mock"
	"github.com/sig-0/fxpoints/storage/types"
	"github.com/sig-0/fxpoints/workset"
)

var (
	testAlmaty = &kurs.City{
		Name:   "Almaty",
		Query:  "almaty",
		Center: geo.Coordinate{Lat: 43.238949, Lng: 76.889709},
	}

	testNow = time.Now().UTC().Truncate(time.Minute)
)

func testCatalog(t *testing.T) *kurs.Catalog {
	t.Helper()

	catalog, err := kurs.NewCatalog([]*kurs.City{testAlmaty}, testAlmaty.Name)
	require.NoError(t, err)

	return catalog
}

func testOutlets() []*types.Outlet {
	return []*types.Outlet{
		{
			ID:         "1",
			Name:       "Kurs Exchange",
			City:       testAlmaty.Name,
			ActualTime: testNow.Add(-time.Hour),
			Coordinate: geo.Coordinate{Lat: 43.30, Lng: 76.95},
			Quotes: []types.Quote{
				{Currency: types.CurrencyUSD, Buy: 470, Sell: 450},
				{Currency: types.CurrencyEUR, Buy: 510, Sell: 520},
			},
		},
		{
			ID:         "2",
			Name:       "Miras",
			City:       testAlmaty.Name,
			ActualTime: testNow,
			Coordinate: geo.Coordinate{Lat: 43.24, Lng: 76.89},
			Quotes: []types.Quote{
				{Currency: types.CurrencyUSD, Buy: 468, Sell: 440},
			},
		},
		{
			ID:         "3",
			Name:       "Tenge Point",
			City:       testAlmaty.Name,
			ActualTime: testNow.Add(-2 * time.Hour),
			Coordinate: geo.Coordinate{Lat: 43.20, Lng: 76.80},
			Quotes: []types.Quote{
				{Currency: types.CurrencyRUB, Buy: 5.1, Sell: 5.3},
			},
		},
	}
}

func loadedSnapshot() *workset.Snapshot {
	return workset.New(testAlmaty.Name).ReplaceAll(testOutlets())
}

// snapshotService serves a fixed snapshot for the known test city
func snapshotService(t *testing.T, snap *workset.Snapshot) *mockService {
	t.Helper()

	catalog := testCatalog(t)

	return &mockService{
		catalogFn: func() *kurs.Catalog {
			return catalog
		},
		snapshotFn: func(city string) (*workset.Snapshot, error) {
			if _, ok := catalog.Lookup(city); !ok {
				return nil, ingest.ErrUnknownCity
			}

			return snap, nil
		},
	}
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()

	var v T

	require.NoError(t, json.NewDecoder(w.Body).Decode(&v))

	return v
}

func TestHandlers_Cities(t *testing.T) {
	t.Parallel()

	t.Run("catalog with archived cities", func(t *testing.T) {
		t.Parallel()

		s := &Server{
			service: snapshotService(t, loadedSnapshot()),
			storage: &mock.Storage{
				ListCitiesFn: func(_ context.Context) ([]string, error) {
					return []string{testAlmaty.Name}, nil
				},
			},
			logger: noopLogger,
		}

		w := httptest.NewRecorder()
		s.Cities(w, httptest.NewRequest(http.MethodGet, "/v1/cities", http.NoBody))

		require.Equal(t, http.StatusOK, w.Code)

		resp := decode[CitiesResponse](t, w)

		assert.Equal(t, testAlmaty.Name, resp.Default)
		require.Len(t, resp.Results, 1)
		assert.Equal(t, testAlmaty.Query, resp.Results[0].Query)
		assert.Equal(t, []string{testAlmaty.Name}, resp.Archived)
	})

	t.Run("archive error still serves the catalog", func(t *testing.T) {
		t.Parallel()

		s := &Server{
			service: snapshotService(t, loadedSnapshot()),
			storage: &mock.Storage{
				ListCitiesFn: func(_ context.Context) ([]string, error) {
					return nil, errors.New("db down")
				},
			},
			logger: noopLogger,
		}

		w := httptest.NewRecorder()
		s.Cities(w, httptest.NewRequest(http.MethodGet, "/v1/cities", http.NoBody))

		require.Equal(t, http.StatusOK, w.Code)

		resp := decode[CitiesResponse](t, w)

		assert.Len(t, resp.Results, 1)
		assert.Empty(t, resp.Archived)
	})
}

func TestHandlers_Currencies(t *testing.T) {
	t.Parallel()

	t.Run("storage error", func(t *testing.T) {
		t.Parallel()

		s := &Server{
			storage: &mock.Storage{
				ListCurrenciesFn: func(_ context.Context) ([]types.Currency, error) {
					return nil, errors.New("boom")
				},
			},
			logger: noopLogger,
		}

		w := httptest.NewRecorder()
		s.Currencies(w, httptest.NewRequest(http.MethodGet, "/v1/currencies", http.NoBody))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})

	t.Run("success", func(t *testing.T) {
		t.Parallel()

		expected := []types.Currency{types.CurrencyEUR, types.CurrencyUSD}

		s := &Server{
			storage: &mock.Storage{
				ListCurrenciesFn: func(_ context.Context) ([]types.Currency, error) {
					return expected, nil
				},
			},
			logger: noopLogger,
		}

		w := httptest.NewRecorder()
		s.Currencies(w, httptest.NewRequest(http.MethodGet, "/v1/currencies", http.NoBody))

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, expected, decode[CurrenciesResponse](t, w).Results)
	})
}

func TestHandlers_Outlets(t *testing.T) {
	t.Parallel()

	request := func(t *testing.T, city, rawQuery string) *http.Request {
		t.Helper()

		req := httptest.NewRequest(http.MethodGet, "/v1/cities/"+city+"/outlets?"+rawQuery, http.NoBody)

		return withRouteParams(t, req, map[string]string{
			"city": city,
		})
	}

	ids := func(entries []rank.Entry) []string {
		out := make([]string, 0, len(entries))
		for _, e := range entries {
			out = append(out, e.Outlet.ID)
		}

		return out
	}

	t.Run("invalid sort mode", func(t *testing.T) {
		t.Parallel()

		s := &Server{
			service: snapshotService(t, loadedSnapshot()),
			logger:  noopLogger,
		}

		w := httptest.NewRecorder()
		s.Outlets(w, request(t, "almaty", "sort=cheapest"))

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("currency sort without currency", func(t *testing.T) {
		t.Parallel()

		s := &Server{
			service: snapshotService(t, loadedSnapshot()),
			logger:  noopLogger,
		}

		w := httptest.NewRecorder()
		s.Outlets(w, request(t, "almaty", "sort=currency"))

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("partial origin", func(t *testing.T) {
		t.Parallel()

		s := &Server{
			service: snapshotService(t, loadedSnapshot()),
			logger:  noopLogger,
		}

		w := httptest.NewRecorder()
		s.Outlets(w, request(t, "almaty", "lat=43.2"))

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unknown city", func(t *testing.T) {
		t.Parallel()

		s := &Server{
			service: snapshotService(t, loadedSnapshot()),
			logger:  noopLogger,
		}

		w := httptest.NewRecorder()
		s.Outlets(w, request(t, "paris", ""))

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("currency sort, sell side", func(t *testing.T) {
		t.Parallel()

		s := &Server{
			service: snapshotService(t, loadedSnapshot()),
			logger:  noopLogger,
		}

		w := httptest.NewRecorder()
		s.Outlets(w, request(t, "almaty", "sort=currency&currency=usd&side=sell"))

		require.Equal(t, http.StatusOK, w.Code)

		resp := decode[OutletsResponse](t, w)

		assert.Equal(t, []string{"2", "1"}, ids(resp.Results))
		assert.Equal(t, 2, resp.Total)
		require.NotNil(t, resp.Results[0].Price)
		assert.Equal(t, 440.0, *resp.Results[0].Price)
	})

	t.Run("recency sort with search", func(t *testing.T) {
		t.Parallel()

		s := &Server{
			service: snapshotService(t, loadedSnapshot()),
			logger:  noopLogger,
		}

		w := httptest.NewRecorder()
		s.Outlets(w, request(t, "almaty", "sort=recency&q=E"))

		require.Equal(t, http.StatusOK, w.Code)

		resp := decode[OutletsResponse](t, w)

		// "Miras" doesn't match
		assert.Equal(t, []string{"1", "3"}, ids(resp.Results))
	})

	t.Run("tracked origin", func(t *testing.T) {
		t.Parallel()

		tracker := geo.NewTracker()
		tracker.Update(geo.Coordinate{Lat: 43.24, Lng: 76.89}, testAlmaty.Name)

		s := &Server{
			service: snapshotService(t, loadedSnapshot()),
			tracker: tracker,
			logger:  noopLogger,
		}

		w := httptest.NewRecorder()
		s.Outlets(w, request(t, "almaty", ""))

		require.Equal(t, http.StatusOK, w.Code)

		resp := decode[OutletsResponse](t, w)

		require.Len(t, resp.Results, 3)
		assert.Equal(t, "2", resp.Results[0].Outlet.ID)
		require.NotNil(t, resp.Results[0].DistanceKm)
		assert.InDelta(t, 0, *resp.Results[0].DistanceKm, 1e-9)
	})

	t.Run("first view loads the city", func(t *testing.T) {
		t.Parallel()

		var (
			set     = workset.New(testAlmaty.Name)
			service = snapshotService(t, nil)
		)

		service.snapshotFn = func(_ string) (*workset.Snapshot, error) {
			return set.Snapshot(), nil
		}

		service.refreshAllFn = func(_ context.Context, city string) (*ingest.Result, error) {
			assert.Equal(t, "almaty", city)

			snap := set.ReplaceAll(testOutlets())

			return &ingest.Result{
				City:    snap.City,
				Status:  ingest.StatusDegraded,
				Outlets: snap.Outlets,
				Version: snap.Version,
			}, nil
		}

		s := &Server{
			service: service,
			logger:  noopLogger,
		}

		w := httptest.NewRecorder()
		s.Outlets(w, request(t, "almaty", ""))

		require.Equal(t, http.StatusOK, w.Code)

		resp := decode[OutletsResponse](t, w)

		assert.Equal(t, ingest.StatusDegraded, resp.Status)
		assert.Equal(t, uint64(1), resp.Version)
		assert.Len(t, resp.Results, 3)
	})

	t.Run("first view fetch failure", func(t *testing.T) {
		t.Parallel()

		service := snapshotService(t, workset.New(testAlmaty.Name).Snapshot())
		service.refreshAllFn = func(_ context.Context, _ string) (*ingest.Result, error) {
			return nil, ingest.ErrTransient
		}

		s := &Server{
			service: service,
			logger:  noopLogger,
		}

		w := httptest.NewRecorder()
		s.Outlets(w, request(t, "almaty", ""))

		require.Equal(t, http.StatusBadGateway, w.Code)

		resp := decode[ErrorResponse](t, w)

		assert.True(t, resp.Retry)
	})
}

func TestHandlers_Outlet(t *testing.T) {
	t.Parallel()

	request := func(t *testing.T, id string) *http.Request {
		t.Helper()

		req := httptest.NewRequest(http.MethodGet, "/v1/cities/almaty/outlets/"+id, http.NoBody)

		return withRouteParams(t, req, map[string]string{
			"city": "almaty",
			"id":   id,
		})
	}

	t.Run("unknown outlet", func(t *testing.T) {
		t.Parallel()

		s := &Server{
			service: snapshotService(t, loadedSnapshot()),
			logger:  noopLogger,
		}

		w := httptest.NewRecorder()
		s.Outlet(w, request(t, "42"))

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("quotes sorted by code", func(t *testing.T) {
		t.Parallel()

		snap := loadedSnapshot()

		s := &Server{
			service: snapshotService(t, snap),
			logger:  noopLogger,
		}

		w := httptest.NewRecorder()
		s.Outlet(w, request(t, "1"))

		require.Equal(t, http.StatusOK, w.Code)

		resp := decode[OutletResponse](t, w)

		require.Len(t, resp.Outlet.Quotes, 2)
		assert.Equal(t, types.CurrencyEUR, resp.Outlet.Quotes[0].Currency)
		assert.Equal(t, types.CurrencyUSD, resp.Outlet.Quotes[1].Currency)
		assert.Positive(t, resp.MinutesSinceUpdate)

		// The working set outlet keeps the source order
		original, ok := snap.Get("1")
		require.True(t, ok)

		assert.Equal(t, types.CurrencyUSD, original.Quotes[0].Currency)
	})
}

func TestHandlers_RefreshCity(t *testing.T) {
	t.Parallel()

	request := func(t *testing.T) *http.Request {
		t.Helper()

		req := httptest.NewRequest(http.MethodPost, "/v1/cities/almaty/refresh", http.NoBody)

		return withRouteParams(t, req, map[string]string{
			"city": "almaty",
		})
	}

	t.Run("degraded refresh", func(t *testing.T) {
		t.Parallel()

		s := &Server{
			service: &mockService{
				refreshAllFn: func(_ context.Context, _ string) (*ingest.Result, error) {
					return &ingest.Result{
						City:           testAlmaty.Name,
						Status:         ingest.StatusDegraded,
						Outlets:        testOutlets()[:2],
						Version:        4,
						Literals:       3,
						FailedLiterals: 1,
					}, nil
				},
			},
			logger: noopLogger,
		}

		w := httptest.NewRecorder()
		s.RefreshCity(w, request(t))

		require.Equal(t, http.StatusOK, w.Code)

		resp := decode[RefreshCityResponse](t, w)

		assert.Equal(t, ingest.StatusDegraded, resp.Status)
		assert.Equal(t, 2, resp.Outlets)
		assert.Equal(t, 1, resp.FailedLiterals)
		assert.Equal(t, uint64(4), resp.Version)
	})

	t.Run("no data", func(t *testing.T) {
		t.Parallel()

		s := &Server{
			service: &mockService{
				refreshAllFn: func(_ context.Context, _ string) (*ingest.Result, error) {
					return nil, ingest.ErrNoData
				},
			},
			logger: noopLogger,
		}

		w := httptest.NewRecorder()
		s.RefreshCity(w, request(t))

		require.Equal(t, http.StatusBadGateway, w.Code)
		assert.True(t, decode[ErrorResponse](t, w).Retry)
	})

	t.Run("unexpected error", func(t *testing.T) {
		t.Parallel()

		s := &Server{
			service: &mockService{
				refreshAllFn: func(_ context.Context, _ string) (*ingest.Result, error) {
					return nil, errors.New("boom")
				},
			},
			logger: noopLogger,
		}

		w := httptest.NewRecorder()
		s.RefreshCity(w, request(t))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}

func TestHandlers_RefreshOutlet(t *testing.T) {
	t.Parallel()

	testTable := []struct {
		err            error
		name           string
		outcome        ingest.PatchOutcome
		expectedStatus int
	}{
		{
			name:           "applied",
			outcome:        ingest.PatchApplied,
			expectedStatus: http.StatusOK,
		},
		{
			name:           "busy",
			outcome:        ingest.PatchBusy,
			expectedStatus: http.StatusAccepted,
		},
		{
			name:           "missing upstream",
			outcome:        ingest.PatchNotFound,
			expectedStatus: http.StatusOK,
		},
		{
			name:           "unknown outlet",
			err:            ingest.ErrUnknownOutlet,
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "transient failure",
			err:            ingest.ErrTransient,
			expectedStatus: http.StatusBadGateway,
		},
	}

	for _, testCase := range testTable {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			var capturedID string

			s := &Server{
				service: &mockService{
					refreshOneFn: func(_ context.Context, id string) (ingest.PatchOutcome, error) {
						capturedID = id

						return testCase.outcome, testCase.err
					},
				},
				logger: noopLogger,
			}

			req := httptest.NewRequest(http.MethodPost, "/v1/outlets/7/refresh", http.NoBody)
			req = withRouteParams(t, req, map[string]string{
				"id": "7",
			})

			w := httptest.NewRecorder()
			s.RefreshOutlet(w, req)

			assert.Equal(t, testCase.expectedStatus, w.Code)
			assert.Equal(t, "7", capturedID)

			if testCase.err == nil {
				resp := decode[RefreshOutletResponse](t, w)

				assert.Equal(t, testCase.outcome, resp.Outcome)
			}
		})
	}
}

func TestHandlers_Quotes(t *testing.T) {
	t.Parallel()

	request := func(t *testing.T, rawQuery string) *http.Request {
		t.Helper()

		req := httptest.NewRequest(http.MethodGet, "/v1/outlets/1/quotes?"+rawQuery, http.NoBody)

		return withRouteParams(t, req, map[string]string{
			"id": "1",
		})
	}

	t.Run("invalid params", func(t *testing.T) {
		t.Parallel()

		for _, rawQuery := range []string{
			"type=MID",
			"currency=US",
			"limit=abc",
			"offset=-1",
			"as_of=yesterday",
		} {
			var called bool

			s := &Server{
				storage: &mock.Storage{
					QuotesAsOfFn: func(
						_ context.Context,
						_ *types.QuoteQuery,
						_ time.Time,
					) (*types.Page[*types.QuoteRecord], error) {
						called = true

						return nil, nil
					},
				},
				logger: noopLogger,
			}

			w := httptest.NewRecorder()
			s.Quotes(w, request(t, rawQuery))

			assert.Equal(t, http.StatusBadRequest, w.Code, rawQuery)
			assert.False(t, called, rawQuery)
		}
	})

	t.Run("storage error", func(t *testing.T) {
		t.Parallel()

		s := &Server{
			storage: &mock.Storage{
				QuotesAsOfFn: func(
					_ context.Context,
					_ *types.QuoteQuery,
					_ time.Time,
				) (*types.Page[*types.QuoteRecord], error) {
					return nil, errors.New("boom")
				},
			},
			logger: noopLogger,
		}

		w := httptest.NewRecorder()
		s.Quotes(w, request(t, ""))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})

	t.Run("success", func(t *testing.T) {
		t.Parallel()

		var (
			capturedQuery *types.QuoteQuery
			capturedAsOf  time.Time

			expectedAsOf = time.Date(2026, time.January, 10, 0, 0, 0, 0, time.UTC)
		)

		s := &Server{
			storage: &mock.Storage{
				QuotesAsOfFn: func(
					_ context.Context,
					query *types.QuoteQuery,
					asOf time.Time,
				) (*types.Page[*types.QuoteRecord], error) {
					capturedQuery = query
					capturedAsOf = asOf

					return &types.Page[*types.QuoteRecord]{
						Results: []*types.QuoteRecord{{
							OutletID: "1",
							Currency: types.CurrencyUSD,
							Side:     types.SideSELL,
							Price:    450,
						}},
						Total: 1,
					}, nil
				},
			},
			logger: noopLogger,
		}

		w := httptest.NewRecorder()
		s.Quotes(w, request(t, "as_of=2026-01-10T00:00:00Z&currency=usd&type=sell&limit=1000&offset=2"))

		require.Equal(t, http.StatusOK, w.Code)

		require.NotNil(t, capturedQuery)
		assert.Equal(t, "1", capturedQuery.OutletID)
		require.NotNil(t, capturedQuery.Currency)
		assert.Equal(t, types.CurrencyUSD, *capturedQuery.Currency)
		require.NotNil(t, capturedQuery.Side)
		assert.Equal(t, types.SideSELL, *capturedQuery.Side)
		assert.Equal(t, int32(500), capturedQuery.Limit)
		assert.Equal(t, int64(2), capturedQuery.Offset)
		assert.Equal(t, expectedAsOf, capturedAsOf)

		resp := decode[types.Page[*types.QuoteRecord]](t, w)

		assert.Equal(t, int64(1), resp.Total)
	})
}

func TestHandlers_UpdateLocation(t *testing.T) {
	t.Parallel()

	request := func(body string) *http.Request {
		return httptest.NewRequest(http.MethodPut, "/v1/location", strings.NewReader(body))
	}

	t.Run("invalid body", func(t *testing.T) {
		t.Parallel()

		s := &Server{
			tracker: geo.NewTracker(),
			logger:  noopLogger,
		}

		w := httptest.NewRecorder()
		s.UpdateLocation(w, request("{"))

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("invalid coordinate", func(t *testing.T) {
		t.Parallel()

		tracker := geo.NewTracker()

		s := &Server{
			tracker: tracker,
			logger:  noopLogger,
		}

		w := httptest.NewRecorder()
		s.UpdateLocation(w, request(`{"lat": 91, "lng": 76.9}`))

		assert.Equal(t, http.StatusBadRequest, w.Code)

		_, ok := tracker.Latest()
		assert.False(t, ok)
	})

	t.Run("valid location", func(t *testing.T) {
		t.Parallel()

		tracker := geo.NewTracker()

		s := &Server{
			tracker: tracker,
			logger:  noopLogger,
		}

		w := httptest.NewRecorder()
		s.UpdateLocation(w, request(`{"city": " Almaty ", "lat": 43.24, "lng": 76.89}`))

		require.Equal(t, http.StatusOK, w.Code)

		pos, ok := tracker.Latest()
		require.True(t, ok)

		assert.Equal(t, "Almaty", pos.City)
		assert.Equal(t, geo.Coordinate{Lat: 43.24, Lng: 76.89}, pos.Coordinate)
	})
}

func TestHandlers_Stream(t *testing.T) {
	t.Parallel()

	var (
		set     = workset.New(testAlmaty.Name)
		updates = make(chan *workset.Snapshot)
		service = snapshotService(t, nil)
	)

	service.snapshotFn = func(_ string) (*workset.Snapshot, error) {
		return set.Snapshot(), nil
	}

	service.subscribeFn = func(_ string) (<-chan *workset.Snapshot, func(), error) {
		return updates, func() {}, nil
	}

	s := &Server{
		service: service,
		logger:  noopLogger,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req := httptest.NewRequest(http.MethodGet, "/v1/cities/almaty/stream", http.NoBody).WithContext(ctx)
	req = withRouteParams(t, req, map[string]string{
		"city": "almaty",
	})

	var (
		w    = httptest.NewRecorder()
		done = make(chan struct{})
	)

	go func() {
		defer close(done)

		s.Stream(w, req)
	}()

	// Received only once the initial event is written
	updates <- set.ReplaceAll(testOutlets())

	cancel()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("stream did not finish")
	}

	body := w.Body.String()

	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))
	assert.Contains(t, body, "id: 0\nevent: snapshot\n")
	assert.Contains(t, body, "id: 1\nevent: snapshot\n")
	assert.Contains(t, body, `"outlets":3`)
}

func TestServer_RefreshRateLimit(t *testing.T) {
	t.Parallel()

	var refreshes int

	cfg := config.DefaultConfig()
	cfg.RefreshRateLimit = "1-M"

	s, err := New(
		&mockService{
			refreshAllFn: func(_ context.Context, _ string) (*ingest.Result, error) {
				refreshes++

				return &ingest.Result{City: testAlmaty.Name, Status: ingest.StatusComplete}, nil
			},
		},
		&mock.Storage{},
		WithConfig(cfg),
	)
	require.NoError(t, err)

	first := httptest.NewRecorder()
	s.ServeHTTP(first, httptest.NewRequest(http.MethodPost, "/v1/cities/almaty/refresh", http.NoBody))

	assert.Equal(t, http.StatusOK, first.Code)

	second := httptest.NewRecorder()
	s.ServeHTTP(second, httptest.NewRequest(http.MethodPost, "/v1/cities/almaty/refresh", http.NoBody))

	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Equal(t, 1, refreshes)
}

func withRouteParams(t *testing.T, req *http.Request, params map[string]string) *http.Request {
	t.Helper()

	rctx := chi.NewRouteContext()

	for key, value := range params {
		rctx.URLParams.Add(key, value)
	}

	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func TestServer_Docs(t *testing.T) {
	t.Parallel()

	s, err := New(&mockService{}, &mock.Storage{})
	require.NoError(t, err)

	t.Run("openapi document", func(t *testing.T) {
		t.Parallel()

		w := httptest.NewRecorder()
		s.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/openapi.yaml", http.NoBody))

		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Header().Get("Content-Type"), "application/yaml")
		assert.Contains(t, w.Body.String(), "/v1/cities/{city}/outlets")
	})

	t.Run("docs page", func(t *testing.T) {
		t.Parallel()

		w := httptest.NewRecorder()
		s.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/docs", http.NoBody))

		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `spec-url="/openapi.yaml"`)
	})
}
