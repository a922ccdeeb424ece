package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httplog/v3"
	"github.com/rs/cors"
	"github.com/ulule/limiter/v3"
	limitermw "github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	"golang.org/x/sync/errgroup"

	"github.com/sig-0/fxpoints/geo"
	"github.com/sig-0/fxpoints/server/config"
	"github.com/sig-0/fxpoints/storage"
)

var (
	noopLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

	errNilService = errors.New("nil outlet service")
)

type Server struct {
	logger *slog.Logger
	config *config.Config

	service Service
	storage storage.Storage
	tracker *geo.Tracker

	mux *chi.Mux
}

// New creates a new server instance
func New(service Service, storage storage.Storage, opts ...Option) (*Server, error) {
	if service == nil {
		return nil, errNilService
	}

	s := &Server{
		logger:  noopLogger,
		service: service,
		storage: storage,
		config:  config.DefaultConfig(),
		tracker: geo.NewTracker(),
		mux:     chi.NewMux(),
	}

	// Apply the options
	for _, opt := range opts {
		opt(s)
	}

	// Validate the configuration
	if err := config.ValidateConfig(s.config); err != nil {
		return nil, fmt.Errorf("invalid configuration, %w", err)
	}

	// Set up the refresh rate limiter
	rate, err := limiter.NewRateFromFormatted(s.config.RefreshRateLimit)
	if err != nil {
		return nil, fmt.Errorf("invalid refresh rate limit, %w", err)
	}

	refreshLimiter := limitermw.NewMiddleware(limiter.New(memory.NewStore(), rate))

	// Set up the CORS middleware
	if s.config.CORSConfig != nil {
		corsMiddleware := cors.New(cors.Options{
			AllowedOrigins: s.config.CORSConfig.AllowedOrigins,
			AllowedMethods: s.config.CORSConfig.AllowedMethods,
			AllowedHeaders: s.config.CORSConfig.AllowedHeaders,
		})

		s.mux.Use(corsMiddleware.Handler)
	}

	s.mux.Use(httplog.RequestLogger(s.logger, &httplog.Options{
		Level:         slog.LevelInfo,
		Schema:        httplog.SchemaOTEL,
		RecoverPanics: true,
		Skip: func(r *http.Request, respStatus int) bool {
			return respStatus == 404 || respStatus == 405 || r.URL.Path == "/health"
		},
	}))

	// Register the health check handler
	s.mux.Get("/health", func(writer http.ResponseWriter, _ *http.Request) {
		writer.WriteHeader(http.StatusOK)
	})

	s.mux.Get("/openapi.yaml", s.OpenAPI)
	s.mux.Get("/docs", s.Redoc)

	s.mux.Route("/v1", func(r chi.Router) {
		r.Get("/cities", s.Cities)
		r.Get("/currencies", s.Currencies)

		r.Route("/cities/{city}", func(r chi.Router) {
			r.Get("/outlets", s.Outlets)
			r.Get("/outlets/{id}", s.Outlet)
			r.Get("/stream", s.Stream)
			r.With(refreshLimiter.Handler).Post("/refresh", s.RefreshCity)
		})

		r.Route("/outlets/{id}", func(r chi.Router) {
			r.Get("/quotes", s.Quotes)
			r.With(refreshLimiter.Handler).Post("/refresh", s.RefreshOutlet)
		})

		r.Put("/location", s.UpdateLocation)
	})

	return s, nil
}

// ServeHTTP serves the request using the server mux
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// Serve serves the fxpoints service
func (s *Server) Serve(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.config.ListenAddress,
		Handler:           s.mux,
		ReadHeaderTimeout: 60 * time.Second,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx // event streams end with the server
		},
	}

	group, gCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		defer s.logger.Info("server shut down")

		ln, err := net.Listen("tcp", server.Addr)
		if err != nil {
			return err
		}

		s.logger.Info(
			fmt.Sprintf(
				"server started at %s",
				ln.Addr().String(),
			),
		)

		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}

		return nil
	})

	group.Go(func() error {
		<-gCtx.Done()

		s.logger.Info("server to be shutdown")

		wsCtx, cancel := context.WithTimeout(context.Background(), time.Second*30)
		defer cancel()

		return server.Shutdown(wsCtx)
	})

	return group.Wait()
}
