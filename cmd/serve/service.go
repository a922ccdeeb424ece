package serve

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/sig-0/fxpoints/geo"
	"github.com/sig-0/fxpoints/ingest"
	"github.com/sig-0/fxpoints/provider/kurs"
	"github.com/sig-0/fxpoints/server"
	"github.com/sig-0/fxpoints/server/config"
	"github.com/sig-0/fxpoints/storage"
)

// newProvider creates the listing provider from the ingest configuration
func newProvider(cfg *config.Ingest) *kurs.Provider {
	return kurs.NewProvider(
		cfg.SourceURL,
		cfg.FetchTimeout(),
		kurs.NewExtractor(cfg.Markers...),
	)
}

// scheduledCities resolves the cities refreshed on a schedule
func scheduledCities(raw string, catalog *kurs.Catalog) []string {
	raw = strings.TrimSpace(raw)

	switch {
	case raw == "":
		return []string{catalog.Default().Name}
	case strings.EqualFold(raw, "all"):
		all := catalog.All()

		names := make([]string, 0, len(all))
		for _, city := range all {
			names = append(names, city.Name)
		}

		return names
	}

	var names []string

	for _, name := range strings.Split(raw, ",") {
		if name = strings.TrimSpace(name); name != "" {
			names = append(names, name)
		}
	}

	return names
}

// run runs the ingestion service and the HTTP server on top of the store,
// until the context is canceled or an interrupt is received
func (c *serveCfg) run(ctx context.Context, store storage.Storage, logger *slog.Logger) error {
	if err := config.ValidateConfig(c.config); err != nil {
		return fmt.Errorf("invalid configuration, %w", err)
	}

	catalog, err := config.Catalog(c.config)
	if err != nil {
		return err
	}

	tracker := geo.NewTracker()

	// Create the ingestion service
	orchestrator, err := ingest.New(
		store,
		newProvider(c.config.Ingest),
		catalog,
		ingest.WithLogger(logger),
		ingest.WithLocator(tracker),
		ingest.WithRefreshInterval(c.config.Ingest.RefreshInterval()),
		ingest.WithRetryDelay(c.config.Ingest.RetryDelayDuration()),
	)
	if err != nil {
		return fmt.Errorf("unable to create ingestion service, %w", err)
	}

	for _, city := range scheduledCities(c.refreshCities, catalog) {
		if err = orchestrator.Register(city); err != nil {
			return fmt.Errorf("unable to register city: %w", err)
		}
	}

	// Create the server instance
	s, err := server.New(
		orchestrator,
		store,
		server.WithLogger(logger),
		server.WithConfig(c.config),
		server.WithTracker(tracker),
	)
	if err != nil {
		return fmt.Errorf("unable to create server, %w", err)
	}

	runCtx, cancelFn := signal.NotifyContext(
		ctx,
		os.Interrupt,
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGQUIT,
	)

	defer cancelFn()

	group, gCtx := errgroup.WithContext(runCtx)

	// Start the HTTP server
	group.Go(func() error {
		return s.Serve(gCtx)
	})

	// Start the ingestion service
	group.Go(func() error {
		return orchestrator.Start(gCtx)
	})

	return group.Wait()
}
