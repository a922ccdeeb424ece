package fetch

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/peterbourgon/ff/v3"
	"github.com/peterbourgon/ff/v3/ffcli"

	"github.com/sig-0/fxpoints/cmd/env"
	"github.com/sig-0/fxpoints/geo"
	"github.com/sig-0/fxpoints/ingest"
	"github.com/sig-0/fxpoints/provider/kurs"
	"github.com/sig-0/fxpoints/rank"
	"github.com/sig-0/fxpoints/server/config"
	"github.com/sig-0/fxpoints/storage/memory"
	"github.com/sig-0/fxpoints/storage/types"
)

// defaultCurrency is the quote column shown when no currency is given
const defaultCurrency types.Currency = "USD"

var errInvalidOrigin = errors.New("lat and lng are both required")

type fetchCfg struct {
	configPath string
	city       string
	search     string
	sort       string
	currency   string
	side       string
	lat        string
	lng        string
	limit      int
	verbose    bool
}

// NewFetchCmd creates the one-shot fetch command
func NewFetchCmd() *ffcli.Command {
	cfg := &fetchCfg{}

	fs := flag.NewFlagSet("fetch", flag.ExitOnError)
	cfg.registerFlags(fs)

	return &ffcli.Command{
		Name:       "fetch",
		ShortUsage: "fetch [flags]",
		LongHelp:   "Fetches the city outlet listing once, and prints the ranked outlets",
		FlagSet:    fs,
		Exec:       cfg.exec,
		Options: []ff.Option{
			// Allow using ENV variables
			ff.WithEnvVars(),
			ff.WithEnvVarPrefix(env.Prefix),
		},
	}
}

func (c *fetchCfg) registerFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.configPath, "config", "", "the path to the server TOML configuration, if any")
	fs.StringVar(&c.city, "city", "", "the city to fetch (defaults to the catalog default)")
	fs.StringVar(&c.search, "q", "", "case-insensitive outlet name filter")
	fs.StringVar(&c.sort, "sort", string(rank.ModeAll), "the sort mode (all, currency, recency)")
	fs.StringVar(&c.currency, "currency", "", "the ranked currency code")
	fs.StringVar(&c.side, "side", string(types.SideBUY), "the ranked side (BUY, SELL)")
	fs.StringVar(&c.lat, "lat", "", "the origin latitude")
	fs.StringVar(&c.lng, "lng", "", "the origin longitude")
	fs.IntVar(&c.limit, "limit", 20, "the max number of printed outlets (0 for all)")
	fs.BoolVar(&c.verbose, "verbose", false, "log the fetch progress to stderr")
}

func (c *fetchCfg) exec(ctx context.Context, _ []string) error {
	params, err := rank.ParseParams(c.sort, c.currency, c.side)
	if err != nil {
		return err
	}

	origin, err := parseOrigin(c.lat, c.lng)
	if err != nil {
		return err
	}

	params.Origin = origin

	serverCfg := config.DefaultConfig()

	if c.configPath != "" {
		if serverCfg, err = config.Read(c.configPath); err != nil {
			return fmt.Errorf("unable to read server config, %w", err)
		}
	}

	if err = config.ValidateConfig(serverCfg); err != nil {
		return fmt.Errorf("invalid configuration, %w", err)
	}

	catalog, err := config.Catalog(serverCfg)
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if c.verbose {
		logger = slog.New(slog.NewTextHandler(os.Stderr, nil))
	}

	provider := kurs.NewProvider(
		serverCfg.Ingest.SourceURL,
		serverCfg.Ingest.FetchTimeout(),
		kurs.NewExtractor(serverCfg.Ingest.Markers...),
	)

	orchestrator, err := ingest.New(
		memory.NewStorage(),
		provider,
		catalog,
		ingest.WithLogger(logger),
	)
	if err != nil {
		return fmt.Errorf("unable to create ingestion service, %w", err)
	}

	result, err := orchestrator.RefreshAll(ctx, c.city)
	if err != nil {
		return fmt.Errorf("unable to fetch listing: %w", err)
	}

	entries := rank.Project(result.Outlets, c.search, params)
	if c.limit > 0 && len(entries) > c.limit {
		entries = entries[:c.limit]
	}

	if result.Degraded() {
		_, _ = fmt.Fprintf(
			os.Stderr,
			"warning: the %s listing might be incomplete (%d of %d literals failed)\n",
			result.City,
			result.FailedLiterals,
			result.Literals,
		)
	}

	return render(os.Stdout, entries, params, time.Now())
}

// render prints the ranked outlets as an aligned table
func render(w io.Writer, entries []rank.Entry, params rank.Params, now time.Time) error {
	currency := params.Currency
	if currency == "" {
		currency = defaultCurrency
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	_, _ = fmt.Fprintf(
		tw,
		"ID\tNAME\tADDRESS\tDISTANCE\t%s BUY\t%s SELL\tUPDATED\n",
		currency,
		currency,
	)

	for _, entry := range entries {
		o := entry.Outlet

		buy, sell := "-", "-"
		if q, ok := o.Quote(currency); ok {
			buy, sell = formatPrice(q.Buy), formatPrice(q.Sell)
		}

		distance := "-"
		if entry.DistanceKm != nil {
			distance = fmt.Sprintf("%.2f km", *entry.DistanceKm)
		}

		_, _ = fmt.Fprintf(
			tw,
			"%s\t%s\t%s\t%s\t%s\t%s\t%d min ago\n",
			o.ID,
			o.Name,
			o.Address,
			distance,
			buy,
			sell,
			o.MinutesSinceUpdate(now),
		)
	}

	return tw.Flush()
}

func formatPrice(price float64) string {
	if price <= 0 || math.IsInf(price, 0) || math.IsNaN(price) {
		return "-"
	}

	return strconv.FormatFloat(price, 'f', 2, 64)
}

// parseOrigin parses the optional origin coordinate
func parseOrigin(rawLat, rawLng string) (*geo.Coordinate, error) {
	if rawLat == "" && rawLng == "" {
		return nil, nil
	}

	if rawLat == "" || rawLng == "" {
		return nil, errInvalidOrigin
	}

	lat, err := strconv.ParseFloat(rawLat, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid lat: %w", err)
	}

	lng, err := strconv.ParseFloat(rawLng, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid lng: %w", err)
	}

	c := geo.Coordinate{Lat: lat, Lng: lng}
	if !c.Valid() {
		return nil, fmt.Errorf("coordinate out of range: %v, %v", lat, lng)
	}

	return &c, nil
}
