package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/pelletier/go-toml"
	"github.com/ulule/limiter/v3"
)

const (
	DefaultListenAddress    = "0.0.0.0:8545"
	DefaultRefreshRateLimit = "30-M" // 30 refreshes per minute, per client

	DefaultFetchTimeout    = "30s"
	DefaultRefreshInterval = "5m"
	DefaultRetryDelay      = "10s"
	DefaultMarker          = "punkts"
)

var (
	ErrInvalidListenAddress = errors.New("invalid listen address")
	ErrInvalidRateLimit     = errors.New("invalid refresh rate limit")
	ErrInvalidIngest        = errors.New("invalid ingest configuration")
	ErrInvalidSourceURL     = errors.New("invalid source URL")
	ErrInvalidDuration      = errors.New("invalid duration")
	ErrInvalidMarker        = errors.New("invalid literal marker")
	ErrInvalidCities        = errors.New("invalid city configuration")
)

var (
	listenAddressRegex = regexp.MustCompile(`^\d{1,3}(\.\d{1,3}){3}:\d+$`)
	markerRegex        = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*$`)
)

// Config defines the base-level server configuration
type Config struct {
	// The associated CORS config, if any
	CORSConfig *CORS `toml:"cors_config"`

	// The listing ingestion config
	Ingest *Ingest `toml:"ingest"`

	// The address at which the server will be served.
	// Format should be: <IP>:<PORT>
	ListenAddress string `toml:"listen_address"`

	// The per-client rate of the refresh endpoints.
	// Format should be: <limit>-<S|M|H|D>, ex. 30-M
	RefreshRateLimit string `toml:"refresh_rate_limit"`

	// The supported cities. Defaults to the built-in catalog
	Cities []*City `toml:"cities"`
}

// Ingest defines the listing ingestion configuration
type Ingest struct {
	// The listing page URL
	SourceURL string `toml:"source_url"`

	// The listing fetch timeout (Go duration)
	Timeout string `toml:"timeout"`

	// The scheduled refresh interval (Go duration)
	Interval string `toml:"interval"`

	// The delay before a failed scheduled refresh is retried (Go duration)
	RetryDelay string `toml:"retry_delay"`

	// The city used when none is requested or located
	DefaultCity string `toml:"default_city"`

	// The primary JavaScript variable names holding the outlet literals
	Markers []string `toml:"markers"`
}

// DefaultConfig returns the default server configuration
func DefaultConfig() *Config {
	return &Config{
		ListenAddress:    DefaultListenAddress,
		RefreshRateLimit: DefaultRefreshRateLimit,
		CORSConfig:       DefaultCORSConfig(),
		Ingest:           DefaultIngestConfig(),
		Cities:           DefaultCities(),
	}
}

// DefaultIngestConfig returns the default ingestion configuration
func DefaultIngestConfig() *Ingest {
	return &Ingest{
		SourceURL:   "https://kurs.kz/site/index",
		Timeout:     DefaultFetchTimeout,
		Interval:    DefaultRefreshInterval,
		RetryDelay:  DefaultRetryDelay,
		DefaultCity: DefaultCity,
		Markers:     []string{DefaultMarker},
	}
}

// ValidateConfig validates the server configuration
func ValidateConfig(config *Config) error {
	// Validate the listen address
	if !listenAddressRegex.MatchString(config.ListenAddress) {
		return ErrInvalidListenAddress
	}

	// Validate the refresh rate limit
	if _, err := limiter.NewRateFromFormatted(config.RefreshRateLimit); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRateLimit, err)
	}

	if config.Ingest == nil {
		return ErrInvalidIngest
	}

	if err := validateIngest(config.Ingest); err != nil {
		return err
	}

	return validateCities(config.Cities, config.Ingest.DefaultCity)
}

func validateIngest(cfg *Ingest) error {
	u, err := url.Parse(cfg.SourceURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: %q", ErrInvalidSourceURL, cfg.SourceURL)
	}

	for _, d := range []string{cfg.Timeout, cfg.Interval, cfg.RetryDelay} {
		if _, err = parsePositiveDuration(d); err != nil {
			return err
		}
	}

	if len(cfg.Markers) == 0 {
		return fmt.Errorf("%w: no markers", ErrInvalidMarker)
	}

	return validateMarkers(cfg.Markers)
}

func validateMarkers(markers []string) error {
	for _, marker := range markers {
		if !markerRegex.MatchString(marker) {
			return fmt.Errorf("%w: %q", ErrInvalidMarker, marker)
		}
	}

	return nil
}

// FetchTimeout returns the parsed listing fetch timeout
func (c *Ingest) FetchTimeout() time.Duration {
	return mustDuration(c.Timeout, DefaultFetchTimeout)
}

// RefreshInterval returns the parsed scheduled refresh interval
func (c *Ingest) RefreshInterval() time.Duration {
	return mustDuration(c.Interval, DefaultRefreshInterval)
}

// RetryDelayDuration returns the parsed scheduled refresh retry delay
func (c *Ingest) RetryDelayDuration() time.Duration {
	return mustDuration(c.RetryDelay, DefaultRetryDelay)
}

// mustDuration parses a validated duration, falling back to the default
func mustDuration(value, fallback string) time.Duration {
	d, err := parsePositiveDuration(value)
	if err != nil {
		d, _ = time.ParseDuration(fallback) //nolint:errcheck // constant
	}

	return d
}

func parsePositiveDuration(value string) (time.Duration, error) {
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDuration, value)
	}

	return d, nil
}

// Read reads the configuration from the given path.
// Missing values are taken from the default configuration
func Read(path string) (*Config, error) {
	// Read the config file
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Parse it
	var cfg Config

	if err := toml.Unmarshal(content, &cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)

	return &cfg, nil
}

// applyDefaults fills in the unset configuration values
func applyDefaults(cfg *Config) {
	def := DefaultConfig()

	if cfg.ListenAddress == "" {
		cfg.ListenAddress = def.ListenAddress
	}

	if cfg.RefreshRateLimit == "" {
		cfg.RefreshRateLimit = def.RefreshRateLimit
	}

	if cfg.CORSConfig == nil {
		cfg.CORSConfig = def.CORSConfig
	}

	if len(cfg.Cities) == 0 {
		cfg.Cities = def.Cities
	}

	if cfg.Ingest == nil {
		cfg.Ingest = def.Ingest

		return
	}

	if cfg.Ingest.SourceURL == "" {
		cfg.Ingest.SourceURL = def.Ingest.SourceURL
	}

	if cfg.Ingest.Timeout == "" {
		cfg.Ingest.Timeout = def.Ingest.Timeout
	}

	if cfg.Ingest.Interval == "" {
		cfg.Ingest.Interval = def.Ingest.Interval
	}

	if cfg.Ingest.RetryDelay == "" {
		cfg.Ingest.RetryDelay = def.Ingest.RetryDelay
	}

	if cfg.Ingest.DefaultCity == "" {
		cfg.Ingest.DefaultCity = def.Ingest.DefaultCity
	}

	if len(cfg.Ingest.Markers) == 0 {
		cfg.Ingest.Markers = def.Ingest.Markers
	}
}
