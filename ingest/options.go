package ingest

import (
	"log/slog"
	"time"

	"github.com/sig-0/fxpoints/geo"
)

type Option func(o *Orchestrator)

// WithLogger specifies the logger for the orchestrator
func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = l
	}
}

// WithQueryInterval specifies query interval for the orchestrator's jobs.
// Defaults to 1s
func WithQueryInterval(q time.Duration) Option {
	return func(o *Orchestrator) {
		o.queryInterval = q
	}
}

// WithRefreshInterval specifies how often a registered city is refreshed.
// Defaults to 5m
func WithRefreshInterval(i time.Duration) Option {
	return func(o *Orchestrator) {
		o.refreshInterval = i
	}
}

// WithRetryDelay specifies the delay before a failed scheduled refresh is retried.
// Defaults to 10s
func WithRetryDelay(d time.Duration) Option {
	return func(o *Orchestrator) {
		o.retryDelay = d
	}
}

// WithLocator specifies the geolocation source, used to resolve
// the city when none is requested
func WithLocator(l geo.Locator) Option {
	return func(o *Orchestrator) {
		o.locator = l
	}
}
