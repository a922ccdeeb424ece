package server

import (
	"log/slog"

	"github.com/sig-0/fxpoints/geo"
	"github.com/sig-0/fxpoints/server/config"
)

type Option func(s *Server)

// WithLogger specifies the logger for the server
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

// WithConfig specifies the config for the server
func WithConfig(c *config.Config) Option {
	return func(s *Server) {
		s.config = c
	}
}

// WithTracker specifies the position tracker, fed by the location endpoint.
// The latest position is the default ranking origin
func WithTracker(t *geo.Tracker) Option {
	return func(s *Server) {
		s.tracker = t
	}
}
