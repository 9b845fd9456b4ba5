// Package logging provides structured logging with zerolog.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Config holds logging configuration.
type Config struct {
	Level      string // debug, info, warn, error
	Format     string // json, console
	TimeFormat string
	Service    string
}

// DefaultConfig returns the logging configuration used when nothing is set.
func DefaultConfig() Config {
	return Config{
		Level:      "info",
		Format:     "json",
		TimeFormat: time.RFC3339,
		Service:    "healthcare-portal-service",
	}
}

// Init initializes the global zerolog logger.
func Init(cfg Config) {
	Configure(cfg, os.Stdout)
}

// Configure initializes the global logger writing to out.
func Configure(cfg Config, out io.Writer) {
	if cfg.TimeFormat == "" {
		cfg.TimeFormat = time.RFC3339
	}
	zerolog.TimeFieldFormat = cfg.TimeFormat

	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	output := out
	if cfg.Format == "console" {
		output = zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.Kitchen,
		}
	}

	ctx := zerolog.New(output).With().Timestamp()
	if cfg.Service != "" {
		ctx = ctx.Str("service", cfg.Service)
	}
	log.Logger = ctx.Caller().Logger()
}

// Logger returns the global logger.
func Logger() zerolog.Logger {
	return log.Logger
}

// WithComponent returns a logger with a component tag.
func WithComponent(component string) zerolog.Logger {
	return log.With().
		Str("component", component).
		Logger()
}

// WithMeeting returns a logger with meeting context.
func WithMeeting(meetingID, room string) zerolog.Logger {
	return log.With().
		Str("meetingId", meetingID).
		Str("room", room).
		Logger()
}

// WithSegment returns a logger with segment context.
func WithSegment(meetingID, segmentID string, seq int) zerolog.Logger {
	return log.With().
		Str("meetingId", meetingID).
		Str("segmentId", segmentID).
		Int("seq", seq).
		Logger()
}

// WithUpload returns a logger for a single segment upload.
func WithUpload(meetingID, segmentID, provider string) zerolog.Logger {
	return log.With().
		Str("meetingId", meetingID).
		Str("segmentId", segmentID).
		Str("sttProvider", provider).
		Logger()
}
