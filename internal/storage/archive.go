// Package storage archives finished consultation transcripts in PostgreSQL.
package storage

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"

	"healthcare-portal-service/internal/models"
	"healthcare-portal-service/internal/observability"
)

//go:embed schema.sql
var schema string

// ErrNotFound is returned when no transcript matches.
var ErrNotFound = errors.New("storage: transcript not found")

// Config holds the archive connection settings.
type Config struct {
	URL         string
	MaxConns    int32
	MinConns    int32
	MaxConnLife time.Duration
	MaxConnIdle time.Duration
}

// Archive stores transcripts.
type Archive struct {
	pool   *pgxpool.Pool
	tracer *observability.Tracer
}

// PoolConfig parses cfg into a pgx pool configuration.
func PoolConfig(cfg Config) (*pgxpool.Config, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("storage: parse database url: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolConfig.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLife > 0 {
		poolConfig.MaxConnLifetime = cfg.MaxConnLife
	}
	if cfg.MaxConnIdle > 0 {
		poolConfig.MaxConnIdleTime = cfg.MaxConnIdle
	}
	poolConfig.HealthCheckPeriod = time.Minute
	return poolConfig, nil
}

// Open connects, pings and applies the schema.
func Open(ctx context.Context, cfg Config) (*Archive, error) {
	poolConfig, err := PoolConfig(cfg)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("storage: create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("storage: ping: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("storage: apply schema: %w", err)
	}
	return &Archive{pool: pool, tracer: observability.NewTracer()}, nil
}

// Close closes the pool.
func (a *Archive) Close() {
	a.pool.Close()
}

// Ping checks connectivity for readiness probes.
func (a *Archive) Ping(ctx context.Context) error {
	return a.pool.Ping(ctx)
}

// Archive inserts rec under a fresh time-ordered id.
func (a *Archive) Archive(ctx context.Context, rec models.TranscriptRecord) (err error) {
	ctx, span := a.tracer.Start(ctx, observability.SpanArchive,
		attribute.String(observability.AttrMeetingID, rec.MeetingID),
		attribute.Int(observability.AttrBytes, len(rec.Text)),
	)
	defer func() { observability.End(span, err) }()

	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("storage: generate id: %w", err)
	}

	_, err = a.pool.Exec(ctx, `
		INSERT INTO consultation_transcripts
			(id, meeting_id, room, text, segments_captured, fragments, started_at, ended_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		id, rec.MeetingID, rec.Room, rec.Text, rec.SegmentsCaptured, rec.Fragments, rec.StartedAt, rec.EndedAt,
	)
	if err != nil {
		return fmt.Errorf("storage: insert transcript: %w", err)
	}
	return nil
}

// ListByMeeting returns the newest transcripts for meetingID.
func (a *Archive) ListByMeeting(ctx context.Context, meetingID string, limit int) ([]models.TranscriptRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := a.pool.Query(ctx, `
		SELECT id, meeting_id, room, text, segments_captured, fragments, started_at, ended_at
		FROM consultation_transcripts
		WHERE meeting_id = $1
		ORDER BY ended_at DESC
		LIMIT $2`, meetingID, limit)
	if err != nil {
		return nil, fmt.Errorf("storage: query transcripts: %w", err)
	}

	records, err := pgx.CollectRows(rows, scanRecord)
	if err != nil {
		return nil, fmt.Errorf("storage: scan transcripts: %w", err)
	}
	return records, nil
}

// Latest returns the newest transcript for meetingID.
func (a *Archive) Latest(ctx context.Context, meetingID string) (models.TranscriptRecord, error) {
	records, err := a.ListByMeeting(ctx, meetingID, 1)
	if err != nil {
		return models.TranscriptRecord{}, err
	}
	if len(records) == 0 {
		return models.TranscriptRecord{}, ErrNotFound
	}
	return records[0], nil
}

func scanRecord(row pgx.CollectableRow) (models.TranscriptRecord, error) {
	var (
		r  models.TranscriptRecord
		id uuid.UUID
	)
	err := row.Scan(&id, &r.MeetingID, &r.Room, &r.Text, &r.SegmentsCaptured, &r.Fragments, &r.StartedAt, &r.EndedAt)
	r.ID = id.String()
	return r, err
}
