// Package app builds the service's process-wide state from configuration.
package app

import (
	"context"
	"fmt"
	"os"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"healthcare-portal-service/internal/config"
	"healthcare-portal-service/internal/events"
	"healthcare-portal-service/internal/models"
	"healthcare-portal-service/internal/observability/logging"
	"healthcare-portal-service/internal/schema"
	"healthcare-portal-service/internal/service/i18n"
	"healthcare-portal-service/internal/service/meeting"
	"healthcare-portal-service/internal/service/records"
	"healthcare-portal-service/internal/service/stt"
	"healthcare-portal-service/internal/service/stt/google"
	"healthcare-portal-service/internal/service/stt/mock"
	"healthcare-portal-service/internal/service/stt/remote"
	"healthcare-portal-service/internal/service/translate"
	"healthcare-portal-service/internal/session"
	"healthcare-portal-service/internal/storage"
)

// TranscriptStore archives and lists finished transcripts.
type TranscriptStore interface {
	Archive(ctx context.Context, rec models.TranscriptRecord) error
	ListByMeeting(ctx context.Context, meetingID string, limit int) ([]models.TranscriptRecord, error)
}

// Application holds process-wide state for the service.
type Application struct {
	StartupTime time.Time
	Logger      zerolog.Logger
	Cfg         *config.Configuration

	Sessions     *session.Manager
	Meetings     *meeting.Service
	Translator   translate.Translator
	Transcriber  stt.Transcriber
	Localization *i18n.Store
	Records      *records.Repository
	Validator    *schema.Validator
	Publisher    *events.Publisher
	Transcripts  TranscriptStore // nil when the archive is disabled

	redis       *redis.Client
	stopJanitor func()
	archive     *storage.Archive
	google      *google.Adapter
	ready       atomic.Bool
}

// New constructs a new Application from the provided configuration.
func New(cfg *config.Configuration) *Application {
	a := &Application{
		Cfg: cfg,
	}
	a.setupLogger()

	appLogger := a.Logger.With().
		Str("method", "New").
		Logger()

	appLogger.Info().Msg("Healthcare portal application created")
	return a
}

// setupLogger configures zerolog for the service.
func (a *Application) setupLogger() {
	lc := logging.Config{
		Level:   a.Cfg.Observability.LogLevel,
		Format:  a.Cfg.Observability.LogFormat,
		Service: a.Cfg.Service.Name,
	}
	if a.Cfg.Service.Environment == "dev" && os.Getenv("LOG_FORMAT") == "" {
		lc.Format = "console"
	}
	logging.Configure(lc, os.Stdout)

	a.Logger = logging.WithComponent("application")
	a.Logger.Info().
		Str("logLevel", zerolog.GlobalLevel().String()).
		Str("environment", a.Cfg.Service.Environment).
		Msg("Logger setup completed")
}

// Start builds every dependency. Optional backends (Redis, PostgreSQL,
// Kafka) are only contacted when enabled.
func (a *Application) Start(ctx context.Context) error {
	startLogger := a.Logger.With().
		Str("method", "Start").
		Logger()

	a.StartupTime = time.Now().UTC()
	cfg := a.Cfg

	loc, err := i18n.Load(cfg.Localization.DefaultLanguage)
	if err != nil {
		return err
	}
	a.Localization = loc
	a.Validator = schema.New(loc)
	a.Records = records.NewRepository()

	if err := a.startSessions(ctx); err != nil {
		return err
	}

	a.Meetings = meeting.NewService(meeting.Config{
		Provider:         cfg.Meeting.Provider,
		JitsiDomain:      cfg.Meeting.JitsiDomain,
		ZegoAppID:        cfg.Meeting.ZegoAppID,
		ZegoServerSecret: cfg.Meeting.ZegoServerSecret,
		ZegoBaseURL:      cfg.Meeting.ZegoBaseURL,
		LiveKitURL:       cfg.Meeting.LiveKitURL,
		LiveKitAPIKey:    cfg.Meeting.LiveKitAPIKey,
		LiveKitAPISecret: cfg.Meeting.LiveKitAPISecret,
		TokenTTL:         cfg.Meeting.TokenTTL,
	})

	a.Translator = translate.New(translate.Config{
		Endpoint: cfg.Translation.Endpoint,
		APIKey:   cfg.Translation.APIKey,
		Timeout:  cfg.Translation.Timeout,
	})

	if err := a.startTranscriber(ctx); err != nil {
		return err
	}

	a.Publisher = events.New(&events.Config{
		Brokers:        cfg.Kafka.Brokers,
		TopicFragment:  cfg.Kafka.TopicFragment,
		TopicCompleted: cfg.Kafka.TopicCompleted,
		Principal:      cfg.Kafka.Principal,
		Enabled:        cfg.Kafka.Enabled,
	})

	if cfg.Database.Enabled {
		archive, err := storage.Open(ctx, storage.Config{
			URL:      cfg.Database.URL,
			MaxConns: cfg.Database.MaxConns,
			MinConns: cfg.Database.MinConns,
		})
		if err != nil {
			return err
		}
		a.archive = archive
		a.Transcripts = archive
	}

	startLogger.Info().
		Time("startupTime", a.StartupTime).
		Str("meetingProvider", cfg.Meeting.Provider).
		Str("sttProvider", a.Transcriber.Name()).
		Bool("redis", cfg.Redis.Enabled).
		Bool("kafka", a.Publisher.Enabled()).
		Bool("archive", a.Transcripts != nil).
		Msg("Healthcare portal starting")

	a.SetReady(true)
	return nil
}

func (a *Application) startSessions(ctx context.Context) error {
	cfg := a.Cfg
	policy, err := session.NewPolicy(session.PolicyConfig{
		CookieName: cfg.Session.CookieName,
		Secret:     cfg.Session.Secret,
		TTL:        cfg.Session.TTL,
		Secure:     cfg.Session.Secure,
		HTTPOnly:   cfg.Session.HTTPOnly,
		SameSite:   cfg.Session.SameSite,
	})
	if err != nil {
		return err
	}

	var store session.Store
	if !cfg.Redis.Enabled {
		mem := session.NewMemoryStore()
		a.stopJanitor = mem.StartJanitor(cfg.Session.SweepInterval)
		store = mem
	} else {
		a.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := a.redis.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis ping %s: %w", cfg.Redis.Addr, err)
		}
		store = session.NewRedisStore(a.redis, cfg.Redis.KeyPrefix)
	}
	a.Sessions = session.NewManager(policy, store)
	return nil
}

func (a *Application) startTranscriber(ctx context.Context) error {
	tc := a.Cfg.Transcription
	switch tc.Provider {
	case "remote":
		a.Transcriber = remote.New(remote.Config{Endpoint: tc.Endpoint, Timeout: tc.Timeout})
	case "google":
		g, err := google.New(ctx, google.Config{
			LanguageCode:  tc.LanguageCode,
			SampleRateHz:  tc.SampleRateHz,
			AudioEncoding: tc.AudioEncoding,
			Punctuation:   true,
		})
		if err != nil {
			return err
		}
		a.google = g
		a.Transcriber = g
	default:
		a.Transcriber = mock.New(mock.Options{Sentinel: tc.Sentinel})
	}
	return nil
}

// Ready reports whether Start completed and Shutdown has not begun.
func (a *Application) Ready() bool {
	return a.ready.Load()
}

// SetReady flips readiness.
func (a *Application) SetReady(ready bool) {
	a.ready.Store(ready)
}

// Shutdown performs a best-effort cleanup before process exit.
func (a *Application) Shutdown() {
	shutdownLogger := a.Logger.With().
		Str("method", "Shutdown").
		Logger()

	a.SetReady(false)
	if a.Publisher != nil {
		if err := a.Publisher.Close(); err != nil {
			shutdownLogger.Error().Err(err).Msg("Error closing event publisher")
		}
	}
	if a.archive != nil {
		a.archive.Close()
	}
	if a.stopJanitor != nil {
		a.stopJanitor()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			shutdownLogger.Error().Err(err).Msg("Error closing redis client")
		}
	}
	if a.google != nil {
		if err := a.google.Close(); err != nil {
			shutdownLogger.Error().Err(err).Msg("Error closing speech client")
		}
	}

	shutdownLogger.Info().Msg("Healthcare portal shutting down")
}
