// Package config loads the portal service configuration from the environment,
// an optional .env file and an optional YAML overlay.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Configuration is the full service configuration.
type Configuration struct {
	Service       ServiceConfig       `yaml:"service"`
	Session       SessionConfig       `yaml:"session"`
	Redis         RedisConfig         `yaml:"redis"`
	Database      DatabaseConfig      `yaml:"database"`
	Kafka         KafkaConfig         `yaml:"kafka"`
	Meeting       MeetingConfig       `yaml:"meeting"`
	Translation   TranslationConfig   `yaml:"translation"`
	Transcription TranscriptionConfig `yaml:"transcription"`
	Capture       CaptureConfig       `yaml:"capture"`
	Localization  LocalizationConfig  `yaml:"localization"`
	Observability ObservabilityConfig `yaml:"observability"`
}

type ServiceConfig struct {
	Name        string `yaml:"name"`
	Principal   string `yaml:"principal"`
	Environment string `yaml:"environment"`
	HTTPPort    string `yaml:"http_port"`
	GRPCPort    string `yaml:"grpc_port"`
	MetricsAddr string `yaml:"metrics_addr"`
}

// SessionConfig is the process-wide cookie/session policy.
type SessionConfig struct {
	CookieName    string        `yaml:"cookie_name"`
	Secret        string        `yaml:"secret"`
	TTL           time.Duration `yaml:"ttl"`
	Secure        bool          `yaml:"secure"`
	HTTPOnly      bool          `yaml:"http_only"`
	SameSite      string        `yaml:"same_site"`      // lax, strict, none
	SweepInterval time.Duration `yaml:"sweep_interval"` // memory store only
}

type RedisConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Addr      string `yaml:"addr"`
	Password  string `yaml:"password"`
	DB        int    `yaml:"db"`
	KeyPrefix string `yaml:"key_prefix"`
}

type DatabaseConfig struct {
	Enabled  bool   `yaml:"enabled"`
	URL      string `yaml:"url"`
	MaxConns int32  `yaml:"max_conns"`
	MinConns int32  `yaml:"min_conns"`
}

type KafkaConfig struct {
	Enabled        bool     `yaml:"enabled"`
	Brokers        []string `yaml:"brokers"`
	TopicFragment  string   `yaml:"topic_fragment"`
	TopicCompleted string   `yaml:"topic_completed"`
	Principal      string   `yaml:"principal"`
}

// MeetingConfig holds the video provider settings used to build meeting
// links and join tokens.
type MeetingConfig struct {
	Provider         string        `yaml:"provider"` // jitsi, zego, livekit
	JitsiDomain      string        `yaml:"jitsi_domain"`
	ZegoAppID        uint32        `yaml:"zego_app_id"`
	ZegoServerSecret string        `yaml:"zego_server_secret"`
	ZegoBaseURL      string        `yaml:"zego_base_url"`
	LiveKitURL       string        `yaml:"livekit_url"`
	LiveKitAPIKey    string        `yaml:"livekit_api_key"`
	LiveKitAPISecret string        `yaml:"livekit_api_secret"`
	TokenTTL         time.Duration `yaml:"token_ttl"`
}

type TranslationConfig struct {
	Endpoint string        `yaml:"endpoint"`
	APIKey   string        `yaml:"api_key"`
	Timeout  time.Duration `yaml:"timeout"`
}

// TranscriptionConfig selects the recognizer used by the capture loop and by
// the /v1/transcribe endpoint.
type TranscriptionConfig struct {
	Provider      string        `yaml:"provider"` // remote, google, mock
	Endpoint      string        `yaml:"endpoint"`
	Sentinel      string        `yaml:"sentinel"`
	Timeout       time.Duration `yaml:"timeout"`
	LanguageCode  string        `yaml:"language_code"`
	SampleRateHz  int           `yaml:"sample_rate_hz"`
	AudioEncoding string        `yaml:"audio_encoding"`
}

type CaptureConfig struct {
	SegmentPeriod   time.Duration `yaml:"segment_period"`
	MaxSegmentBytes int64         `yaml:"max_segment_bytes"`
	Ordered         bool          `yaml:"ordered"`
	StartTimeout    time.Duration `yaml:"start_timeout"`
}

type LocalizationConfig struct {
	DefaultLanguage string `yaml:"default_language"`
}

type ObservabilityConfig struct {
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// Defaults returns the configuration used when nothing is overridden.
func Defaults() *Configuration {
	return &Configuration{
		Service: ServiceConfig{
			Name:        "healthcare-portal-service",
			Principal:   "svc-healthcare-portal",
			Environment: "prod",
			HTTPPort:    "8080",
			GRPCPort:    "50051",
			MetricsAddr: ":9090",
		},
		Session: SessionConfig{
			CookieName:    "portal.sid",
			TTL:           24 * time.Hour,
			Secure:        true,
			HTTPOnly:      true,
			SameSite:      "lax",
			SweepInterval: time.Minute,
		},
		Redis: RedisConfig{
			Addr:      "localhost:6379",
			KeyPrefix: "portal:sess:",
		},
		Database: DatabaseConfig{
			MaxConns: 10,
			MinConns: 1,
		},
		Kafka: KafkaConfig{
			TopicFragment:  "consultation.transcript.fragment",
			TopicCompleted: "consultation.transcript.completed",
		},
		Meeting: MeetingConfig{
			Provider:    "jitsi",
			JitsiDomain: "meet.jit.si",
			ZegoBaseURL: "https://zegocloud.com/room",
			TokenTTL:    2 * time.Hour,
		},
		Translation: TranslationConfig{
			Timeout: 10 * time.Second,
		},
		Transcription: TranscriptionConfig{
			Provider:      "mock",
			Sentinel:      "Transcription failed",
			Timeout:       30 * time.Second,
			LanguageCode:  "en-US",
			SampleRateHz:  16000,
			AudioEncoding: "LINEAR16",
		},
		Capture: CaptureConfig{
			SegmentPeriod:   3 * time.Second,
			MaxSegmentBytes: 2 * 1024 * 1024,
			StartTimeout:    15 * time.Second,
		},
		Localization: LocalizationConfig{
			DefaultLanguage: "English",
		},
		Observability: ObservabilityConfig{
			LogLevel:  "info",
			LogFormat: "json",
		},
	}
}

// Load builds the configuration. Precedence, lowest first: defaults, the YAML
// file named by CONFIG_FILE, .env, process environment.
func Load() (*Configuration, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	cfg := Defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := applyYAMLFile(path, cfg); err != nil {
			return nil, err
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyYAMLFile(path string, cfg *Configuration) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("config: decode %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Configuration) error {
	s := &cfg.Service
	s.Name = envOrDefault("SERVICE_NAME", s.Name)
	s.Principal = envOrDefault("SERVICE_PRINCIPAL", s.Principal)
	s.Environment = envOrDefault("ENV", s.Environment)
	s.HTTPPort = envOrDefault("HTTP_PORT", s.HTTPPort)
	s.GRPCPort = envOrDefault("GRPC_PORT", s.GRPCPort)
	s.MetricsAddr = envOrDefault("METRICS_ADDR", s.MetricsAddr)

	ss := &cfg.Session
	ss.CookieName = envOrDefault("SESSION_COOKIE_NAME", ss.CookieName)
	ss.Secret = envOrDefault("SESSION_SECRET", ss.Secret)
	ss.TTL = envOrDefaultDuration("SESSION_TTL", ss.TTL)
	ss.Secure = envOrDefaultBool("SESSION_COOKIE_SECURE", ss.Secure)
	ss.HTTPOnly = envOrDefaultBool("SESSION_COOKIE_HTTP_ONLY", ss.HTTPOnly)
	ss.SameSite = strings.ToLower(envOrDefault("SESSION_COOKIE_SAME_SITE", ss.SameSite))
	ss.SweepInterval = envOrDefaultDuration("SESSION_SWEEP_INTERVAL", ss.SweepInterval)

	r := &cfg.Redis
	r.Enabled = envOrDefaultBool("REDIS_ENABLED", r.Enabled)
	r.Addr = envOrDefault("REDIS_ADDR", r.Addr)
	r.Password = envOrDefault("REDIS_PASSWORD", r.Password)
	r.DB = envOrDefaultInt("REDIS_DB", r.DB)
	r.KeyPrefix = envOrDefault("REDIS_KEY_PREFIX", r.KeyPrefix)

	d := &cfg.Database
	d.URL = envOrDefault("DATABASE_URL", d.URL)
	d.Enabled = envOrDefaultBool("DATABASE_ENABLED", d.Enabled || d.URL != "")
	d.MaxConns = int32(envOrDefaultInt("DATABASE_MAX_CONNS", int(d.MaxConns)))
	d.MinConns = int32(envOrDefaultInt("DATABASE_MIN_CONNS", int(d.MinConns)))

	k := &cfg.Kafka
	k.Enabled = envOrDefaultBool("KAFKA_ENABLED", k.Enabled)
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		k.Brokers = splitList(brokers)
	}
	k.TopicFragment = envOrDefault("KAFKA_TOPIC_FRAGMENT", k.TopicFragment)
	k.TopicCompleted = envOrDefault("KAFKA_TOPIC_COMPLETED", k.TopicCompleted)
	k.Principal = envOrDefault("KAFKA_PRINCIPAL", k.Principal)
	if k.Principal == "" {
		k.Principal = s.Principal
	}

	m := &cfg.Meeting
	m.Provider = strings.ToLower(envOrDefault("MEETING_PROVIDER", m.Provider))
	m.JitsiDomain = envOrDefault("JITSI_DOMAIN", m.JitsiDomain)
	if v := os.Getenv("ZEGO_APP_ID"); v != "" {
		id, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			return fmt.Errorf("config: invalid ZEGO_APP_ID %q: must be an unsigned 32-bit integer", v)
		}
		m.ZegoAppID = uint32(id)
	}
	m.ZegoServerSecret = envOrDefault("ZEGO_SERVER_SECRET", m.ZegoServerSecret)
	m.ZegoBaseURL = envOrDefault("ZEGO_BASE_URL", m.ZegoBaseURL)
	m.LiveKitURL = envOrDefault("LIVEKIT_URL", m.LiveKitURL)
	m.LiveKitAPIKey = envOrDefault("LIVEKIT_API_KEY", m.LiveKitAPIKey)
	m.LiveKitAPISecret = envOrDefault("LIVEKIT_API_SECRET", m.LiveKitAPISecret)
	m.TokenTTL = envOrDefaultDuration("MEETING_TOKEN_TTL", m.TokenTTL)

	t := &cfg.Translation
	t.Endpoint = envOrDefault("TRANSLATION_ENDPOINT", t.Endpoint)
	t.APIKey = envOrDefault("TRANSLATION_API_KEY", t.APIKey)
	t.Timeout = envOrDefaultDuration("TRANSLATION_TIMEOUT", t.Timeout)

	tr := &cfg.Transcription
	tr.Provider = strings.ToLower(envOrDefault("TRANSCRIPTION_PROVIDER", tr.Provider))
	tr.Endpoint = envOrDefault("TRANSCRIPTION_ENDPOINT", tr.Endpoint)
	tr.Sentinel = envOrDefault("TRANSCRIPTION_SENTINEL", tr.Sentinel)
	tr.Timeout = envOrDefaultDuration("TRANSCRIPTION_TIMEOUT", tr.Timeout)
	tr.LanguageCode = envOrDefault("STT_LANGUAGE_CODE", tr.LanguageCode)
	tr.SampleRateHz = envOrDefaultInt("STT_SAMPLE_RATE_HZ", tr.SampleRateHz)
	tr.AudioEncoding = envOrDefault("STT_AUDIO_ENCODING", tr.AudioEncoding)

	c := &cfg.Capture
	c.SegmentPeriod = envOrDefaultDuration("CAPTURE_SEGMENT_PERIOD", c.SegmentPeriod)
	c.MaxSegmentBytes = int64(envOrDefaultInt("CAPTURE_MAX_SEGMENT_BYTES", int(c.MaxSegmentBytes)))
	c.Ordered = envOrDefaultBool("CAPTURE_ORDERED", c.Ordered)
	c.StartTimeout = envOrDefaultDuration("CAPTURE_START_TIMEOUT", c.StartTimeout)

	cfg.Localization.DefaultLanguage = envOrDefault("DEFAULT_LANGUAGE", cfg.Localization.DefaultLanguage)

	o := &cfg.Observability
	o.LogLevel = envOrDefault("LOG_LEVEL", o.LogLevel)
	o.LogFormat = envOrDefault("LOG_FORMAT", o.LogFormat)
	return nil
}

// Validate rejects configurations the service cannot start with.
func (c *Configuration) Validate() error {
	if c.Session.Secret == "" {
		if c.Service.Environment != "dev" {
			return fmt.Errorf("config: SESSION_SECRET is required outside dev")
		}
		c.Session.Secret = "dev-only-session-secret"
	}
	switch c.Session.SameSite {
	case "lax", "strict", "none":
	default:
		return fmt.Errorf("config: invalid same_site %q (must be lax, strict or none)", c.Session.SameSite)
	}
	if c.Session.SameSite == "none" && !c.Session.Secure {
		return fmt.Errorf("config: same_site=none requires a secure cookie")
	}
	switch c.Meeting.Provider {
	case "jitsi", "zego", "livekit":
	default:
		return fmt.Errorf("config: invalid meeting provider %q", c.Meeting.Provider)
	}
	if c.Meeting.Provider == "zego" && c.Meeting.ZegoAppID == 0 {
		return fmt.Errorf("config: ZEGO_APP_ID is required for the zego provider")
	}
	switch c.Transcription.Provider {
	case "mock":
		if c.Service.Environment != "dev" {
			return fmt.Errorf("config: the mock transcription provider is only allowed in dev; set TRANSCRIPTION_PROVIDER to remote or google")
		}
	case "google":
	case "remote":
		if c.Transcription.Endpoint == "" {
			return fmt.Errorf("config: TRANSCRIPTION_ENDPOINT is required for the remote provider")
		}
	default:
		return fmt.Errorf("config: invalid transcription provider %q", c.Transcription.Provider)
	}
	if c.Capture.SegmentPeriod <= 0 {
		return fmt.Errorf("config: capture segment period must be positive, got %v", c.Capture.SegmentPeriod)
	}
	if c.Database.Enabled && c.Database.URL == "" {
		return fmt.Errorf("config: DATABASE_URL is required when the database is enabled")
	}
	return nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envOrDefaultInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envOrDefaultBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func envOrDefaultDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
