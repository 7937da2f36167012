package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Store backends selectable through STORE_BACKEND.
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendMongo    = "mongo"
)

// Server captures process-level configuration.
type Server struct {
	Addr        string
	MetricsAddr string
	Environment string
	LogLevel    string

	JWTSigningKey string
	JWTIssuer     string
	JWTTTL        time.Duration

	StoreBackend  string
	DatabaseURL   string
	MongoURI      string
	MongoDatabase string

	Redis   RedisConfig
	Lockout LockoutConfig
	Kafka   KafkaConfig
}

// RedisConfig configures the optional Redis client. Empty URL disables it.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// LockoutConfig bounds failed login attempts per email.
type LockoutConfig struct {
	MaxFailures int
	Window      time.Duration
}

// KafkaConfig configures the audit publisher. No brokers disables it.
type KafkaConfig struct {
	Brokers    []string
	AuditTopic string
}

// FromEnv builds a Server config from environment variables so main stays lean.
// Malformed numeric or duration values keep their defaults and are reported
// by Validate.
func FromEnv() (Server, error) {
	var errs []error
	cfg := Server{
		Addr:          envOr("AGENCYHUB_ADDR", ":5000"),
		MetricsAddr:   os.Getenv("METRICS_ADDR"),
		Environment:   envOr("ENVIRONMENT", "development"),
		LogLevel:      envOr("LOG_LEVEL", "info"),
		JWTSigningKey: os.Getenv("JWT_SIGNING_KEY"),
		JWTIssuer:     envOr("JWT_ISSUER", "agencyhub"),
		JWTTTL:        durationOr("JWT_TTL", 24*time.Hour, &errs),
		StoreBackend:  strings.ToLower(envOr("STORE_BACKEND", BackendMemory)),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		MongoURI:      os.Getenv("MONGO_URI"),
		MongoDatabase: envOr("MONGO_DATABASE", "agencyhub"),
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     intOr("REDIS_POOL_SIZE", 10, &errs),
			MinIdleConns: intOr("REDIS_MIN_IDLE_CONNS", 2, &errs),
			DialTimeout:  durationOr("REDIS_DIAL_TIMEOUT", 5*time.Second, &errs),
			ReadTimeout:  durationOr("REDIS_READ_TIMEOUT", 3*time.Second, &errs),
			WriteTimeout: durationOr("REDIS_WRITE_TIMEOUT", 3*time.Second, &errs),
		},
		Lockout: LockoutConfig{
			MaxFailures: intOr("LOGIN_MAX_FAILURES", 5, &errs),
			Window:      durationOr("LOGIN_LOCKOUT_WINDOW", 15*time.Minute, &errs),
		},
		Kafka: KafkaConfig{
			Brokers:    splitList(os.Getenv("KAFKA_BROKERS")),
			AuditTopic: envOr("KAFKA_AUDIT_TOPIC", "agencyhub.audit"),
		},
	}
	if _, ok := os.LookupEnv("METRICS_ADDR"); !ok {
		cfg.MetricsAddr = ":9090"
	}
	if cfg.JWTSigningKey == "" && !cfg.IsProduction() {
		// Use a default for development - must be overridden in production
		cfg.JWTSigningKey = "dev-secret-key-change-in-production"
	}
	errs = append(errs, cfg.Validate())
	return cfg, errors.Join(errs...)
}

func (s Server) IsProduction() bool {
	return s.Environment == "production" || s.Environment == "prod"
}

// Validate checks cross-field requirements.
func (s Server) Validate() error {
	var errs []error
	if s.JWTSigningKey == "" {
		errs = append(errs, errors.New("JWT_SIGNING_KEY is required"))
	}
	if s.JWTTTL <= 0 {
		errs = append(errs, errors.New("JWT_TTL must be positive"))
	}
	switch s.StoreBackend {
	case BackendMemory:
	case BackendPostgres:
		if s.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for postgres backend"))
		}
	case BackendMongo:
		if s.MongoURI == "" {
			errs = append(errs, errors.New("MONGO_URI is required for mongo backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown STORE_BACKEND %q", s.StoreBackend))
	}
	if s.Lockout.MaxFailures <= 0 {
		errs = append(errs, errors.New("LOGIN_MAX_FAILURES must be positive"))
	}
	return errors.Join(errs...)
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func intOr(key string, fallback int, errs *[]error) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return v
}

func durationOr(key string, fallback time.Duration, errs *[]error) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return v
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
