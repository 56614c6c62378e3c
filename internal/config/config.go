package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/fjod/storefront/internal/repository"
)

type Config struct {
	HTTP     HTTPConfig
	GRPC     GRPCConfig
	Postgres repository.Credentials
	Catalog  CatalogConfig
	Redis    RedisConfig
	Mongo    MongoConfig
	Kafka    KafkaConfig
	Auth     AuthConfig
	LogLevel string
}

type HTTPConfig struct {
	Port               string
	RequestTimeout     time.Duration
	ShutdownTimeout    time.Duration
	MaxRequestBodySize int64
	SecureCookies      bool
}

type GRPCConfig struct {
	Port string
}

type CatalogConfig struct {
	DBPath         string
	MigrationsPath string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	VisitTTL time.Duration
}

type MongoConfig struct {
	URI      string
	Database string
}

type KafkaConfig struct {
	Brokers      []string
	Topic        string
	PollInterval time.Duration
	BatchSize    int
}

type AuthConfig struct {
	JWTSecret string
	Issuer    string
}

// ValidationError lists the configuration keys that are missing or unparsable.
type ValidationError struct {
	fields []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation failed: missing or invalid fields [%s]", strings.Join(e.fields, ", "))
}

func (e *ValidationError) Fields() []string {
	out := make([]string, len(e.fields))
	copy(out, e.fields)
	return out
}

type loaderOptions struct {
	envMap       map[string]string
	useSystemEnv bool
}

type Option func(*loaderOptions)

// WithEnvMap supplies values that take precedence over the process environment.
func WithEnvMap(values map[string]string) Option {
	return func(o *loaderOptions) {
		o.envMap = values
	}
}

func WithoutSystemEnv() Option {
	return func(o *loaderOptions) {
		o.useSystemEnv = false
	}
}

type env struct {
	lookup  func(string) (string, bool)
	invalid []string
}

func Load(opts ...Option) (Config, error) {
	options := loaderOptions{useSystemEnv: true}
	for _, opt := range opts {
		opt(&options)
	}

	e := &env{lookup: func(key string) (string, bool) {
		if value, ok := options.envMap[key]; ok {
			return value, true
		}
		if options.useSystemEnv {
			return os.LookupEnv(key)
		}
		return "", false
	}}

	cfg := Config{
		HTTP: HTTPConfig{
			Port:               e.getEnv("HTTP_PORT", "8080"),
			RequestTimeout:     e.getDuration("HTTP_REQUEST_TIMEOUT", 30*time.Second),
			ShutdownTimeout:    e.getDuration("HTTP_SHUTDOWN_TIMEOUT", 10*time.Second),
			MaxRequestBodySize: 1 << 20,
			SecureCookies:      e.getBool("HTTP_SECURE_COOKIES", false),
		},
		GRPC: GRPCConfig{
			Port: e.getEnv("GRPC_PORT", "50060"),
		},
		Postgres: repository.Credentials{
			Host:              e.getEnv("DB_HOST", "localhost"),
			Port:              e.getInt("DB_PORT", 5432),
			User:              e.getEnv("DB_USER", "postgres"),
			Password:          e.getEnv("DB_PASSWORD", "postgres"),
			DBName:            e.getEnv("DB_NAME", "storefront"),
			SSLMode:           e.getEnv("DB_SSLMODE", "disable"),
			MigrationsDirPath: e.getEnv("MIGRATIONS_PATH", "./internal/repository/migrations"),
		},
		Catalog: CatalogConfig{
			DBPath:         e.getEnv("CATALOG_DB_PATH", "./data/catalog.db"),
			MigrationsPath: e.getEnv("CATALOG_MIGRATIONS_PATH", "./internal/catalog/migrations"),
		},
		Redis: RedisConfig{
			Addr:     e.getEnv("REDIS_ADDR", "localhost:6379"),
			Password: e.getEnv("REDIS_PASSWORD", ""),
			DB:       e.getInt("REDIS_DB", 0),
			VisitTTL: e.getDuration("VISIT_TTL", 24*time.Hour),
		},
		Mongo: MongoConfig{
			URI:      e.getEnv("MONGO_URI", "mongodb://localhost:27017"),
			Database: e.getEnv("MONGO_DATABASE", "storefront"),
		},
		Kafka: KafkaConfig{
			Brokers:      e.getCSV("KAFKA_BROKERS", []string{"localhost:9092"}),
			Topic:        e.getEnv("KAFKA_TOPIC", "order-events"),
			PollInterval: e.getDuration("OUTBOX_POLL_INTERVAL", time.Second),
			BatchSize:    e.getInt("OUTBOX_BATCH_SIZE", 100),
		},
		Auth: AuthConfig{
			JWTSecret: e.getEnv("JWT_SECRET", ""),
			Issuer:    e.getEnv("JWT_ISSUER", "storefront"),
		},
		LogLevel: e.getEnv("LOG_LEVEL", "info"),
	}

	if err := validate(cfg, e.invalid); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func validate(cfg Config, invalid []string) error {
	fields := append([]string(nil), invalid...)

	if cfg.Postgres.Port <= 0 {
		fields = append(fields, "DB_PORT")
	}
	if cfg.HTTP.RequestTimeout <= 0 {
		fields = append(fields, "HTTP_REQUEST_TIMEOUT")
	}
	if cfg.Redis.VisitTTL <= 0 {
		fields = append(fields, "VISIT_TTL")
	}
	if len(cfg.Kafka.Brokers) == 0 {
		fields = append(fields, "KAFKA_BROKERS")
	}
	if cfg.Kafka.BatchSize <= 0 {
		fields = append(fields, "OUTBOX_BATCH_SIZE")
	}
	if len(cfg.Auth.JWTSecret) < 16 {
		fields = append(fields, "JWT_SECRET")
	}

	if len(fields) > 0 {
		return &ValidationError{fields: dedupe(fields)}
	}
	return nil
}

func (e *env) getEnv(key, defaultValue string) string {
	if value, ok := e.lookup(key); ok && value != "" {
		return value
	}
	return defaultValue
}

func (e *env) getInt(key string, defaultValue int) int {
	value, ok := e.lookup(key)
	if !ok || value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		e.invalid = append(e.invalid, key)
		return defaultValue
	}
	return parsed
}

func (e *env) getDuration(key string, defaultValue time.Duration) time.Duration {
	value, ok := e.lookup(key)
	if !ok || value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		e.invalid = append(e.invalid, key)
		return defaultValue
	}
	return d
}

func (e *env) getBool(key string, defaultValue bool) bool {
	value, ok := e.lookup(key)
	if !ok || value == "" {
		return defaultValue
	}
	switch strings.ToLower(value) {
	case "true", "1", "yes", "on":
		return true
	case "false", "0", "no", "off":
		return false
	}
	e.invalid = append(e.invalid, key)
	return defaultValue
}

func (e *env) getCSV(key string, defaultValue []string) []string {
	raw, ok := e.lookup(key)
	if !ok || strings.TrimSpace(raw) == "" {
		return defaultValue
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func dedupe(fields []string) []string {
	seen := make(map[string]struct{}, len(fields))
	out := fields[:0]
	for _, f := range fields {
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}
	return out
}
