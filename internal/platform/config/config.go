// Package config assembles process configuration from defaults and the
// environment. Components receive their section at construction time.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	pstrings "bubble/pkg/platform/strings"
)

// Backend selects a storage implementation.
type Backend string

const (
	BackendMemory   Backend = "memory"
	BackendPostgres Backend = "postgres"
	BackendRedis    Backend = "redis"
)

// Config is the root configuration for the server and the operator CLI.
type Config struct {
	Server   Server
	Geofence GeofenceConfig
	History  HistoryConfig
	Registry RegistryConfig
	Trust    TrustConfig
	NearMiss NearMissConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string
	AdminToken      string
	ShutdownTimeout time.Duration
	Environment     string
}

// GeofenceConfig tunes the status classifier.
type GeofenceConfig struct {
	MovingThresholdKmh float64
}

// HistoryConfig covers retention, sweeping and record sealing.
type HistoryConfig struct {
	Backend       Backend
	Retention     time.Duration
	SweepInterval time.Duration
	// MasterKeys holds "ref:base64key" entries; ActiveKeyRef seals new records.
	MasterKeys   []string
	ActiveKeyRef string
}

// RegistryConfig covers address registration rules.
type RegistryConfig struct {
	Backend            Backend
	ChangeLock         time.Duration
	MinRadiusMeters    float64
	MaxRadiusMeters    float64
	MaxCustomAddresses int
	HomeRadiusMeters   float64
	WorkRadiusMeters   float64
	SchoolRadiusMeters float64
	CustomRadiusMeters float64
}

// TrustConfig covers pair eligibility.
type TrustConfig struct {
	Backend     Backend
	MinLevel    int
	MutualTrust bool
}

// NearMissConfig covers the nightly batch and delivery.
type NearMissConfig struct {
	Backend          Backend
	RadiusMeters     float64
	TimeWindow       time.Duration
	Workers          int
	RunHour          int
	MorningHour      int
	TimeZone         string
	DeliveryInterval time.Duration
	DeliveryBatch    int
}

type PostgresConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type KafkaConfig struct {
	Brokers           []string
	Topic             string
	ClientID          string
	Partitions        int32
	ReplicationFactor int16
}

// DefaultConfig returns the configuration used when no environment overrides
// are present. Everything runs in memory.
func DefaultConfig() Config {
	return Config{
		Server: Server{
			Addr:            ":8080",
			ShutdownTimeout: 10 * time.Second,
			Environment:     "development",
		},
		Geofence: GeofenceConfig{
			MovingThresholdKmh: 5,
		},
		History: HistoryConfig{
			Backend:       BackendMemory,
			Retention:     7 * 24 * time.Hour,
			SweepInterval: time.Hour,
		},
		Registry: RegistryConfig{
			Backend:            BackendMemory,
			ChangeLock:         90 * 24 * time.Hour,
			MinRadiusMeters:    10,
			MaxRadiusMeters:    1000,
			MaxCustomAddresses: 10,
			HomeRadiusMeters:   200,
			WorkRadiusMeters:   500,
			SchoolRadiusMeters: 500,
			CustomRadiusMeters: 100,
		},
		Trust: TrustConfig{
			Backend:  BackendMemory,
			MinLevel: 5,
		},
		NearMiss: NearMissConfig{
			Backend:          BackendMemory,
			RadiusMeters:     50,
			TimeWindow:       30 * time.Minute,
			Workers:          4,
			RunHour:          3,
			MorningHour:      8,
			TimeZone:         "UTC",
			DeliveryInterval: time.Minute,
			DeliveryBatch:    500,
		},
		Postgres: PostgresConfig{
			MaxOpenConns:    20,
			MaxIdleConns:    5,
			ConnMaxLifetime: 30 * time.Minute,
		},
		Redis: RedisConfig{
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Kafka: KafkaConfig{
			Topic:             "bubble.nearmiss.events",
			ClientID:          "bubble",
			Partitions:        3,
			ReplicationFactor: 1,
		},
	}
}

// FromEnv overlays environment variables on DefaultConfig.
func FromEnv() (Config, error) {
	cfg := DefaultConfig()

	cfg.Server.Addr = getEnv("BUBBLE_ADDR", cfg.Server.Addr)
	cfg.Server.AdminToken = getEnv("BUBBLE_ADMIN_TOKEN", cfg.Server.AdminToken)
	cfg.Server.ShutdownTimeout = getEnvAsDuration("BUBBLE_SHUTDOWN_TIMEOUT", cfg.Server.ShutdownTimeout)
	cfg.Server.Environment = getEnv("BUBBLE_ENV", cfg.Server.Environment)

	cfg.Geofence.MovingThresholdKmh = getEnvAsFloat("GEOFENCE_MOVING_THRESHOLD_KMH", cfg.Geofence.MovingThresholdKmh)

	cfg.History.Backend = Backend(getEnv("HISTORY_BACKEND", string(cfg.History.Backend)))
	cfg.History.Retention = getEnvAsDuration("HISTORY_RETENTION", cfg.History.Retention)
	cfg.History.SweepInterval = getEnvAsDuration("HISTORY_SWEEP_INTERVAL", cfg.History.SweepInterval)
	cfg.History.MasterKeys = pstrings.DedupeAndTrim(getEnvAsSlice("HISTORY_MASTER_KEYS", cfg.History.MasterKeys))
	cfg.History.ActiveKeyRef = getEnv("HISTORY_ACTIVE_KEY_REF", cfg.History.ActiveKeyRef)

	cfg.Registry.Backend = Backend(getEnv("REGISTRY_BACKEND", string(cfg.Registry.Backend)))
	cfg.Registry.ChangeLock = getEnvAsDuration("REGISTRY_CHANGE_LOCK", cfg.Registry.ChangeLock)
	cfg.Registry.MinRadiusMeters = getEnvAsFloat("REGISTRY_MIN_RADIUS_METERS", cfg.Registry.MinRadiusMeters)
	cfg.Registry.MaxRadiusMeters = getEnvAsFloat("REGISTRY_MAX_RADIUS_METERS", cfg.Registry.MaxRadiusMeters)
	cfg.Registry.MaxCustomAddresses = getEnvAsInt("REGISTRY_MAX_CUSTOM_ADDRESSES", cfg.Registry.MaxCustomAddresses)

	cfg.Trust.Backend = Backend(getEnv("TRUST_BACKEND", string(cfg.Trust.Backend)))
	cfg.Trust.MinLevel = getEnvAsInt("TRUST_MIN_LEVEL", cfg.Trust.MinLevel)
	cfg.Trust.MutualTrust = getEnvAsBool("TRUST_MUTUAL", cfg.Trust.MutualTrust)

	cfg.NearMiss.Backend = Backend(getEnv("NEARMISS_BACKEND", string(cfg.NearMiss.Backend)))
	cfg.NearMiss.RadiusMeters = getEnvAsFloat("NEARMISS_RADIUS_METERS", cfg.NearMiss.RadiusMeters)
	cfg.NearMiss.TimeWindow = getEnvAsDuration("NEARMISS_TIME_WINDOW", cfg.NearMiss.TimeWindow)
	cfg.NearMiss.Workers = getEnvAsInt("NEARMISS_WORKERS", cfg.NearMiss.Workers)
	cfg.NearMiss.RunHour = getEnvAsInt("NEARMISS_RUN_HOUR", cfg.NearMiss.RunHour)
	cfg.NearMiss.MorningHour = getEnvAsInt("NEARMISS_MORNING_HOUR", cfg.NearMiss.MorningHour)
	cfg.NearMiss.TimeZone = getEnv("NEARMISS_TIME_ZONE", cfg.NearMiss.TimeZone)
	cfg.NearMiss.DeliveryInterval = getEnvAsDuration("NEARMISS_DELIVERY_INTERVAL", cfg.NearMiss.DeliveryInterval)
	cfg.NearMiss.DeliveryBatch = getEnvAsInt("NEARMISS_DELIVERY_BATCH", cfg.NearMiss.DeliveryBatch)

	cfg.Postgres.DSN = getEnv("DATABASE_URL", cfg.Postgres.DSN)
	cfg.Postgres.MaxOpenConns = getEnvAsInt("DATABASE_MAX_OPEN_CONNS", cfg.Postgres.MaxOpenConns)
	cfg.Postgres.MaxIdleConns = getEnvAsInt("DATABASE_MAX_IDLE_CONNS", cfg.Postgres.MaxIdleConns)
	cfg.Postgres.ConnMaxLifetime = getEnvAsDuration("DATABASE_CONN_MAX_LIFETIME", cfg.Postgres.ConnMaxLifetime)

	cfg.Redis.URL = getEnv("REDIS_URL", cfg.Redis.URL)
	cfg.Redis.PoolSize = getEnvAsInt("REDIS_POOL_SIZE", cfg.Redis.PoolSize)

	cfg.Kafka.Brokers = pstrings.DedupeAndTrim(getEnvAsSlice("KAFKA_BROKERS", cfg.Kafka.Brokers))
	cfg.Kafka.Topic = getEnv("KAFKA_TOPIC", cfg.Kafka.Topic)
	cfg.Kafka.ClientID = getEnv("KAFKA_CLIENT_ID", cfg.Kafka.ClientID)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects combinations that would fail later at wiring time.
func (c Config) Validate() error {
	for name, b := range map[string]Backend{
		"history":  c.History.Backend,
		"registry": c.Registry.Backend,
		"trust":    c.Trust.Backend,
		"nearmiss": c.NearMiss.Backend,
	} {
		switch b {
		case BackendMemory:
		case BackendPostgres:
			if c.Postgres.DSN == "" {
				return fmt.Errorf("%s backend postgres requires DATABASE_URL", name)
			}
		case BackendRedis:
			if name != "history" {
				return fmt.Errorf("%s backend %q is not supported", name, b)
			}
			if c.Redis.URL == "" {
				return fmt.Errorf("history backend redis requires REDIS_URL")
			}
		default:
			return fmt.Errorf("%s backend %q is not supported", name, b)
		}
	}
	if c.NearMiss.Workers < 1 {
		return fmt.Errorf("nearmiss workers must be at least 1")
	}
	if c.NearMiss.RunHour < 0 || c.NearMiss.RunHour > 23 || c.NearMiss.MorningHour < 0 || c.NearMiss.MorningHour > 23 {
		return fmt.Errorf("nearmiss hours must be within 0..23")
	}
	if _, err := time.LoadLocation(c.NearMiss.TimeZone); err != nil {
		return fmt.Errorf("nearmiss time zone: %w", err)
	}
	if c.Trust.MinLevel < 1 || c.Trust.MinLevel > 5 {
		return fmt.Errorf("trust min level must be within 1..5")
	}
	if c.Registry.MinRadiusMeters <= 0 || c.Registry.MaxRadiusMeters < c.Registry.MinRadiusMeters {
		return fmt.Errorf("registry radius bounds are invalid")
	}
	return nil
}

// Location resolves the configured batch time zone.
func (c NearMissConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value, err := strconv.ParseFloat(getEnv(key, ""), 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value, err := strconv.ParseBool(getEnv(key, "")); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, err := time.ParseDuration(getEnv(key, "")); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	return strings.Split(valueStr, ",")
}
