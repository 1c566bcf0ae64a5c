package config

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port      string `env:"PORT,      default=8080"`
	Env       string `env:"ENV,       default=development"`
	JWTSecret string `env:"JWT_SECRET"`
	LogLevel  string `env:"LOG_LEVEL, default=info"`

	// PermissionGranted is the answer given when the service prompts for
	// location permission on behalf of its devices.
	PermissionGranted bool `env:"LOCATION_PERMISSION_GRANTED, default=true"`

	Mongo    MongoConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Tracking TrackingConfig
	Geocoder GeocoderConfig
	Backend  BackendConfig
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=tracking_system"`
}

type RedisConfig struct {
	Addr     string        `env:"REDIS_ADDR,      default=localhost:6379"`
	DB       int           `env:"REDIS_DB,        default=0"`
	DedupTTL time.Duration `env:"REDIS_DEDUP_TTL, default=24h"`
}

type KafkaConfig struct {
	Enabled  bool     `env:"KAFKA_ENABLED,   default=false"`
	Brokers  []string `env:"KAFKA_BROKERS,   default=localhost:9092"`
	Topic    string   `env:"KAFKA_TOPIC,     default=location-updates"`
	FixTopic string   `env:"KAFKA_FIX_TOPIC, default=device-fixes"`
	GroupID  string   `env:"KAFKA_GROUP_ID,  default=tracking-service"`
}

type TrackingConfig struct {
	InitialFixTimeout   time.Duration `env:"TRACKING_INITIAL_FIX_TIMEOUT,    default=15s"`
	AssumedSpeedKmh     float64       `env:"TRACKING_ASSUMED_SPEED_KMH,      default=30"`
	ArrivalRadiusMeters float64       `env:"TRACKING_ARRIVAL_RADIUS_METERS, default=100"`
	Workers             int           `env:"TRACKING_WORKERS,                default=8"`
	QueueSize           int           `env:"TRACKING_QUEUE_SIZE,             default=256"`
}

type GeocoderConfig struct {
	APIKey   string        `env:"GOOGLE_MAPS_API_KEY"`
	BaseURL  string        `env:"GEOCODER_BASE_URL,  default=https://maps.googleapis.com/maps/api/geocode/json"`
	Timeout  time.Duration `env:"GEOCODER_TIMEOUT,   default=5s"`
	CacheTTL time.Duration `env:"GEOCODER_CACHE_TTL, default=24h"`
	RPS      float64       `env:"GEOCODER_RPS,       default=10"`
}

type BackendConfig struct {
	// BaseURL of the marketplace REST API. Job lookups are skipped when empty.
	BaseURL string        `env:"BACKEND_BASE_URL"`
	Token   string        `env:"BACKEND_TOKEN"`
	Timeout time.Duration `env:"BACKEND_TIMEOUT, default=5s"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load(log zerolog.Logger) *Config {
	cfg, err := LoadWith(context.Background(), envconfig.OsLookuper())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	return cfg
}

// LoadWith reads configuration through the given lookuper.
func LoadWith(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}
