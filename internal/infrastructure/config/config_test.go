package config

import (
	"context"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadWith_Defaults(t *testing.T) {
	cfg, err := LoadWith(context.Background(), envconfig.MapLookuper(map[string]string{}))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.True(t, cfg.PermissionGranted)
	assert.Equal(t, 15*time.Second, cfg.Tracking.InitialFixTimeout)
	assert.Equal(t, 30.0, cfg.Tracking.AssumedSpeedKmh)
	assert.Equal(t, 100.0, cfg.Tracking.ArrivalRadiusMeters)
	assert.Equal(t, "location-updates", cfg.Kafka.Topic)
	assert.Equal(t, []string{"localhost:9092"}, cfg.Kafka.Brokers)
	assert.Empty(t, cfg.Backend.BaseURL)
}

func TestLoadWith_Overrides(t *testing.T) {
	cfg, err := LoadWith(context.Background(), envconfig.MapLookuper(map[string]string{
		"PORT":                           "9090",
		"LOCATION_PERMISSION_GRANTED":    "false",
		"TRACKING_INITIAL_FIX_TIMEOUT":   "3s",
		"TRACKING_ASSUMED_SPEED_KMH":     "45.5",
		"TRACKING_ARRIVAL_RADIUS_METERS": "250",
		"KAFKA_BROKERS":                  "k1:9092,k2:9092",
		"BACKEND_BASE_URL":               "https://api.example.com",
	}))
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.False(t, cfg.PermissionGranted)
	assert.Equal(t, 3*time.Second, cfg.Tracking.InitialFixTimeout)
	assert.Equal(t, 45.5, cfg.Tracking.AssumedSpeedKmh)
	assert.Equal(t, 250.0, cfg.Tracking.ArrivalRadiusMeters)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "https://api.example.com", cfg.Backend.BaseURL)
}

func TestLoadWith_InvalidDuration(t *testing.T) {
	_, err := LoadWith(context.Background(), envconfig.MapLookuper(map[string]string{
		"TRACKING_INITIAL_FIX_TIMEOUT": "soon",
	}))
	assert.Error(t, err)
}
