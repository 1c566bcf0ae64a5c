package geocoding

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mechanicapp/tracking-system/internal/core/domain"
)

func newTestGeocoder(t *testing.T, h http.HandlerFunc) *GoogleGeocoder {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewGoogleGeocoder(Config{APIKey: "test-key", BaseURL: srv.URL, RequestsPerSecond: 1000}, zerolog.Nop())
}

func TestGoogleGeocoder_ReturnsFirstFormattedAddress(t *testing.T) {
	g := newTestGeocoder(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "19.4326,-99.1332", r.URL.Query().Get("latlng"))
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"OK","results":[
			{"formatted_address":"Plaza de la Constitución S/N, Centro, CDMX"},
			{"formatted_address":"Centro, CDMX"}]}`))
	})

	addr, err := g.Resolve(context.Background(), domain.Coordinate{Lat: 19.4326, Lng: -99.1332})
	require.NoError(t, err)
	assert.Equal(t, "Plaza de la Constitución S/N, Centro, CDMX", addr)
}

func TestGoogleGeocoder_Failures(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		payload string
	}{
		{"zero results", http.StatusOK, `{"status":"ZERO_RESULTS","results":[]}`},
		{"denied", http.StatusOK, `{"status":"REQUEST_DENIED","error_message":"The provided API key is invalid."}`},
		{"http error", http.StatusInternalServerError, `oops`},
		{"bad json", http.StatusOK, `{"status":`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newTestGeocoder(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.payload))
			})

			addr, err := g.Resolve(context.Background(), domain.Coordinate{Lat: 1, Lng: 2})
			assert.Empty(t, addr)
			assert.True(t, errors.Is(err, domain.ErrGeocodingFailed), "got %v", err)
		})
	}
}

func TestGoogleGeocoder_ContextCancelled(t *testing.T) {
	g := newTestGeocoder(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"status":"OK","results":[{"formatted_address":"x"}]}`))
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := g.Resolve(ctx, domain.Coordinate{})
	assert.ErrorIs(t, err, domain.ErrGeocodingFailed)
}
