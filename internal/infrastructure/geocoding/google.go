package geocoding

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/mechanicapp/tracking-system/internal/core/domain"
	"github.com/mechanicapp/tracking-system/internal/core/ports"
)

const (
	DefaultBaseURL = "https://maps.googleapis.com/maps/api/geocode/json"
	defaultTimeout = 5 * time.Second
	defaultRPS     = 10
)

// Config holds the Google Geocoding API settings.
type Config struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
	// RequestsPerSecond caps outgoing lookups. Zero uses the default.
	RequestsPerSecond float64
}

// GoogleGeocoder resolves coordinates through the Google Geocoding API.
type GoogleGeocoder struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	log        zerolog.Logger
}

var _ ports.ReverseGeocoder = (*GoogleGeocoder)(nil)

type geocodeResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Results      []struct {
		FormattedAddress string `json:"formatted_address"`
	} `json:"results"`
}

func NewGoogleGeocoder(cfg Config, log zerolog.Logger) *GoogleGeocoder {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = defaultRPS
	}
	return &GoogleGeocoder{
		apiKey:     cfg.APIKey,
		baseURL:    cfg.BaseURL,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1),
		log:        log,
	}
}

// Resolve returns the formatted address of the first result for c.
// Every failure, including an empty result set, wraps domain.ErrGeocodingFailed.
func (g *GoogleGeocoder) Resolve(ctx context.Context, c domain.Coordinate) (string, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrGeocodingFailed, err)
	}

	q := url.Values{}
	q.Set("latlng", strconv.FormatFloat(c.Lat, 'f', -1, 64)+","+strconv.FormatFloat(c.Lng, 'f', -1, 64))
	q.Set("key", g.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrGeocodingFailed, err)
	}

	start := time.Now()
	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrGeocodingFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: http status %d", domain.ErrGeocodingFailed, resp.StatusCode)
	}

	var body geocodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("%w: decode: %v", domain.ErrGeocodingFailed, err)
	}

	g.log.Debug().
		Str("status", body.Status).
		Dur("took", time.Since(start)).
		Msg("reverse geocoding response")

	if body.Status != "OK" || len(body.Results) == 0 {
		if body.ErrorMessage != "" {
			return "", fmt.Errorf("%w: %s: %s", domain.ErrGeocodingFailed, body.Status, body.ErrorMessage)
		}
		return "", fmt.Errorf("%w: %s", domain.ErrGeocodingFailed, body.Status)
	}
	return body.Results[0].FormattedAddress, nil
}
