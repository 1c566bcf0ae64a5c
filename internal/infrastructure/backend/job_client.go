package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/mechanicapp/tracking-system/internal/core/domain"
	"github.com/mechanicapp/tracking-system/internal/core/ports"
)

const defaultTimeout = 5 * time.Second

var errBackend = errors.New("backend request failed")

// Config holds the marketplace API settings.
type Config struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

// JobClient implements ports.JobDirectory against the marketplace REST API.
type JobClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
	log        zerolog.Logger
}

var _ ports.JobDirectory = (*JobClient)(nil)

// apiResponse is the envelope every backend endpoint answers with.
type apiResponse[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data"`
	Message string `json:"message"`
}

type jobPayload struct {
	ID         string `json:"id"`
	CustomerID string `json:"customerId"`
	MechanicID string `json:"mechanicId"`
	Status     string `json:"status"`
}

func NewJobClient(cfg Config, log zerolog.Logger) *JobClient {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	return &JobClient{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		token:      cfg.Token,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		log:        log,
	}
}

// FindJob fetches GET {base}/jobs/{id}.
func (c *JobClient) FindJob(ctx context.Context, jobID string) (*domain.Job, error) {
	endpoint := c.baseURL + "/jobs/" + url.PathEscape(jobID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("find job %q: %w", jobID, err)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("find job %q: %w: %v", jobID, errBackend, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("find job %q: %w", jobID, domain.ErrJobNotFound)
	}

	var body apiResponse[jobPayload]
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("find job %q: %w: decode (status %d): %v", jobID, errBackend, resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusOK || !body.Success {
		c.log.Warn().Str("job_id", jobID).Int("status", resp.StatusCode).Str("message", body.Message).Msg("backend refused job lookup")
		return nil, fmt.Errorf("find job %q: %w: %s", jobID, errBackend, body.Message)
	}

	return &domain.Job{
		ID:         body.Data.ID,
		CustomerID: body.Data.CustomerID,
		MechanicID: body.Data.MechanicID,
		Status:     domain.JobStatus(body.Data.Status),
	}, nil
}
