// Package backend fetches prediction results for a station from the
// external prediction API.
package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dongbab/power-demand-prediction-platform-sub000/internal/dashboard"
	"go.uber.org/zap"
)

// ErrUnexpectedStatus is returned when the backend answers with a non-200 status.
var ErrUnexpectedStatus = errors.New("unexpected backend status")

// maxErrorBody caps how much of an error response is echoed into the error.
const maxErrorBody = 512

// Client talks to the prediction API.
type Client struct {
	base   string
	h      *http.Client
	logger *zap.Logger
}

// New returns a client for the API rooted at base. A non-positive timeout
// falls back to ten seconds.
func New(base string, timeout time.Duration, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		base:   strings.TrimRight(base, "/"),
		h:      &http.Client{Timeout: timeout},
		logger: logger,
	}
}

// FetchStation calls GET /api/stations/{station}/prediction and decodes the
// response into the raw dashboard state. Numbers are kept as json.Number so
// the normalizers see the exact values.
func (c *Client) FetchStation(ctx context.Context, station string) (dashboard.State, error) {
	var state dashboard.State

	u, err := url.Parse(c.base + "/api/stations/" + url.PathEscape(station) + "/prediction")
	if err != nil {
		return state, fmt.Errorf("invalid backend url: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return state, err
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.h.Do(req)
	if err != nil {
		return state, fmt.Errorf("backend request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return state, fmt.Errorf("%w: %s returned %d: %s", ErrUnexpectedStatus, u.String(), resp.StatusCode, strings.TrimSpace(string(b)))
	}

	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	if err := dec.Decode(&state); err != nil {
		return state, fmt.Errorf("failed to decode backend response: %w", err)
	}

	c.logger.Debug("fetched station prediction",
		zap.String("op", "backend.FetchStation"),
		zap.String("station", station),
		zap.Int("predictions", len(state.Predictions)),
		zap.Int("candidates", len(state.Candidates)),
		zap.Duration("duration", time.Since(start)),
	)
	return state, nil
}
