// Package predictor submits EEG sequences to the remote prediction endpoint.
//
// Sequences are sent in fixed-size batches, strictly in order, each batch
// awaited before the next one is sent. A failed batch is replaced by Unknown
// placeholders and submission continues. Cancellation is cooperative and only
// checked between batches.
package predictor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rewired-gh/seizurescope/internal/models"
)

// ClientConfig holds HTTP client configuration options
type ClientConfig struct {
	MaxRetries     int
	RetryDelayBase time.Duration
}

// Client provides access to the prediction endpoint
type Client struct {
	baseURL        string
	httpClient     *http.Client
	maxRetries     int
	retryDelayBase time.Duration
}

// NewClient creates a new prediction client
func NewClient(baseURL string, timeout time.Duration, cfg ClientConfig) *Client {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelayBase <= 0 {
		cfg.RetryDelayBase = time.Second
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		maxRetries:     cfg.MaxRetries,
		retryDelayBase: cfg.RetryDelayBase,
	}
}

// StatusError is returned for non-2xx responses that are not retried.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("prediction endpoint returned status %d", e.StatusCode)
}

// Predict posts one batch of sequences and returns one prediction per sequence.
// Null entries in the response map to Unknown.
func (c *Client) Predict(ctx context.Context, batch [][]float64) ([]models.Prediction, error) {
	body, err := json.Marshal(batch)
	if err != nil {
		return nil, fmt.Errorf("failed to encode batch: %w", err)
	}

	resp, err := c.doRequest(ctx, c.baseURL+"/predict", body)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch predictions: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &StatusError{StatusCode: resp.StatusCode}
	}

	var predictions []models.Prediction
	if err := json.NewDecoder(resp.Body).Decode(&predictions); err != nil {
		return nil, fmt.Errorf("failed to decode predictions: %w", err)
	}

	if len(predictions) != len(batch) {
		return nil, fmt.Errorf("expected %d predictions, got %d", len(batch), len(predictions))
	}

	return predictions, nil
}

// doRequest performs HTTP request with retry logic
func (c *Client) doRequest(ctx context.Context, url string, body []byte) (*http.Response, error) {
	var lastErr error

	for i := 0; i < c.maxRetries; i++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}

		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
		} else if resp.StatusCode >= 500 {
			resp.Body.Close()
			lastErr = fmt.Errorf("server error: %d", resp.StatusCode)
		} else {
			return resp, nil
		}

		if i == c.maxRetries-1 {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.retryDelayBase * time.Duration(i+1)):
		}
	}

	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}
