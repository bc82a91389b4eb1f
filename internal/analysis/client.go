package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/claimsense/claimsense/internal/logging"
	"github.com/claimsense/claimsense/internal/version"
)

const (
	// DefaultEndpoint is the prediction route of the bundled backend
	DefaultEndpoint = "http://127.0.0.1:5000/Predict_Sentiment"

	// DefaultRetryDelay is the initial delay between retry attempts
	DefaultRetryDelay = 1 * time.Second

	// DefaultMaxRetryDelay is the maximum delay for exponential backoff
	DefaultMaxRetryDelay = 30 * time.Second

	// HealthCheckClaim is the fixed text posted by Ping
	HealthCheckClaim = "Test claim for health check."
)

// Client talks to the prediction service. It is safe for concurrent use.
type Client struct {
	// Endpoint is the full prediction URL
	Endpoint string

	// HTTPClient is the underlying HTTP client. Its Timeout of 0 means the
	// request waits as long as the transport does.
	HTTPClient *http.Client

	// MaxRetries is the maximum number of retry attempts for failed requests.
	// 0 submits exactly once.
	MaxRetries int

	// RetryDelay is the initial delay between retry attempts
	RetryDelay time.Duration

	// MaxRetryDelay is the maximum delay for exponential backoff
	MaxRetryDelay time.Duration
}

// NewClient creates a client for the default local endpoint
func NewClient() *Client {
	return NewClientWithURL(DefaultEndpoint)
}

// NewClientWithURL creates a client for endpoint
func NewClientWithURL(endpoint string) *Client {
	return &Client{
		Endpoint:      endpoint,
		HTTPClient:    &http.Client{},
		RetryDelay:    DefaultRetryDelay,
		MaxRetryDelay: DefaultMaxRetryDelay,
	}
}

// SetTimeout sets the HTTP request timeout
func (c *Client) SetTimeout(timeout time.Duration) {
	c.HTTPClient.Timeout = timeout
}

// SetRetry configures retry behavior
func (c *Client) SetRetry(maxRetries int, retryDelay time.Duration) {
	c.MaxRetries = maxRetries
	c.RetryDelay = retryDelay
}

// Analyze submits claimText and returns the normalized result.
// Empty text is submitted as is.
func (c *Client) Analyze(ctx context.Context, claimText string) (*Result, error) {
	body, err := json.Marshal(PredictRequest{MedicalClaim: claimText})
	if err != nil {
		return nil, NewParseError("failed to encode request", err)
	}

	var lastErr error
	currentDelay := c.RetryDelay

	for attempt := 0; attempt <= c.MaxRetries; attempt++ {
		if attempt > 0 {
			logging.Debug("Retrying prediction request",
				zap.Int("attempt", attempt),
				zap.Duration("delay", currentDelay),
				zap.Error(lastErr),
			)
			select {
			case <-ctx.Done():
				return nil, NewNetworkError("request cancelled", c.Endpoint, ctx.Err())
			case <-time.After(currentDelay):
			}

			currentDelay *= 2
			if c.MaxRetryDelay > 0 && currentDelay > c.MaxRetryDelay {
				currentDelay = c.MaxRetryDelay
			}
		}

		respBody, err := c.postAttempt(ctx, body)
		if err == nil {
			return Normalize(respBody, claimText)
		}

		lastErr = err

		if !IsRetryable(err) {
			return nil, err
		}
	}

	return nil, lastErr
}

// postAttempt performs a single POST and returns the 2xx body
func (c *Client) postAttempt(ctx context.Context, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, NewNetworkError("failed to create request", c.Endpoint, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", version.UserAgent())

	logging.LogAPIRequest(req.Method, c.Endpoint, len(body))
	start := time.Now()

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, NewNetworkError("request failed", c.Endpoint, err)
	}
	defer func() { _ = resp.Body.Close() }()

	logging.LogAPIResponse(c.Endpoint, resp.StatusCode, time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, NewAPIError(resp.StatusCode, resp.Status, c.Endpoint)
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, NewNetworkError("failed to read response body", c.Endpoint, err)
	}
	logging.LogRawBytes("Prediction response body", respBody)

	return respBody, nil
}

// Ping posts the health-check claim and reports whether the service
// answered with a 2xx status. The response body is not interpreted.
func (c *Client) Ping(ctx context.Context) error {
	body, err := json.Marshal(PredictRequest{MedicalClaim: HealthCheckClaim})
	if err != nil {
		return fmt.Errorf("failed to encode health check: %w", err)
	}
	_, err = c.postAttempt(ctx, body)
	return err
}
