package http

import (
	"StudyBot/backend/go/internal/config"
	"StudyBot/backend/go/pkg/circuitbreaker"
	"fmt"
	"net/http"
	"time"
)

// Client is a custom HTTP client that wraps the standard http.Client
// and provides built-in support for circuit breaking.
type Client struct {
	httpClient *http.Client
	breaker    circuitbreaker.CircuitBreaker
}

// NewClient creates a new Client with the given request timeout and,
// if enabled in the config, a circuit breaker.
func NewClient(timeout time.Duration, cfg config.CircuitBreakerConfig) (*Client, error) {
	httpClient := &http.Client{Timeout: timeout}

	if !cfg.Enabled {
		return &Client{httpClient: httpClient, breaker: nil}, nil
	}

	breaker, err := createCircuitBreaker(cfg)
	if err != nil {
		return nil, err
	}

	return &Client{httpClient: httpClient, breaker: breaker}, nil
}

// Do executes an HTTP request with circuit breaker protection.
// It considers status codes >= 500 as failures.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	if c.breaker == nil {
		return c.httpClient.Do(req)
	}

	var resp *http.Response
	var err error

	// The breaker's Execute function returns its own error, which might be ErrCircuitOpen
	// or the error from the operation itself.
	_, breakerErr := c.breaker.Execute(func() (interface{}, error) {
		resp, err = c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}

		// Treat server-side errors as failures for the circuit breaker
		if resp.StatusCode >= http.StatusInternalServerError {
			return nil, fmt.Errorf("server error: received status code %d", resp.StatusCode)
		}

		return resp, nil
	})

	if breakerErr != nil {
		return nil, breakerErr
	}

	return resp, nil
}

// createCircuitBreaker initializes a circuit breaker based on the configuration.
func createCircuitBreaker(cfg config.CircuitBreakerConfig) (circuitbreaker.CircuitBreaker, error) {
	timeout, err := time.ParseDuration(cfg.Timeout)
	if err != nil {
		return nil, fmt.Errorf("invalid circuit breaker timeout duration: %w", err)
	}
	return circuitbreaker.New(cfg.FailureThreshold, cfg.SuccessThreshold, timeout), nil
}
