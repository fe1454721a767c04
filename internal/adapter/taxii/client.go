package taxii

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker"

	"github.com/black-cross/blackcross/internal/metrics"
	"github.com/black-cross/blackcross/internal/stix"
)

const mediaType = "application/taxii+json;version=2.1"

// Client pushes STIX bundles to a TAXII 2.1 collection, wrapping the HTTP
// calls with a circuit breaker and exponential-backoff retries.
type Client struct {
	baseURL      string
	collectionID string
	token        string
	httpClient   *http.Client
	breaker      *gobreaker.CircuitBreaker
	config       Config
}

// Config holds resilience settings for the TAXII client.
type Config struct {
	EnableCircuitBreaker bool
	MaxFailures          uint32
	CircuitTimeout       time.Duration

	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// DefaultConfig reads resilience settings from the environment.
func DefaultConfig() Config {
	return Config{
		EnableCircuitBreaker: getEnvBool("TAXII_CIRCUIT_BREAKER_ENABLED", true),
		MaxFailures:          uint32(getEnvInt("TAXII_CIRCUIT_BREAKER_MAX_FAILURES", 5)),
		CircuitTimeout:       time.Duration(getEnvInt("TAXII_CIRCUIT_BREAKER_TIMEOUT_SECONDS", 30)) * time.Second,
		MaxRetries:           getEnvInt("TAXII_RETRY_MAX_ATTEMPTS", 3),
		InitialInterval:      time.Duration(getEnvInt("TAXII_RETRY_INITIAL_INTERVAL_MS", 500)) * time.Millisecond,
		MaxInterval:          time.Duration(getEnvInt("TAXII_RETRY_MAX_INTERVAL_MS", 5000)) * time.Millisecond,
	}
}

// NewClient creates a TAXII client for one collection on one server.
func NewClient(baseURL, collectionID, token string, config Config) *Client {
	var breaker *gobreaker.CircuitBreaker
	if config.EnableCircuitBreaker {
		breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "taxii-push",
			MaxRequests: 1,
			Timeout:     config.CircuitTimeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= config.MaxFailures
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				log.Printf("⚡ Circuit breaker '%s' changed from %s to %s", name, from, to)
				if to == gobreaker.StateOpen {
					metrics.RecordTAXIIError("circuit_open")
				}
			},
		})
	}

	return &Client{
		baseURL:      baseURL,
		collectionID: collectionID,
		token:        token,
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		breaker:      breaker,
		config:       config,
	}
}

// envelope is the TAXII 2.1 add-objects request body.
type envelope struct {
	Objects []stix.Object `json:"objects"`
}

// PushBundle publishes the bundle's objects to the configured collection.
func (c *Client) PushBundle(ctx context.Context, bundle stix.Bundle) error {
	body, err := json.Marshal(envelope{Objects: bundle.Objects})
	if err != nil {
		return fmt.Errorf("failed to marshal TAXII envelope: %w", err)
	}

	url := fmt.Sprintf("%s/collections/%s/objects/", c.baseURL, c.collectionID)

	if c.breaker == nil {
		return c.postWithRetry(ctx, url, body)
	}

	_, err = c.breaker.Execute(func() (interface{}, error) {
		return nil, c.postWithRetry(ctx, url, body)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) {
			metrics.RecordTAXIIError("circuit_open")
			return fmt.Errorf("circuit breaker is open: %w", err)
		}
		return err
	}

	return nil
}

func (c *Client) postWithRetry(ctx context.Context, url string, body []byte) error {
	expBackoff := backoff.NewExponentialBackOff()
	expBackoff.InitialInterval = c.config.InitialInterval
	expBackoff.MaxInterval = c.config.MaxInterval
	expBackoff.Multiplier = 2.0
	expBackoff.MaxElapsedTime = 0

	policy := backoff.WithContext(
		backoff.WithMaxRetries(expBackoff, uint64(c.config.MaxRetries)), ctx)

	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Content-Type", mediaType)
		req.Header.Set("Accept", mediaType)
		if c.token != "" {
			req.Header.Set("Authorization", "Bearer "+c.token)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			metrics.RecordTAXIIError("connection")
			return err // network errors are retried
		}
		defer resp.Body.Close()
		io.Copy(io.Discard, resp.Body)

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return nil
		}

		recordStatusError(resp.StatusCode)
		err = fmt.Errorf("TAXII server returned HTTP %d", resp.StatusCode)
		if retryableStatus(resp.StatusCode) {
			return err
		}
		return backoff.Permanent(err)
	}

	if err := backoff.Retry(operation, policy); err != nil {
		return fmt.Errorf("TAXII push failed: %w", err)
	}

	return nil
}

func retryableStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

func recordStatusError(code int) {
	switch code {
	case http.StatusUnauthorized, http.StatusForbidden:
		metrics.RecordTAXIIError("auth")
	case http.StatusTooManyRequests:
		metrics.RecordTAXIIError("rate_limit")
	case http.StatusRequestTimeout:
		metrics.RecordTAXIIError("timeout")
	case http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		metrics.RecordTAXIIError("server_error")
	default:
		metrics.RecordTAXIIError("http_error")
	}
}

// getEnvInt reads an integer from environment variable or returns default
func getEnvInt(key string, defaultValue int) int {
	if val := os.Getenv(key); val != "" {
		if intVal, err := strconv.Atoi(val); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvBool reads a boolean from environment variable or returns default
func getEnvBool(key string, defaultValue bool) bool {
	if val := os.Getenv(key); val != "" {
		if boolVal, err := strconv.ParseBool(val); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
