// Package upstream is the HTTP client for the plant API that backs every
// dashboard page: power reports, spare parts and equipment.
package upstream

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker/v2"

	"github.com/ANIKETSHETTY47/central-monitoring-hub/internal/metrics"
)

var (
	// ErrUnavailable is returned while the circuit breaker is open.
	ErrUnavailable = errors.New("plant API unavailable")
	// ErrUpstream wraps transport failures and undecodable responses.
	ErrUpstream = errors.New("plant API request failed")
)

// StatusError is a non-2xx answer from the plant API. Detail carries the
// API's own "detail" message when it sent one.
type StatusError struct {
	StatusCode int
	Detail     string
}

func (e *StatusError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return fmt.Sprintf("HTTP error! status: %d", e.StatusCode)
}

const breakerName = "plant-api"

type Client struct {
	baseURL    string
	reportPath string
	http       *http.Client
	cb         *gobreaker.CircuitBreaker[[]byte]
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithReportPath overrides the power report endpoint path.
func WithReportPath(path string) Option {
	return func(c *Client) { c.reportPath = path }
}

func New(baseURL string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		reportPath: "/pm/PM_search_report",
		http:       &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	metrics.CircuitBreakerState.WithLabelValues(breakerName).Set(0)
	c.cb = gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		// 4xx answers mean the request was wrong, not that the API is down.
		// A caller abandoning its own request says nothing about the API
		// either.
		IsSuccessful: func(err error) bool {
			if errors.Is(err, context.Canceled) {
				return true
			}
			var se *StatusError
			if errors.As(err, &se) {
				return se.StatusCode < 500
			}
			return err == nil
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state change")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateValue(to))
		},
	})
	return c
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	}
	return 0
}

// do sends req through the breaker and returns the body of a 2xx answer.
func (c *Client) do(endpoint string, req *http.Request) ([]byte, error) {
	start := time.Now()
	body, err := c.cb.Execute(func() ([]byte, error) {
		resp, err := c.http.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		b, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, &StatusError{StatusCode: resp.StatusCode, Detail: detailOf(b)}
		}
		return b, nil
	})
	metrics.UpstreamDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())

	var se *StatusError
	switch {
	case err == nil:
		metrics.UpstreamRequests.WithLabelValues(endpoint, "success").Inc()
		return body, nil
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.UpstreamRequests.WithLabelValues(endpoint, "rejected").Inc()
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	case errors.As(err, &se):
		metrics.UpstreamRequests.WithLabelValues(endpoint, "http_error").Inc()
		return nil, err
	case errors.Is(err, context.Canceled):
		metrics.UpstreamRequests.WithLabelValues(endpoint, "canceled").Inc()
		return nil, fmt.Errorf("%s: %w", endpoint, err)
	default:
		metrics.UpstreamRequests.WithLabelValues(endpoint, "transport_error").Inc()
		return nil, fmt.Errorf("%s: %w: %w", endpoint, ErrUpstream, err)
	}
}

// detailOf pulls the "detail" message out of an error body. FastAPI sends a
// string for handled errors and a list for validation failures.
func detailOf(body []byte) string {
	var envelope struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil || len(envelope.Detail) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(envelope.Detail, &s); err == nil {
		return s
	}
	return string(envelope.Detail)
}

func (c *Client) getJSON(ctx context.Context, endpoint, path string, params url.Values, out any) error {
	u := c.baseURL + path
	if params != nil {
		if q := params.Encode(); q != "" {
			u += "?" + q
		}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	b, err := c.do(endpoint, req)
	if err != nil {
		return err
	}
	return decode(endpoint, b, out)
}

func (c *Client) postJSON(ctx context.Context, endpoint, path string, payload, out any) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	body, err := c.do(endpoint, req)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	return decode(endpoint, body, out)
}

func decode(endpoint string, b []byte, out any) error {
	if err := json.Unmarshal(b, out); err != nil {
		return fmt.Errorf("%s: decode response: %w: %w", endpoint, ErrUpstream, err)
	}
	return nil
}
