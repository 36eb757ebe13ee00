// Package backendapi is the HTTP client for the backend API that owns user
// accounts, access tokens and the style-transfer endpoint.
package backendapi

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/prakritea/artisan-studio/config"
	apperrors "github.com/prakritea/artisan-studio/internal/errors"
	"github.com/prakritea/artisan-studio/internal/observability/statsd"
)

const (
	// maxJSONBodyBytes caps auth and error responses.
	maxJSONBodyBytes = 1 << 20
	// maxImageBodyBytes caps generated images.
	maxImageBodyBytes = 64 << 20
)

// ErrUnexpectedStatus is wrapped by errors for non-2xx style-transfer responses.
var ErrUnexpectedStatus = errors.New("unexpected backend status")

// Options groups dependencies for Client.
type Options struct {
	Config     config.BackendConfig
	HTTPClient *http.Client // Optional: defaults to a client without a global timeout
	Logger     *slog.Logger
	Metrics    statsd.Sink
	Evaluator  Evaluator // Optional: defaults to go-jmespath
}

// Client talks to the backend API. Every call is a single attempt bound to
// the caller's context.
type Client struct {
	cfg     config.BackendConfig
	http    *http.Client
	logger  *slog.Logger
	metrics statsd.Sink
	eval    Evaluator
}

// NewClient validates the configured JMESPath expressions and builds a Client.
func NewClient(opts Options) (*Client, error) {
	cfg := opts.Config
	cfg.Sanitize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	eval := opts.Evaluator
	if eval == nil {
		eval = jmespathEvaluator{}
	}
	for name, expr := range map[string]string{
		"token":    cfg.TokenPath,
		"username": cfg.UsernamePath,
		"detail":   cfg.DetailPath,
		"image":    cfg.ImagePath,
	} {
		if err := eval.Validate(expr); err != nil {
			return nil, fmt.Errorf("invalid %s path %q: %w", name, expr, err)
		}
	}

	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		cfg:     cfg,
		http:    hc,
		logger:  logger.With("component", "backendapi"),
		metrics: opts.Metrics,
		eval:    eval,
	}, nil
}

type response struct {
	status      int
	contentType string
	body        []byte
}

func (r response) ok() bool { return r.status >= 200 && r.status < 300 }

// do sends req and reads at most limit bytes of the body. Transport failures
// come back as NetworkError.
func (c *Client) do(req *http.Request, op string, limit int64) (response, error) {
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.observe(op, "transport_error", time.Since(start))
		c.logger.WarnContext(req.Context(), "backend request failed",
			"operation", op, "url", req.URL.Redacted(), "error", err)
		return response{}, apperrors.Network(fmt.Errorf("%s: %w", op, err))
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			c.logger.DebugContext(req.Context(), "close response body", "operation", op, "error", closeErr)
		}
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		c.observe(op, "read_error", time.Since(start))
		return response{}, apperrors.Network(fmt.Errorf("%s: read response: %w", op, err))
	}
	if int64(len(body)) > limit {
		c.observe(op, "too_large", time.Since(start))
		return response{}, apperrors.Network(fmt.Errorf("%s: response exceeds %d bytes", op, limit))
	}

	c.observe(op, statusClass(resp.StatusCode), time.Since(start))
	return response{
		status:      resp.StatusCode,
		contentType: resp.Header.Get("Content-Type"),
		body:        body,
	}, nil
}

func (c *Client) newRequest(ctx context.Context, path, contentType string, body []byte) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json, image/*")
	return req, nil
}

func (c *Client) observe(op, status string, d time.Duration) {
	if c.metrics == nil {
		return
	}
	c.metrics.Timing("backend.request", d, map[string]string{"operation": op, "status": status})
}

func statusClass(code int) string {
	return strconv.Itoa(code/100) + "xx"
}
