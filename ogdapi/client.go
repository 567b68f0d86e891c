// Package ogdapi talks to the OpenGameData metrics service.
package ogdapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/opengamedata/ogdviz/am"
	"github.com/opengamedata/ogdviz/errors"
	"github.com/opengamedata/ogdviz/internal/httpclient"
	"github.com/opengamedata/ogdviz/logger"
	"github.com/opengamedata/ogdviz/payload"
	"github.com/opengamedata/ogdviz/request"
	"github.com/opengamedata/ogdviz/version"
)

const maxResponseBytes = 64 << 20

// Client sends request descriptors to the metrics service.
type Client struct {
	baseURL    *url.URL
	httpClient *httpclient.SaferClient
	limiter    *rate.Limiter
	logger     *zap.SugaredLogger
}

// Config holds client construction options.
type Config struct {
	BaseURL              string
	Timeout              time.Duration
	MaxRequestsPerMinute int // 0 = unlimited
	BlockPrivateIP       bool
	HTTPClient           *httpclient.SaferClient // nil = built from the fields above
	Logger               *zap.SugaredLogger      // nil = nop
}

// ConfigFromAM maps the api section of the loaded configuration.
func ConfigFromAM(cfg am.APIConfig) Config {
	return Config{
		BaseURL:              cfg.BaseURL,
		Timeout:              time.Duration(cfg.TimeoutSeconds) * time.Second,
		MaxRequestsPerMinute: cfg.MaxRequestsPerMinute,
		BlockPrivateIP:       cfg.BlockPrivateIP,
	}
}

// NewClient validates the base URL and builds a client.
func NewClient(cfg Config) (*Client, error) {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	hc := cfg.HTTPClient
	if hc == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 60 * time.Second
		}
		hc = httpclient.New(timeout, httpclient.Options{
			BlockPrivateIP: cfg.BlockPrivateIP,
			UserAgent:      "ogdviz/" + version.Short(),
		})
	}

	base, err := hc.ValidateURL(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, errors.Wrapf(err, "api base url %q", cfg.BaseURL)
	}

	limit := rate.Inf
	if cfg.MaxRequestsPerMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(cfg.MaxRequestsPerMinute))
	}

	return &Client{
		baseURL:    base,
		httpClient: hc,
		limiter:    rate.NewLimiter(limit, 1),
		logger:     log.Named("ogdapi"),
	}, nil
}

// BaseURL returns the service root every request path is appended to.
func (c *Client) BaseURL() string { return c.baseURL.String() }

// Fetch sends d and returns the values of a SUCCESS envelope.
func (c *Client) Fetch(ctx context.Context, d *request.Descriptor) (payload.Raw, error) {
	if d == nil {
		return nil, errors.NewInvalidRequestError("no request to fetch")
	}

	requestID := logger.RequestIDFromContext(ctx)
	if requestID == "" {
		requestID = uuid.NewString()
	}
	log := c.logger.With(
		logger.FieldRequestID, requestID,
		logger.FieldCacheKey, d.CacheKey(),
	)

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, errors.Wrap(err, "rate limiter")
	}

	req, err := c.newRequest(ctx, d)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-Request-ID", requestID)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Warnw("Metrics request failed", logger.FieldError, err)
		return nil, &FetchError{Key: d.CacheKey(), Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, &FetchError{Key: d.CacheKey(), HTTPStatus: resp.StatusCode, Err: errors.Wrap(err, "read response")}
	}

	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		log.Warnw("Undecodable response",
			logger.FieldStatus, resp.StatusCode,
			logger.FieldSize, len(body))
		return nil, &FetchError{
			Key:        d.CacheKey(),
			HTTPStatus: resp.StatusCode,
			Err:        errors.Mark(errors.Wrap(err, "decode envelope"), errors.ErrMalformedPayload),
		}
	}

	if !env.OK() {
		log.Warnw("Metrics service reported failure",
			logger.FieldStatus, env.Status,
			"http_status", resp.StatusCode,
			"message", env.Text())
		return nil, &FetchError{
			Key:        d.CacheKey(),
			Status:     env.Status,
			HTTPStatus: resp.StatusCode,
			Message:    env.Text(),
		}
	}

	data := env.Data()
	log.Debugw("Fetched metrics",
		logger.FieldMethod, d.Method(),
		logger.FieldPath, d.Path(),
		logger.FieldSize, len(data),
		logger.FieldDurationMS, time.Since(start).Milliseconds())
	return data, nil
}

func (c *Client) newRequest(ctx context.Context, d *request.Descriptor) (*http.Request, error) {
	target := c.baseURL.JoinPath(d.Path())

	var body io.Reader
	if fields := d.Body(); fields != nil {
		encoded, err := json.Marshal(fields)
		if err != nil {
			return nil, errors.Wrap(err, "encode request body")
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, d.Method(), target.String(), body)
	if err != nil {
		return nil, errors.Wrap(err, "build request")
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

// ListMetrics fetches the metric names the service can compute for game at scope.
func (c *Client) ListMetrics(ctx context.Context, scope request.Scope, game string) ([]string, error) {
	d, err := request.FeatureList(scope, game)
	if err != nil {
		return nil, err
	}
	raw, err := c.Fetch(ctx, d)
	if err != nil {
		return nil, err
	}
	return DecodeMetricList(raw)
}

// DecodeMetricList accepts either a list of names or an object keyed by name.
func DecodeMetricList(raw payload.Raw) ([]string, error) {
	if raw.IsEmpty() {
		return nil, nil
	}
	var names []string
	if err := json.Unmarshal(raw, &names); err == nil {
		sort.Strings(names)
		return names, nil
	}
	var byName map[string]json.RawMessage
	if err := raw.Decode(&byName); err != nil {
		return nil, err
	}
	names = make([]string, 0, len(byName))
	for name := range byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}
