// Package siem is the typed client for the upstream SIEM HTTP API.
// It is the only place that knows the upstream's field names; everything
// downstream works with NormalizedIncident.
package siem

import (
	"context"
	"crypto/sha256"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/soclink/soclink/internal/metrics"
)

// Per-endpoint cache TTLs, tuned to endpoint volatility.
const (
	ttlIncident = 30 * time.Second
	ttlFullInfo = 30 * time.Second
	ttlEvents   = 15 * time.Second
	ttlEPS      = 15 * time.Second
)

type Config struct {
	BaseURL        string
	APIKey         string
	TenantScope    string // upstream tenant uuid, empty for the default scope
	VerifySSL      bool
	RequestTimeout time.Duration
	ConnectTimeout time.Duration
	RateLimit      float64 // upstream requests per second
}

// Cache is the best-effort response cache. Errors from it degrade to
// direct upstream calls, they never fail a request.
type Cache interface {
	GetRaw(ctx context.Context, key string) ([]byte, error)
	SetRaw(ctx context.Context, key string, data []byte, ttl time.Duration) error
}

type Client struct {
	baseURL     string
	apiKey      string
	tenantScope string
	http        *http.Client
	cache       Cache
	limiter     *rate.Limiter
	logger      *zap.Logger
	metrics     *metrics.Collector
}

func NewClient(cfg Config, cache Cache, logger *zap.Logger, collector *metrics.Collector) *Client {
	requestTimeout := cfg.RequestTimeout
	if requestTimeout == 0 {
		requestTimeout = 30 * time.Second
	}
	connectTimeout := cfg.ConnectTimeout
	if connectTimeout == 0 {
		connectTimeout = 10 * time.Second
	}
	rps := cfg.RateLimit
	if rps <= 0 {
		rps = 10
	}

	transport := &http.Transport{
		DialContext: (&net.Dialer{Timeout: connectTimeout}).DialContext,
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: !cfg.VerifySSL,
		},
	}

	return &Client{
		baseURL:     cfg.BaseURL + "/api/v1",
		apiKey:      cfg.APIKey,
		tenantScope: cfg.TenantScope,
		http: &http.Client{
			Transport: transport,
			Timeout:   requestTimeout,
		},
		cache:   cache,
		limiter: rate.NewLimiter(rate.Limit(rps), int(rps)),
		logger:  logger,
		metrics: collector,
	}
}

func (c *Client) params(extra map[string]string) url.Values {
	v := url.Values{}
	v.Set("_api_key", c.apiKey)
	if c.tenantScope != "" {
		v.Set("tenant_uuid", c.tenantScope)
	}
	for k, val := range extra {
		if val != "" {
			v.Set(k, val)
		}
	}
	return v
}

func (c *Client) cacheKey(path string, params url.Values) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	h := sha256.New()
	for _, k := range keys {
		fmt.Fprintf(h, "%s=%s;", k, params.Get(k))
	}
	scope := c.tenantScope
	if scope == "" {
		scope = "default"
	}
	return fmt.Sprintf("siem:%s:%s:%x", scope, path, h.Sum(nil)[:8])
}

// get performs a GET with rate limiting and optional read-through caching.
func (c *Client) get(ctx context.Context, path string, extra map[string]string, ttl time.Duration) (json.RawMessage, error) {
	params := c.params(extra)
	key := c.cacheKey(path, params)

	if c.cache != nil && ttl > 0 {
		if data, err := c.cache.GetRaw(ctx, key); err == nil && data != nil {
			c.metrics.RecordSIEMRequest(path, "cache_hit")
			return data, nil
		}
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &ConnError{Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build siem request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Error("siem connection error", zap.String("path", path), zap.Error(err))
		c.metrics.RecordSIEMRequest(path, "conn_error")
		return nil, &ConnError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Error("siem api error",
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
		)
		c.metrics.RecordSIEMRequest(path, "api_error")
		return nil, &APIError{StatusCode: resp.StatusCode, Path: path}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ConnError{Err: err}
	}

	if c.cache != nil && ttl > 0 {
		if err := c.cache.SetRaw(ctx, key, data, ttl); err != nil {
			c.logger.Debug("siem cache store failed", zap.Error(err))
		}
	}

	c.metrics.RecordSIEMRequest(path, "ok")
	return data, nil
}

func (c *Client) getJSON(ctx context.Context, path string, extra map[string]string, ttl time.Duration, dest interface{}) error {
	data, err := c.get(ctx, path, extra, ttl)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("decode siem response for %s: %w", path, err)
	}
	return nil
}

// GetIncident fetches the incident summary record.
func (c *Client) GetIncident(ctx context.Context, id int64) (map[string]interface{}, error) {
	var out map[string]interface{}
	path := fmt.Sprintf("/incidents/%d", id)
	if err := c.getJSON(ctx, path, nil, ttlIncident, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetIncidentFullInfo fetches the extended metadata record.
func (c *Client) GetIncidentFullInfo(ctx context.Context, id int64) (map[string]interface{}, error) {
	var out map[string]interface{}
	path := fmt.Sprintf("/incidents/%d/fullinfo", id)
	if err := c.getJSON(ctx, path, nil, ttlFullInfo, &out); err != nil {
		return nil, err
	}
	return out, nil
}

type EventSearchResult struct {
	Data []map[string]interface{} `json:"data"`
}

// SearchEvents runs an event search with the upstream query syntax.
func (c *Client) SearchEvents(ctx context.Context, query, interval string, limit int) (*EventSearchResult, error) {
	var out EventSearchResult
	err := c.getJSON(ctx, "/events/find", map[string]string{
		"query":    query,
		"interval": interval,
		"limit":    strconv.Itoa(limit),
	}, ttlEvents, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// GetEPS returns the upstream's current events-per-second gauge.
func (c *Client) GetEPS(ctx context.Context) (float64, error) {
	data, err := c.get(ctx, "/system/searchEps", nil, ttlEPS)
	if err != nil {
		return 0, err
	}
	var eps float64
	if err := json.Unmarshal(data, &eps); err != nil {
		return 0, nil
	}
	return eps, nil
}

// FetchForPreview merges the summary and extended reads into the
// normalized shape used by the publish form and the lifecycle engine.
func (c *Client) FetchForPreview(ctx context.Context, id int64) (*NormalizedIncident, error) {
	incident, err := c.GetIncident(ctx, id)
	if err != nil {
		return nil, err
	}
	fullinfo, err := c.GetIncidentFullInfo(ctx, id)
	if err != nil {
		return nil, err
	}
	return Normalize(incident, fullinfo), nil
}

// LastEventTime extracts the newest event timestamp from a search result,
// tolerating both ISO strings and epoch-millisecond numbers. Returns nil
// when the result carries no usable timestamp.
func LastEventTime(res *EventSearchResult) *time.Time {
	if res == nil || len(res.Data) == 0 {
		return nil
	}
	ev := res.Data[0]
	raw, ok := ev["timestamp"]
	if !ok {
		raw, ok = ev["@timestamp"]
	}
	if !ok || raw == nil {
		return nil
	}
	switch v := raw.(type) {
	case string:
		if ts, err := time.Parse(time.RFC3339, v); err == nil {
			return &ts
		}
	case float64:
		ts := time.UnixMilli(int64(v)).UTC()
		return &ts
	}
	return nil
}
