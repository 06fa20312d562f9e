// Package gateway executes HTTP requests against a rate-limited JSON API.
// All callers of one Gateway share a single request budget.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

var ErrRateLimited = errors.New("rate limit retries exhausted")

const (
	defaultCooldown = time.Second
	defaultBackoff  = 1.1
)

type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

type Config struct {
	// Name labels log records, e.g. "clockify".
	Name              string
	RequestsPerSecond float64
	// SafetyMargin is subtracted from RequestsPerSecond.
	SafetyMargin float64
	// MaxRetries bounds consecutive 429 retries of one request.
	MaxRetries int
	Cooldown   time.Duration
	// Backoff widens the request interval after each 429; 1.1 means +10%.
	Backoff    float64
	UserAgent  string
	HTTPClient httpDoer
	Logger     *slog.Logger
}

type Gateway struct {
	name       string
	maxRetries int
	cooldown   time.Duration
	backoff    float64
	userAgent  string
	httpClient httpDoer
	log        *slog.Logger

	mu      sync.Mutex
	limiter *rate.Limiter
}

func New(cfg Config) (*Gateway, error) {
	effective := cfg.RequestsPerSecond - cfg.SafetyMargin
	if effective <= 0 {
		return nil, fmt.Errorf("requests per second (%.2f) must exceed safety margin (%.2f)", cfg.RequestsPerSecond, cfg.SafetyMargin)
	}
	if cfg.MaxRetries < 0 {
		return nil, fmt.Errorf("max retries must not be negative, got %d", cfg.MaxRetries)
	}

	cooldown := cfg.Cooldown
	if cooldown <= 0 {
		cooldown = defaultCooldown
	}
	backoff := cfg.Backoff
	if backoff <= 1 {
		backoff = defaultBackoff
	}
	doer := cfg.HTTPClient
	if doer == nil {
		doer = &http.Client{Timeout: 60 * time.Second}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	name := strings.TrimSpace(cfg.Name)
	if name == "" {
		name = "api"
	}

	return &Gateway{
		name:       name,
		maxRetries: cfg.MaxRetries,
		cooldown:   cooldown,
		backoff:    backoff,
		userAgent:  strings.TrimSpace(cfg.UserAgent),
		httpClient: doer,
		log:        logger.With(slog.String("api", name)),
		limiter:    rate.NewLimiter(rate.Limit(effective), 1),
	}, nil
}

type Request struct {
	Method      string
	URL         string
	Query       url.Values
	Body        any
	Credentials Credentials
}

type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

func (r *Response) Decode(out any) error {
	if len(bytes.TrimSpace(r.Body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(r.Body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// Snippet returns the start of the body for error messages.
func (r *Response) Snippet() string {
	body := r.Body
	if len(body) > 4096 {
		body = body[:4096]
	}
	return strings.TrimSpace(string(body))
}

// Interval is the current minimum spacing between two requests.
func (g *Gateway) Interval() time.Duration {
	g.mu.Lock()
	defer g.mu.Unlock()
	return time.Duration(float64(time.Second) / float64(g.limiter.Limit()))
}

// Execute sends req once the request budget allows it. A 429 answer widens
// the interval, waits out the cooldown and retries up to MaxRetries times.
// Every other status is returned to the caller unchanged.
func (g *Gateway) Execute(ctx context.Context, req Request) (*Response, error) {
	var payload []byte
	if req.Body != nil {
		encoded, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		payload = encoded
	}

	for attempt := 0; ; attempt++ {
		if err := g.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("wait for request slot %s %s: %w", req.Method, req.URL, err)
		}

		resp, err := g.send(ctx, req, payload)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode != http.StatusTooManyRequests {
			return resp, nil
		}
		if attempt >= g.maxRetries {
			return nil, fmt.Errorf("%s %s after %d retries: %w", req.Method, req.URL, attempt, ErrRateLimited)
		}

		interval := g.widen()
		g.log.Warn("rate limited, widening request interval",
			slog.Duration("interval", interval),
			slog.Int("attempt", attempt+1),
		)
		select {
		case <-time.After(g.cooldown):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

func (g *Gateway) widen() time.Duration {
	g.mu.Lock()
	defer g.mu.Unlock()
	limit := g.limiter.Limit() / rate.Limit(g.backoff)
	g.limiter.SetLimit(limit)
	return time.Duration(float64(time.Second) / float64(limit))
}

func (g *Gateway) send(ctx context.Context, req Request, payload []byte) (*Response, error) {
	target := req.URL
	if len(req.Query) > 0 {
		separator := "?"
		if strings.Contains(target, "?") {
			separator = "&"
		}
		target += separator + req.Query.Encode()
	}

	var bodyReader io.Reader
	if payload != nil {
		bodyReader = bytes.NewReader(payload)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("create request %s %s: %w", req.Method, req.URL, err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if payload != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if g.userAgent != "" {
		httpReq.Header.Set("User-Agent", g.userAgent)
	}
	if req.Credentials != nil {
		req.Credentials.Apply(httpReq)
	}

	g.log.Debug("request", slog.String("method", req.Method), slog.String("url", req.URL))
	httpResp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request %s %s failed: %w", req.Method, req.URL, err)
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response %s %s: %w", req.Method, req.URL, err)
	}
	return &Response{
		StatusCode: httpResp.StatusCode,
		Header:     httpResp.Header,
		Body:       body,
	}, nil
}
