package httpclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/alexivanou/weatherquery-api/internal/config"
	"github.com/go-resty/resty/v2"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// ErrCircuitOpen is returned without contacting the upstream while its breaker is open.
var ErrCircuitOpen = errors.New("circuit breaker open")

// StatusError is returned for any non-2xx upstream response that survived retries.
type StatusError struct {
	Upstream   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s responded with status %d", e.Upstream, e.StatusCode)
}

// StatusCode returns the upstream HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode
	}
	return 0
}

// Request describes one outbound call.
type Request struct {
	// Upstream names the collaborator; each name gets its own breaker.
	Upstream string
	Method   string
	URL      string
	Query    url.Values
	Headers  map[string]string
	Body     any
}

// Client is the shared outbound HTTP client. Connection failures and 5xx
// responses are retried with exponential backoff (no jitter); 4xx responses
// never are.
type Client struct {
	rc     *resty.Client
	cfg    config.HTTPConfig
	logger *zap.Logger

	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker
}

// New builds a Client from configuration.
func New(cfg config.HTTPConfig, logger *zap.Logger) *Client {
	rc := resty.New().
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.MaxRetries).
		SetRetryWaitTime(cfg.RetryWaitTime).
		SetRetryMaxWaitTime(cfg.RetryMaxWaitTime).
		SetHeader("Accept", "application/json").
		SetLogger(logger.Sugar())
	if cfg.UserAgent != "" {
		rc.SetHeader("User-Agent", cfg.UserAgent)
	}

	rc.SetRetryAfter(func(_ *resty.Client, resp *resty.Response) (time.Duration, error) {
		attempt := 1
		if resp != nil && resp.Request != nil {
			attempt = resp.Request.Attempt
		}
		return backoff(attempt, cfg.RetryWaitTime, cfg.RetryMaxWaitTime), nil
	})

	rc.AddRetryCondition(func(resp *resty.Response, err error) bool {
		if err != nil {
			return true
		}
		return resp != nil && resp.StatusCode() >= http.StatusInternalServerError
	})

	rc.AddRetryHook(func(resp *resty.Response, err error) {
		fields := []zap.Field{}
		if resp != nil && resp.Request != nil {
			fields = append(fields,
				zap.String("url", resp.Request.URL),
				zap.Int("attempt", resp.Request.Attempt),
				zap.Int("status", resp.StatusCode()),
			)
		}
		if err != nil {
			fields = append(fields, zap.Error(err))
		}
		logger.Warn("Retrying upstream request", fields...)
	})

	rc.OnAfterResponse(func(c *resty.Client, resp *resty.Response) error {
		logger.Debug("Upstream response",
			zap.String("method", resp.Request.Method),
			zap.String("url", resp.Request.URL),
			zap.Int("status", resp.StatusCode()),
			zap.Duration("duration", resp.Time()),
		)
		return nil
	})

	return &Client{
		rc:       rc,
		cfg:      cfg,
		logger:   logger,
		breakers: make(map[string]*gobreaker.CircuitBreaker),
	}
}

func (c *Client) breaker(name string) *gobreaker.CircuitBreaker {
	if c.cfg.BreakerThreshold <= 0 {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if cb, ok := c.breakers[name]; ok {
		return cb
	}
	threshold := uint32(c.cfg.BreakerThreshold)
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    name,
		Timeout: c.cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.logger.Warn("Circuit breaker state changed",
				zap.String("upstream", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})
	c.breakers[name] = cb
	return cb
}

// BreakerStates returns the state of every breaker created so far, keyed by upstream.
func (c *Client) BreakerStates() map[string]string {
	c.mu.Lock()
	defer c.mu.Unlock()

	states := make(map[string]string, len(c.breakers))
	for name, cb := range c.breakers {
		states[name] = cb.State().String()
	}
	return states
}

// Do executes the request and decodes a 2xx JSON body into out (when non-nil).
func (c *Client) Do(ctx context.Context, req Request, out any) error {
	call := func() (*resty.Response, error) {
		r := c.rc.R().SetContext(ctx)
		if len(req.Query) > 0 {
			r.SetQueryParamsFromValues(req.Query)
		}
		if len(req.Headers) > 0 {
			r.SetHeaders(req.Headers)
		}
		if req.Body != nil {
			r.SetHeader("Content-Type", "application/json").SetBody(req.Body)
		}
		resp, err := r.Execute(req.Method, req.URL)
		if err != nil {
			return nil, fmt.Errorf("%s request failed: %w", req.Upstream, err)
		}
		if resp.StatusCode() >= http.StatusInternalServerError {
			return nil, statusError(req.Upstream, resp)
		}
		return resp, nil
	}

	var resp *resty.Response
	if cb := c.breaker(req.Upstream); cb != nil {
		result, err := cb.Execute(func() (interface{}, error) {
			return call()
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
				return fmt.Errorf("%s: %w", req.Upstream, ErrCircuitOpen)
			}
			return err
		}
		resp = result.(*resty.Response)
	} else {
		var err error
		if resp, err = call(); err != nil {
			return err
		}
	}

	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		return statusError(req.Upstream, resp)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", req.Upstream, err)
	}
	return nil
}

// GetJSON issues a GET and decodes the JSON response.
func (c *Client) GetJSON(ctx context.Context, upstream, rawURL string, query url.Values, out any) error {
	return c.Do(ctx, Request{
		Upstream: upstream,
		Method:   http.MethodGet,
		URL:      rawURL,
		Query:    query,
	}, out)
}

// PostJSON issues a POST with a JSON body and decodes the JSON response.
func (c *Client) PostJSON(ctx context.Context, upstream, rawURL string, headers map[string]string, body, out any) error {
	return c.Do(ctx, Request{
		Upstream: upstream,
		Method:   http.MethodPost,
		URL:      rawURL,
		Headers:  headers,
		Body:     body,
	}, out)
}

// backoff returns the wait before the retry that follows attempt (1-based):
// wait, 2*wait, 4*wait and so on, capped at max.
func backoff(attempt int, wait, max time.Duration) time.Duration {
	d := wait
	for i := 1; i < attempt && d < max; i++ {
		d *= 2
	}
	if max > 0 && d > max {
		d = max
	}
	return d
}

func statusError(upstream string, resp *resty.Response) *StatusError {
	body := resp.String()
	if len(body) > 512 {
		body = body[:512]
	}
	return &StatusError{Upstream: upstream, StatusCode: resp.StatusCode(), Body: body}
}
