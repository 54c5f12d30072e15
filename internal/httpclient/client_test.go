package httpclient

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alexivanou/weatherquery-api/internal/config"
	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testConfig() config.HTTPConfig {
	return config.HTTPConfig{
		Timeout:          2 * time.Second,
		MaxRetries:       2,
		RetryWaitTime:    time.Millisecond,
		RetryMaxWaitTime: 2 * time.Millisecond,
		UserAgent:        "weatherquery-test",
	}
}

func TestClient_RetriesServerErrors(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := New(testConfig(), zap.NewNop())
	err := c.GetJSON(context.Background(), "test", srv.URL, nil, nil)

	require.Error(t, err)
	assert.Equal(t, http.StatusBadGateway, StatusCode(err))
	assert.Equal(t, int32(3), atomic.LoadInt32(&hits), "initial attempt plus two retries")
}

func TestClient_DoesNotRetryClientErrors(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := New(testConfig(), zap.NewNop())
	err := c.GetJSON(context.Background(), "test", srv.URL, nil, nil)

	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, StatusCode(err))
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestClient_RetriesConnectionErrors(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	c := New(testConfig(), zap.NewNop())
	var attempts int32
	c.rc.OnBeforeRequest(func(*resty.Client, *resty.Request) error {
		atomic.AddInt32(&attempts, 1)
		return nil
	})

	err = c.GetJSON(context.Background(), "forecast", "http://"+addr+"/points", nil, nil)

	require.Error(t, err)
	assert.Equal(t, 0, StatusCode(err))
	assert.Equal(t, int32(3), atomic.LoadInt32(&attempts), "initial attempt plus two retries")
}

func TestClient_ClientErrorHitsUpstreamOnceWithBreaker(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	cfg := testConfig()
	cfg.BreakerThreshold = 5
	cfg.BreakerTimeout = time.Minute
	c := New(cfg, zap.NewNop())

	err := c.GetJSON(context.Background(), "geocoder", srv.URL, nil, nil)

	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, StatusCode(err))
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
	assert.Equal(t, "closed", c.BreakerStates()["geocoder"])
}

func TestBackoff(t *testing.T) {
	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{3, 8 * time.Second},
		{4, 10 * time.Second},
		{30, 10 * time.Second},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, backoff(tt.attempt, 2*time.Second, 10*time.Second), "attempt %d", tt.attempt)
	}
	assert.Equal(t, 2*time.Second, backoff(1, 2*time.Second, 0))
}

func TestClient_RecoversAfterTransientFailure(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		assert.Equal(t, "weatherquery-test", r.Header.Get("User-Agent"))
		assert.Equal(t, "austin", r.URL.Query().Get("q"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	c := New(testConfig(), zap.NewNop())
	var out struct {
		OK bool `json:"ok"`
	}
	err := c.GetJSON(context.Background(), "test", srv.URL, url.Values{"q": {"austin"}}, &out)

	require.NoError(t, err)
	assert.True(t, out.OK)
	assert.Equal(t, int32(3), atomic.LoadInt32(&hits))
}

func TestClient_BreakerOpensOnServerErrors(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	cfg := testConfig()
	cfg.MaxRetries = 0
	cfg.BreakerThreshold = 2
	cfg.BreakerTimeout = time.Minute
	c := New(cfg, zap.NewNop())
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		err := c.GetJSON(ctx, "forecast", srv.URL, nil, nil)
		assert.Equal(t, http.StatusInternalServerError, StatusCode(err))
	}

	err := c.GetJSON(ctx, "forecast", srv.URL, nil, nil)
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))

	// Other upstreams have their own breaker.
	err = c.GetJSON(ctx, "geocoder", srv.URL, nil, nil)
	assert.Equal(t, http.StatusInternalServerError, StatusCode(err))
	assert.Equal(t, int32(3), atomic.LoadInt32(&hits))

	states := c.BreakerStates()
	assert.Equal(t, "open", states["forecast"])
	assert.Equal(t, "closed", states["geocoder"])
}

func TestClient_ClientErrorsDoNotTripBreaker(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	cfg := testConfig()
	cfg.BreakerThreshold = 1
	cfg.BreakerTimeout = time.Minute
	c := New(cfg, zap.NewNop())

	for i := 0; i < 3; i++ {
		err := c.GetJSON(context.Background(), "intent", srv.URL, nil, nil)
		assert.Equal(t, http.StatusTooManyRequests, StatusCode(err))
	}
	assert.Equal(t, int32(3), atomic.LoadInt32(&hits))
}

func TestClient_PostJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer key", r.Header.Get("Authorization"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "hello", body["msg"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"echo":"hello"}`))
	}))
	defer srv.Close()

	c := New(testConfig(), zap.NewNop())
	var out map[string]string
	err := c.PostJSON(context.Background(), "test", srv.URL,
		map[string]string{"Authorization": "Bearer key"},
		map[string]string{"msg": "hello"}, &out)

	require.NoError(t, err)
	assert.Equal(t, "hello", out["echo"])
}

func TestClient_DecodeError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	c := New(testConfig(), zap.NewNop())
	var out map[string]any
	err := c.GetJSON(context.Background(), "test", srv.URL, nil, &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to decode test response")
}
