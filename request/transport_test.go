package request

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/s0up4200/restkit/apierr"
)

func TestTransientFailureIsRetriedOnce(t *testing.T) {
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) == 1 {
			hj, ok := w.(http.Hijacker)
			if !ok {
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			conn, _, err := hj.Hijack()
			if err == nil {
				conn.Close()
			}
			return
		}
		_, _ = w.Write([]byte(`{"ok": true}`))
	}))
	defer srv.Close()

	reg := prometheus.NewRegistry()
	h := New(srv.URL, zerolog.Nop(), WithMetrics(NewMetrics(reg)))

	resp, err := h.MakeRequest(context.Background(), http.MethodGet, "flaky", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, int32(2), attempts.Load())
	assert.Equal(t, float64(1), counterValue(t, reg, "restkit_retries_total"))
}

func TestPersistentFailureIsRetriedOnlyOnce(t *testing.T) {
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		hj, ok := w.(http.Hijacker)
		if !ok {
			return
		}
		conn, _, err := hj.Hijack()
		if err == nil {
			conn.Close()
		}
	}))
	defer srv.Close()

	h := New(srv.URL, zerolog.Nop())

	_, err := h.MakeRequest(context.Background(), http.MethodGet, "down", nil, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apierr.ErrConnection))
	assert.Equal(t, int32(2), attempts.Load())
}

func TestConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	target := srv.URL
	srv.Close()

	reg := prometheus.NewRegistry()
	h := New(target, zerolog.Nop(), WithMetrics(NewMetrics(reg)))

	_, err := h.MakeRequest(context.Background(), http.MethodGet, "users", nil, nil)
	require.Error(t, err)

	var connErr *apierr.ConnectionError
	require.True(t, errors.As(err, &connErr))
	assert.Equal(t, "Connection refused", connErr.Error())
	assert.True(t, errors.Is(err, syscall.ECONNREFUSED))
	assert.Equal(t, float64(1), counterValue(t, reg, "restkit_connection_errors_total"))
}

func TestInvalidRequestIsAPIError(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	t.Cleanup(srv.Close)

	reg := prometheus.NewRegistry()
	h := New(srv.URL, zerolog.Nop(), WithMetrics(NewMetrics(reg)))

	_, err := h.MakeRequest(context.Background(), "BAD METHOD", "users", nil, nil)
	require.Error(t, err)

	var apiErr *apierr.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Contains(t, apiErr.Error(), "failed to create request")
	assert.True(t, errors.Is(err, apierr.ErrAPI))
	assert.False(t, errors.Is(err, apierr.ErrConnection))
	assert.Zero(t, hits.Load())
	assert.Zero(t, counterValue(t, reg, "restkit_connection_errors_total"))
}

func TestContextCancelled(t *testing.T) {
	srv, _ := newCaptureServer(t, http.StatusOK, `{}`)
	h := New(srv.URL, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := h.MakeRequest(ctx, http.MethodGet, "users", nil, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apierr.ErrConnection))
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, "Request cancelled", err.Error())
}

func TestTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	h := New(srv.URL, zerolog.Nop(), WithTimeout(50*time.Millisecond))

	_, err := h.MakeRequest(context.Background(), http.MethodGet, "slow", nil, nil)
	require.Error(t, err)
	assert.Equal(t, "Request timed out", err.Error())
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "dns",
			err:  &net.OpError{Op: "dial", Err: &net.DNSError{Err: "no such host", Name: "bogus.invalid", IsNotFound: true}},
			want: "Unable to find the server at bogus.invalid",
		},
		{
			name: "refused",
			err:  &net.OpError{Op: "dial", Err: fmt.Errorf("connect: %w", syscall.ECONNREFUSED)},
			want: "Connection refused",
		},
		{
			name: "deadline",
			err:  fmt.Errorf("do: %w", context.DeadlineExceeded),
			want: "Request timed out",
		},
		{
			name: "other",
			err:  errors.New("tls: handshake failure"),
			want: "tls: handshake failure",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := classifyError(tt.err, "http://bogus.invalid/api/")
			assert.Equal(t, tt.want, err.Error())
			assert.True(t, errors.Is(err, apierr.ErrConnection))
			assert.True(t, errors.Is(err, tt.err))
		})
	}
}

func TestIsTransient(t *testing.T) {
	assert.True(t, isTransient(fmt.Errorf("read: %w", syscall.ECONNRESET)))
	assert.True(t, isTransient(fmt.Errorf("write: %w", syscall.EPIPE)))
	assert.True(t, isTransient(fmt.Errorf("get: %w", io.EOF)))
	assert.False(t, isTransient(errors.New("EOF")))
	assert.False(t, isTransient(syscall.ECONNREFUSED))
	assert.False(t, isTransient(context.Canceled))
}

func TestSetAuthCredentialsDropsCachedClient(t *testing.T) {
	h := New("http://localhost", zerolog.Nop())

	first := h.httpClient()
	assert.Same(t, first, h.httpClient())

	h.SetAuthCredentials("user", "pass")
	assert.NotSame(t, first, h.httpClient())
}

func TestIgnoreSSLValidation(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"secure": true}`))
	}))
	defer srv.Close()

	strict := New(srv.URL, zerolog.Nop())
	_, err := strict.MakeRequest(context.Background(), http.MethodGet, "x", nil, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apierr.ErrConnection))

	lax := New(srv.URL, zerolog.Nop(), WithIgnoreSSLValidation(true))
	resp, err := lax.MakeRequest(context.Background(), http.MethodGet, "x", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"secure": true}, resp.Data)

	client := lax.httpClient()
	tr, ok := client.Transport.(*http.Transport)
	require.True(t, ok)
	require.NotNil(t, tr.TLSClientConfig)
	assert.True(t, tr.TLSClientConfig.InsecureSkipVerify)
}

func TestDebugOutput(t *testing.T) {
	srv, _ := newCaptureServer(t, http.StatusOK, `{}`)

	var buf bytes.Buffer
	h := New(srv.URL, zerolog.Nop(), WithSerialize(true), WithDebug(true), WithDebugOutput(&buf))

	_, err := h.MakeRequest(context.Background(), http.MethodPost, "users", Params{"username": "john.doe"}, nil)
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, DebugEnv)
	assert.Contains(t, out, "POST")
	assert.Contains(t, out, srv.URL+"/users/")
	assert.Contains(t, out, "john.doe")
}

func TestDebugFromEnvironment(t *testing.T) {
	t.Setenv(DebugEnv, "1")
	srv, _ := newCaptureServer(t, http.StatusOK, `{}`)

	var buf bytes.Buffer
	h := New(srv.URL, zerolog.Nop(), WithDebugOutput(&buf))

	_, err := h.MakeRequest(context.Background(), http.MethodGet, "users", nil, nil)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "GET")
}

func TestMetricsObserveRequests(t *testing.T) {
	srv, _ := newCaptureServer(t, http.StatusOK, `{}`)

	reg := prometheus.NewRegistry()
	h := New(srv.URL, zerolog.Nop(), WithMetrics(NewMetrics(reg)))

	for i := 0; i < 3; i++ {
		_, err := h.MakeRequest(context.Background(), http.MethodGet, "users", nil, nil)
		require.NoError(t, err)
	}

	assert.Equal(t, float64(3), counterValue(t, reg, "restkit_requests_total"))
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.observe(http.MethodGet, http.StatusOK, time.Second)
		m.retry(http.MethodGet)
		m.connectionError(http.MethodGet)
	})
}

// counterValue sums every series of the named counter family
func counterValue(t *testing.T, reg *prometheus.Registry, name string) float64 {
	t.Helper()

	families, err := reg.Gather()
	require.NoError(t, err)

	var total float64
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			if c := m.GetCounter(); c != nil {
				total += c.GetValue()
			}
		}
	}
	return total
}
