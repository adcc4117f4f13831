package request

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"syscall"

	"github.com/s0up4200/restkit/apierr"
)

// rawResponse is a fully read HTTP response
type rawResponse struct {
	status int
	header http.Header
	body   []byte
}

// execute sends prep. A transient connection failure is retried once on a
// freshly built transport handle.
func (h *Handler) execute(ctx context.Context, prep *preparedRequest, creds *credentials) (*rawResponse, error) {
	raw, err := h.send(ctx, h.httpClient(), prep, creds)
	var apiErr *apierr.APIError
	if errors.As(err, &apiErr) {
		return nil, err
	}
	if err != nil && isTransient(err) && ctx.Err() == nil {
		h.logger.Warn().
			Err(err).
			Str("method", prep.method).
			Str("url", prep.url).
			Msg("Transient connection failure, retrying on a fresh connection")
		h.opts.metrics.retry(prep.method)

		raw, err = h.send(ctx, h.resetClient(), prep, creds)
	}
	if err != nil {
		return nil, classifyError(err, prep.url)
	}
	return raw, nil
}

func (h *Handler) send(ctx context.Context, client *http.Client, prep *preparedRequest, creds *credentials) (*rawResponse, error) {
	var body io.Reader
	if prep.body != nil {
		body = bytes.NewReader(prep.body)
	}

	req, err := http.NewRequestWithContext(ctx, prep.method, prep.url, body)
	if err != nil {
		return nil, &apierr.APIError{Msg: fmt.Sprintf("failed to create request: %v", err)}
	}
	req.Header = prep.header.Clone()
	if creds != nil {
		req.SetBasicAuth(creds.user, creds.password)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	return &rawResponse{
		status: resp.StatusCode,
		header: resp.Header,
		body:   data,
	}, nil
}

// httpClient returns the cached transport handle, building it on first use
func (h *Handler) httpClient() *http.Client {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.client == nil {
		h.client = h.newClient()
	}
	return h.client
}

// resetClient discards the cached transport handle and builds a new one
func (h *Handler) resetClient() *http.Client {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.dropClientLocked()
	h.client = h.newClient()
	return h.client
}

func (h *Handler) dropClientLocked() {
	if h.client != nil {
		h.client.CloseIdleConnections()
		h.client = nil
	}
}

func (h *Handler) newClient() *http.Client {
	rt := h.opts.transport
	if rt == nil {
		rt = http.DefaultTransport
	}

	if t, ok := rt.(*http.Transport); ok {
		t = t.Clone()
		if h.opts.ignoreSSLValidation {
			if t.TLSClientConfig == nil {
				t.TLSClientConfig = &tls.Config{}
			}
			t.TLSClientConfig.InsecureSkipVerify = true
		}
		rt = t
	}

	return &http.Client{
		Timeout:   h.opts.timeout,
		Transport: rt,
	}
}

// isTransient reports whether err looks like a dropped keep-alive connection
func isTransient(err error) bool {
	return errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.EPIPE) ||
		errors.Is(err, net.ErrClosed)
}

// classifyError maps a transport failure to a ConnectionError
func classifyError(err error, target string) error {
	var dnsErr *net.DNSError
	var netErr net.Error

	switch {
	case errors.As(err, &dnsErr):
		host := dnsErr.Name
		if u, perr := url.Parse(target); perr == nil && u.Hostname() != "" {
			host = u.Hostname()
		}
		return &apierr.ConnectionError{Msg: "Unable to find the server at " + host, Err: err}
	case errors.Is(err, syscall.ECONNREFUSED):
		return &apierr.ConnectionError{Msg: "Connection refused", Err: err}
	case errors.Is(err, context.Canceled):
		return &apierr.ConnectionError{Msg: "Request cancelled", Err: err}
	case errors.Is(err, context.DeadlineExceeded):
		return &apierr.ConnectionError{Msg: "Request timed out", Err: err}
	case errors.As(err, &netErr) && netErr.Timeout():
		return &apierr.ConnectionError{Msg: "Request timed out", Err: err}
	default:
		return &apierr.ConnectionError{Msg: err.Error(), Err: err}
	}
}
