// Package transport issues the physical HTTP calls against the ISE
// appliance. It knows nothing about categories, pagination, or rate
// limits; it sends one request and returns the raw status, headers,
// and body.
package transport

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Response is the raw result of one HTTP exchange.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Sender is the transport collaborator the executor depends on.
// Implementations must return an error only for connection-level
// failures (DNS, TLS, timeout); any HTTP status is a valid Response.
type Sender interface {
	Send(ctx context.Context, method, url string, header http.Header, body []byte) (*Response, error)
}

// Config holds transport configuration.
type Config struct {
	// VerifyTLS enables certificate verification. ISE appliances ship
	// self-signed certificates, so the client default is off.
	VerifyTLS bool

	// Timeout is the per-request timeout.
	Timeout time.Duration
}

// DefaultConfig returns transport defaults matching the appliance:
// TLS verification off, 60 second request timeout.
func DefaultConfig() Config {
	return Config{
		VerifyTLS: false,
		Timeout:   60 * time.Second,
	}
}

// HTTP is the production Sender backed by net/http.
type HTTP struct {
	client *http.Client
}

// New creates an HTTP transport.
func New(cfg Config) *HTTP {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}

	return &HTTP{
		client: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{
					InsecureSkipVerify: !cfg.VerifyTLS,
				},
			},
		},
	}
}

// Send performs one HTTP request and reads the full response body.
func (h *HTTP) Send(ctx context.Context, method, url string, header http.Header, body []byte) (*Response, error) {
	var reader io.Reader
	if len(body) > 0 {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	for key, values := range header {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send %s %s: %w", method, url, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header.Clone(),
		Body:       data,
	}, nil
}
