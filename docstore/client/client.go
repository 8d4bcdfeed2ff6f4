// Package client implements the HTTP transport of the driver. A Client
// wire-encodes query expressions, POSTs them to the server, and decodes the
// response resource back into a Value tree.
package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/wbrown/janus-docstore/docstore"
	"github.com/wbrown/janus-docstore/docstore/wire"
)

// Server error categories, mapped from the HTTP status of a failed query.
// Match with errors.Is; the concrete error also carries the server's
// description.
var (
	ErrBadRequest   = errors.New("bad request")
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotFound     = errors.New("not found")
	ErrUnavailable  = errors.New("service unavailable")
)

const defaultTimeout = 60 * time.Second

// Client is a connection to a document database endpoint. It is safe for
// concurrent use; the zero value is not usable, construct with NewClient.
type Client struct {
	endpoint string
	secret   string
	http     *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient substitutes the underlying HTTP client, e.g. to configure
// pooling or TLS.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithTimeout caps the total time for a single query round trip.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// NewClient creates a client for the given endpoint, authenticating with
// the given secret.
func NewClient(endpoint, secret string, opts ...Option) (*Client, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid endpoint %q: %w", endpoint, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid endpoint %q: scheme must be http or https", endpoint)
	}

	c := &Client{
		endpoint: endpoint,
		secret:   secret,
		http:     &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Query sends a query expression and returns the resource it evaluated to.
// Expected server failures come back as errors matching one of the
// category sentinels; coercion of the returned Value is the caller's
// business via the docstore codecs.
func (c *Client) Query(ctx context.Context, expr docstore.Value) (docstore.Value, error) {
	body, err := wire.Encode(expr)
	if err != nil {
		return nil, fmt.Errorf("encoding query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(c.secret, "")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, queryError(resp.StatusCode, payload)
	}

	decoded, err := wire.Decode(payload)
	if err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	resource, err := docstore.At(decoded, "resource").Get()
	if err != nil {
		return nil, fmt.Errorf("malformed response: %w", err)
	}
	return resource, nil
}

func queryError(status int, payload []byte) error {
	category := categoryFor(status)
	desc := errorDescription(payload)
	if desc == "" {
		return fmt.Errorf("%w (http %d)", category, status)
	}
	return fmt.Errorf("%w (http %d): %s", category, status, desc)
}

func categoryFor(status int) error {
	switch status {
	case http.StatusBadRequest:
		return ErrBadRequest
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrUnauthorized
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusServiceUnavailable:
		return ErrUnavailable
	default:
		return errors.New("unexpected server response")
	}
}

// errorDescription pulls the first description out of the server's error
// payload, tolerating any shape the server throws at us.
func errorDescription(payload []byte) string {
	decoded, err := wire.Decode(payload)
	if err != nil {
		return ""
	}

	desc, err := docstore.String.At(decoded, "errors", 0, "description").Get()
	if err != nil {
		return ""
	}
	return desc
}
