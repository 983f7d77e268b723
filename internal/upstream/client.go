package upstream

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"golang.org/x/time/rate"
)

// HeaderRequestID is forwarded on every upstream request.
const HeaderRequestID = "X-Request-Id"

// Config holds the fixed upstream endpoints.
type Config struct {
	MetadataBaseURL string
	FileBaseURL     string
	FilesAspect     string

	// RPS throttles outbound requests; zero disables throttling.
	RPS   float64
	Burst int

	// HTTPClient defaults to a client with the default transport and no timeout.
	HTTPClient *http.Client
}

// Client issues the metadata and file requests. It is safe for concurrent
// use and is not modified after construction.
type Client struct {
	http         *http.Client
	metadataBase string
	fileBase     string
	filesAspect  string
	limiter      *rate.Limiter
}

// NewClient builds a Client from cfg.
func NewClient(cfg Config) *Client {
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{}
	}
	c := &Client{
		http:         hc,
		metadataBase: strings.TrimRight(cfg.MetadataBaseURL, "/"),
		fileBase:     strings.TrimRight(cfg.FileBaseURL, "/"),
		filesAspect:  cfg.FilesAspect,
	}
	if cfg.RPS > 0 {
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RPS), burst)
	}
	return c
}

type requestIDKey struct{}

// WithRequestID returns a context whose upstream requests carry id.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestID returns the id stored by WithRequestID, or "".
func RequestID(ctx context.Context) string {
	v, _ := ctx.Value(requestIDKey{}).(string)
	return v
}

// get performs one GET. On success the caller owns resp.Body.
func (c *Client) get(ctx context.Context, op, target, accept string) (*http.Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, &RequestError{Op: op, URL: target, Err: fmt.Errorf("%w: %v", ErrUnavailable, err)}
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, &RequestError{Op: op, URL: target, Err: fmt.Errorf("%w: %v", ErrUnavailable, err)}
	}
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	if id := RequestID(ctx); id != "" {
		req.Header.Set(HeaderRequestID, id)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &RequestError{Op: op, URL: target, Err: fmt.Errorf("%w: %v", ErrUnavailable, err)}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain a little so the connection can be reused.
		_, _ = io.CopyN(io.Discard, resp.Body, 4096)
		resp.Body.Close()
		return nil, &RequestError{Op: op, URL: target, StatusCode: resp.StatusCode, Err: ErrNotFound}
	}
	return resp, nil
}
