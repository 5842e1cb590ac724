// Package fetch issues HTTP GET requests and decodes JSON responses.
//
// A call performs exactly one request: there are no retries and no client
// side timeout beyond the deadline of the context passed in. Responses with
// a non-2xx status are reported as *StatusError; transport and JSON decoding
// errors are returned unchanged.
//
// Example usage:
//
//	package main
//
//	import (
//		"context"
//		"errors"
//		"fmt"
//
//		"github.com/paccolamano/dashkit/fetch"
//	)
//
//	type Stats struct {
//		Users   int     `json:"users"`
//		Revenue float64 `json:"revenue"`
//	}
//
//	func main() {
//		stats, err := fetch.JSON[Stats](context.Background(), "http://localhost:5000/api/stats")
//		if err != nil {
//			var statusErr *fetch.StatusError
//			if errors.As(err, &statusErr) {
//				fmt.Println("server answered", statusErr.StatusCode)
//			}
//			return
//		}
//
//		fmt.Println(stats.Users, stats.Revenue)
//	}
package fetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/paccolamano/dashkit/utility"
)

// Logger defines the minimal logging interface used by Client.
// It matches log/slog.Logger's LogAttrs method.
type Logger interface {
	LogAttrs(ctx context.Context, level slog.Level, msg string, attrs ...slog.Attr)
}

type noopLogger struct{}

func (noopLogger) LogAttrs(_ context.Context, _ slog.Level, _ string, _ ...slog.Attr) {}

// StatusError is returned when the server answers with a status outside the
// 2xx range. The response body is discarded.
type StatusError struct {
	// StatusCode is the numeric HTTP status, e.g. 404.
	StatusCode int
	// StatusText is the reason phrase sent by the server, e.g. "Not Found".
	StatusText string
}

// Error returns "HTTP <status>: <status text>".
func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.StatusText)
}

type config struct {
	httpClient  *http.Client
	logger      Logger
	headers     http.Header
	traceHeader string
}

// Option configures a Client.
type Option func(*config)

// WithHTTPClient sets the http.Client used to send requests.
// Default is http.DefaultClient.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *config) {
		c.httpClient = hc
	}
}

// WithLogger sets a Logger receiving a debug record per request.
// Default discards everything.
func WithLogger(l Logger) Option {
	return func(c *config) {
		c.logger = l
	}
}

// WithHeader adds a header sent with every request.
func WithHeader(key, value string) Option {
	return func(c *config) {
		c.headers.Add(key, value)
	}
}

// WithTraceHeader makes the client send a freshly generated UUID under the
// given header name with every request, e.g. "X-Trace-ID".
func WithTraceHeader(name string) Option {
	return func(c *config) {
		c.traceHeader = name
	}
}

// Client fetches JSON documents. It is safe for concurrent use.
type Client struct {
	httpClient  *http.Client
	logger      Logger
	headers     http.Header
	traceHeader string
}

// NewClient creates a Client configured by opts.
func NewClient(opts ...Option) *Client {
	c := &config{
		httpClient: http.DefaultClient,
		logger:     noopLogger{},
		headers:    make(http.Header),
	}

	for _, opt := range opts {
		opt(c)
	}

	return &Client{
		httpClient:  c.httpClient,
		logger:      c.logger,
		headers:     c.headers,
		traceHeader: c.traceHeader,
	}
}

var defaultClient = NewClient()

// JSON fetches url with the default client and decodes the body into a T.
// Use any as T when the shape of the document is not known in advance.
func JSON[T any](ctx context.Context, url string) (T, error) {
	return Get[T](ctx, defaultClient, url)
}

// Get fetches url with c and decodes the body into a T.
func Get[T any](ctx context.Context, c *Client, url string) (T, error) {
	var zero T

	body, err := c.do(ctx, url)
	if err != nil {
		return zero, err
	}
	defer body.Close()

	return utility.DecodeJSON[T](body)
}

// GetJSON fetches url and decodes the body into v, which must be a pointer.
func (c *Client) GetJSON(ctx context.Context, url string, v any) error {
	body, err := c.do(ctx, url)
	if err != nil {
		return err
	}
	defer body.Close()

	return utility.DecodeJSONInto(body, v)
}

// do sends the request and returns the body of a successful response.
// The caller must close it.
func (c *Client) do(ctx context.Context, url string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	for key, values := range c.headers {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
	req.Header.Set("Accept", "application/json")

	attrs := []slog.Attr{slog.String("url", url)}
	if c.traceHeader != "" {
		traceID := uuid.New().String()
		req.Header.Set(c.traceHeader, traceID)
		attrs = append(attrs, slog.String("traceID", traceID))
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.LogAttrs(ctx, slog.LevelDebug, "fetch failed",
			append(attrs, slog.String("error", err.Error()))...)
		return nil, err
	}

	c.logger.LogAttrs(ctx, slog.LevelDebug, "fetch completed",
		append(attrs, slog.Int("status", resp.StatusCode), slog.Duration("duration", time.Since(start)))...)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
		return nil, &StatusError{
			StatusCode: resp.StatusCode,
			StatusText: statusText(resp),
		}
	}

	return resp.Body, nil
}

// statusText extracts the reason phrase from resp.Status ("404 Not Found"),
// falling back to the standard text for the code.
func statusText(resp *http.Response) string {
	text := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
	if text == "" {
		return http.StatusText(resp.StatusCode)
	}
	return text
}
