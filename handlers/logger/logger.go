// Package logger provides an HTTP middleware that writes one structured
// log record per served request through log/slog.
//
// The record is emitted once the response is complete and carries the
// configured fields (method, path, status, bytes written, duration, ...).
// Its level follows the response status so that failing requests stand out:
// 2xx/3xx at the success level, 4xx at the client error level and 5xx at the
// server error level.
//
// Example usage:
//
//	mux := http.NewServeMux()
//	mux.HandleFunc("/api/stats", statsHandler)
//
//	logged := logger.New(
//		logger.WithLogger(slog.Default()),
//		logger.WithSkipPaths("/healthz"),
//	)(mux)
//
//	http.ListenAndServe(":5000", logged)
package logger

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"
)

// Logger defines the minimal logging interface required by this handler.
// It matches log/slog.Logger's LogAttrs method, but allows plugging in custom loggers.
type Logger interface {
	LogAttrs(ctx context.Context, level slog.Level, msg string, attrs ...slog.Attr)
}

// Field represents a request/response attribute that can be logged.
type Field string

const (
	// FieldMethod logs the HTTP request method.
	FieldMethod Field = "method"
	// FieldPath logs the request URL path.
	FieldPath Field = "path"
	// FieldQuery logs the raw query string.
	FieldQuery Field = "query"
	// FieldIP logs the client IP address (from X-Real-IP or RemoteAddr).
	FieldIP Field = "ip"
	// FieldUserAgent logs the User-Agent header.
	FieldUserAgent Field = "userAgent"
	// FieldStatus logs the response status code.
	FieldStatus Field = "status"
	// FieldBytes logs the number of body bytes written.
	FieldBytes Field = "bytes"
	// FieldDuration logs the time it took to serve the request.
	FieldDuration Field = "duration"
)

// DefaultFields are logged when WithFields is not used.
var DefaultFields = []Field{FieldMethod, FieldPath, FieldIP, FieldStatus, FieldBytes, FieldDuration}

type config struct {
	logger      Logger
	levelOK     slog.Level
	levelClient slog.Level
	levelServer slog.Level
	fields      []Field
	skipPaths   []string
	message     string
}

// Option represents a functional option for configuring the logger handler.
type Option func(*config)

// WithLogger sets a custom Logger implementation. Default is slog.Default().
func WithLogger(l Logger) Option {
	return func(c *config) {
		c.logger = l
	}
}

// WithLevels sets the levels used for successful (< 400), client error (4xx)
// and server error (5xx) responses. Defaults are Info, Warn and Error.
func WithLevels(ok, clientErr, serverErr slog.Level) Option {
	return func(c *config) {
		c.levelOK = ok
		c.levelClient = clientErr
		c.levelServer = serverErr
	}
}

// WithFields specifies which fields to log.
func WithFields(fields ...Field) Option {
	return func(c *config) {
		c.fields = fields
	}
}

// WithSkipPaths configures path prefixes that are never logged.
func WithSkipPaths(paths ...string) Option {
	return func(c *config) {
		c.skipPaths = append(c.skipPaths, paths...)
	}
}

// WithMessage sets the log message. Default is "request served".
func WithMessage(msg string) Option {
	return func(c *config) {
		c.message = msg
	}
}

// responseWriter captures the status code and body size written.
type responseWriter struct {
	http.ResponseWriter
	status      int
	bytes       int
	wroteHeader bool
}

func (rw *responseWriter) WriteHeader(code int) {
	if !rw.wroteHeader {
		rw.status = code
		rw.wroteHeader = true
	}
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	if !rw.wroteHeader {
		rw.WriteHeader(http.StatusOK)
	}
	n, err := rw.ResponseWriter.Write(b)
	rw.bytes += n
	return n, err
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// New creates a logging handler with the given options.
func New(opts ...Option) func(http.Handler) http.Handler {
	c := &config{
		logger:      slog.Default(),
		levelOK:     slog.LevelInfo,
		levelClient: slog.LevelWarn,
		levelServer: slog.LevelError,
		fields:      DefaultFields,
		message:     "request served",
	}

	for _, opt := range opts {
		opt(c)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if shouldSkip(r, c.skipPaths) {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rw, r)

			c.logger.LogAttrs(r.Context(), c.levelFor(rw.status), c.message,
				buildAttrs(c.fields, r, rw, start)...,
			)
		})
	}
}

func (c *config) levelFor(status int) slog.Level {
	switch {
	case status >= http.StatusInternalServerError:
		return c.levelServer
	case status >= http.StatusBadRequest:
		return c.levelClient
	default:
		return c.levelOK
	}
}

func shouldSkip(r *http.Request, prefixes []string) bool {
	for _, prefix := range prefixes {
		if strings.HasPrefix(r.URL.Path, prefix) {
			return true
		}
	}
	return false
}

func clientIP(r *http.Request) string {
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

func buildAttrs(fields []Field, r *http.Request, rw *responseWriter, start time.Time) []slog.Attr {
	attrs := make([]slog.Attr, 0, len(fields))

	for _, f := range fields {
		switch f {
		case FieldMethod:
			attrs = append(attrs, slog.String(string(f), r.Method))
		case FieldPath:
			attrs = append(attrs, slog.String(string(f), r.URL.Path))
		case FieldQuery:
			attrs = append(attrs, slog.String(string(f), r.URL.RawQuery))
		case FieldIP:
			attrs = append(attrs, slog.String(string(f), clientIP(r)))
		case FieldUserAgent:
			attrs = append(attrs, slog.String(string(f), r.UserAgent()))
		case FieldStatus:
			attrs = append(attrs, slog.Int(string(f), rw.status))
		case FieldBytes:
			attrs = append(attrs, slog.Int(string(f), rw.bytes))
		case FieldDuration:
			attrs = append(attrs, slog.Duration(string(f), time.Since(start)))
		}
	}

	return attrs
}
