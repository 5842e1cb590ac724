// Package recover provides an HTTP middleware that turns panics raised by
// downstream handlers into a logged error and a JSON error response.
//
// http.ErrAbortHandler is re-raised untouched so that net/http can abort the
// connection as intended.
//
// Example usage:
//
//	mux := http.NewServeMux()
//	mux.HandleFunc("/api/users", usersHandler)
//
//	h := recover.New(
//		recover.WithLogger(logger),
//		recover.WithIncludeStack(true),
//	)(mux)
//
//	log.Fatal(http.ListenAndServe(":5000", h))
package recover

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
)

// Logger is a minimal structured-logger interface used by New.
// It mirrors slog.Logger.LogAttrs.
type Logger interface {
	LogAttrs(ctx context.Context, level slog.Level, msg string, attrs ...slog.Attr)
}

// Callback writes the response after a panic has been recovered and logged.
// stack is nil unless WithIncludeStack(true) is set.
type Callback func(w http.ResponseWriter, r *http.Request, recovered any, stack []byte)

// ErrorBody is the JSON document written by the default callback.
type ErrorBody struct {
	Error string `json:"error"`
}

type config struct {
	logger       Logger
	includeStack bool
	callback     Callback
}

// Option configures the recover handler.
type Option func(*config)

// WithLogger sets a structured Logger. Default is slog.Default().
func WithLogger(l Logger) Option {
	return func(c *config) {
		c.logger = l
	}
}

// WithIncludeStack toggles capturing the stack trace of recovered panics.
// Capturing it is costly, so it is off by default.
func WithIncludeStack(include bool) Option {
	return func(c *config) {
		c.includeStack = include
	}
}

// WithCallback replaces the default JSON 500 response.
func WithCallback(cb Callback) Option {
	return func(c *config) {
		c.callback = cb
	}
}

// New returns a handler that recovers from panics in next, logs them at
// error level under "recovered from panic" and answers with
// {"error":"Internal Server Error"} unless a custom callback is configured.
func New(opts ...Option) func(http.Handler) http.Handler {
	c := &config{
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.callback == nil {
		c.callback = c.writeJSON
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if err, ok := rec.(error); ok && errors.Is(err, http.ErrAbortHandler) {
					panic(rec)
				}

				var stack []byte
				attrs := []slog.Attr{
					slog.String("error", describe(rec)),
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
				}
				if c.includeStack {
					stack = debug.Stack()
					attrs = append(attrs, slog.String("stack", string(stack)))
				}

				c.logger.LogAttrs(r.Context(), slog.LevelError, "recovered from panic", attrs...)
				c.callback(w, r, rec, stack)
			}()

			next.ServeHTTP(w, r)
		})
	}
}

func (c *config) writeJSON(w http.ResponseWriter, r *http.Request, _ any, _ []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusInternalServerError)

	err := json.NewEncoder(w).Encode(ErrorBody{Error: http.StatusText(http.StatusInternalServerError)})
	if err != nil {
		c.logger.LogAttrs(r.Context(), slog.LevelError, "failed to send recovery response",
			slog.String("error", err.Error()))
	}
}

func describe(rec any) string {
	if err, ok := rec.(error); ok {
		return err.Error()
	}
	return fmt.Sprint(rec)
}
