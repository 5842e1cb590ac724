// Package tracer provides an HTTP middleware that assigns a trace id (UUID)
// to every request.
//
// The id is:
//  1. taken from the incoming request header when it carries a valid UUID
//     (so a dashboard client can correlate its own logs), or generated;
//  2. stored in the request context;
//  3. echoed in the response header (default "X-Trace-ID").
//
// LogAttrs exposes the id as a slog attribute and plugs directly into
// ctxlog.WithExtractor.
//
// Example usage:
//
//	mux := http.NewServeMux()
//	mux.HandleFunc("/api/stats", func(w http.ResponseWriter, r *http.Request) {
//		if id, ok := tracer.FromContext(r.Context()); ok {
//			fmt.Fprintf(w, "trace id: %s\n", id)
//		}
//	})
//
//	log.Fatal(http.ListenAndServe(":8080", tracer.New()(mux)))
package tracer

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
)

// DefaultHeader is the header used to read and write trace ids.
const DefaultHeader = "X-Trace-ID"

type traceIDKey struct{}

type config struct {
	headerKey     string
	trustIncoming bool
}

// Option represents a functional option for configuring the tracer handler.
type Option func(*config)

// WithHeaderKey sets the header used to read and write the trace id.
func WithHeaderKey(key string) Option {
	return func(c *config) {
		c.headerKey = key
	}
}

// WithTrustIncoming controls whether a valid UUID found in the request header
// is reused. Default is true.
func WithTrustIncoming(trust bool) Option {
	return func(c *config) {
		c.trustIncoming = trust
	}
}

// New returns a handler that attaches a trace id to each request context and
// response.
func New(opts ...Option) func(http.Handler) http.Handler {
	c := &config{
		headerKey:     DefaultHeader,
		trustIncoming: true,
	}

	for _, opt := range opts {
		opt(c)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := incomingID(r, c)
			if !ok {
				id = uuid.New()
			}

			w.Header().Set(c.headerKey, id.String())

			next.ServeHTTP(w, r.WithContext(NewContext(r.Context(), id)))
		})
	}
}

func incomingID(r *http.Request, c *config) (uuid.UUID, bool) {
	if !c.trustIncoming {
		return uuid.Nil, false
	}

	id, err := uuid.Parse(r.Header.Get(c.headerKey))
	if err != nil || id == uuid.Nil {
		return uuid.Nil, false
	}

	return id, true
}

// NewContext returns a copy of ctx carrying id.
func NewContext(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, traceIDKey{}, id)
}

// FromContext returns the trace id stored in ctx by New, if any.
func FromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(traceIDKey{}).(uuid.UUID)
	return id, ok
}

// GetTraceID returns the trace id of r, or nil when r has none.
func GetTraceID(r *http.Request) *uuid.UUID {
	if r == nil {
		return nil
	}

	id, ok := FromContext(r.Context())
	if !ok {
		return nil
	}

	return &id
}

// LogAttrs returns the trace id of ctx as a "traceID" attribute, or nothing.
// Its signature matches ctxlog.AttrExtractor.
func LogAttrs(ctx context.Context) []slog.Attr {
	id, ok := FromContext(ctx)
	if !ok {
		return nil
	}
	return []slog.Attr{slog.String("traceID", id.String())}
}
