// Package ctxlog provides a slog.Handler that adds attributes extracted from
// the context.Context of every record, and helpers to build the base handler
// it delegates to.
//
// Example usage:
//
//	package main
//
//	import (
//		"context"
//		"log/slog"
//		"os"
//
//		"github.com/paccolamano/dashkit/ctxlog"
//		"github.com/paccolamano/dashkit/handlers/tracer"
//	)
//
//	func main() {
//		base := ctxlog.NewBaseHandler(os.Stderr, ctxlog.FormatAuto, slog.LevelInfo)
//
//		logger := slog.New(ctxlog.NewContextHandler(
//			ctxlog.WithBaseHandler(base),
//			ctxlog.WithExtractor(tracer.LogAttrs),
//		))
//
//		logger.InfoContext(context.Background(), "dashboard starting")
//	}
package ctxlog

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

// AttrExtractor returns the attributes to add to a record logged with ctx.
type AttrExtractor func(ctx context.Context) []slog.Attr

// Format selects the output encoding of NewBaseHandler.
type Format string

const (
	// FormatText writes logfmt-style lines.
	FormatText Format = "text"
	// FormatJSON writes one JSON object per line.
	FormatJSON Format = "json"
	// FormatAuto writes text to terminals and JSON everywhere else.
	FormatAuto Format = "auto"
)

// ParseFormat validates a format name. The empty string means FormatAuto.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatAuto, nil
	case FormatText, FormatJSON, FormatAuto:
		return f, nil
	default:
		return "", fmt.Errorf("unknown log format %q", s)
	}
}

// ParseLevel parses a level name such as "debug", "info", "warn" or "error".
// The empty string means info.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if strings.TrimSpace(s) == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("unknown log level %q", s)
	}
	return level, nil
}

// NewBaseHandler returns a text or JSON handler writing to w. With
// FormatAuto the text handler is used only when w is a terminal.
func NewBaseHandler(w io.Writer, format Format, level slog.Leveler) slog.Handler {
	opts := &slog.HandlerOptions{Level: level}

	if format == FormatAuto {
		format = FormatJSON
		if isTerminal(w) {
			format = FormatText
		}
	}

	if format == FormatText {
		return slog.NewTextHandler(w, opts)
	}
	return slog.NewJSONHandler(w, opts)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

type config struct {
	baseHandler slog.Handler
	extractors  []AttrExtractor
}

// Option configures a ContextHandler.
type Option func(*config)

// WithBaseHandler sets the handler records are delegated to. Default is a
// text handler on os.Stdout at info level.
func WithBaseHandler(h slog.Handler) Option {
	return func(c *config) {
		c.baseHandler = h
	}
}

// WithExtractor adds an AttrExtractor. Extractors run in the order they are added.
func WithExtractor(ex AttrExtractor) Option {
	return func(c *config) {
		c.extractors = append(c.extractors, ex)
	}
}

// ContextHandler enriches records with attributes extracted from their
// context before passing them to a base handler.
type ContextHandler struct {
	base       slog.Handler
	extractors []AttrExtractor
}

// NewContextHandler creates a ContextHandler configured by opts.
func NewContextHandler(opts ...Option) *ContextHandler {
	c := &config{
		baseHandler: slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
	}

	for _, opt := range opts {
		opt(c)
	}

	return &ContextHandler{
		base:       c.baseHandler,
		extractors: c.extractors,
	}
}

// Enabled delegates to the base handler.
func (h *ContextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.base.Enabled(ctx, level)
}

// Handle adds the extracted attributes to a copy of rec and passes it on.
func (h *ContextHandler) Handle(ctx context.Context, rec slog.Record) error {
	if len(h.extractors) == 0 {
		return h.base.Handle(ctx, rec)
	}

	rec = rec.Clone()
	for _, ex := range h.extractors {
		rec.AddAttrs(ex(ctx)...)
	}

	return h.base.Handle(ctx, rec)
}

// WithAttrs returns a ContextHandler whose base handler carries attrs.
func (h *ContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ContextHandler{
		base:       h.base.WithAttrs(attrs),
		extractors: h.extractors,
	}
}

// WithGroup returns a ContextHandler whose base handler opens group name.
func (h *ContextHandler) WithGroup(name string) slog.Handler {
	return &ContextHandler{
		base:       h.base.WithGroup(name),
		extractors: h.extractors,
	}
}
