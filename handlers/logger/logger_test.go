package logger

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"gotest.tools/v3/assert"
)

type mockLogger struct {
	entries []logEntry
}

type logEntry struct {
	level slog.Level
	msg   string
	attrs []slog.Attr
}

func (m *mockLogger) LogAttrs(_ context.Context, level slog.Level, msg string, attrs ...slog.Attr) {
	m.entries = append(m.entries, logEntry{level: level, msg: msg, attrs: attrs})
}

func TestNewLogsServedRequest(t *testing.T) {
	logger := &mockLogger{}

	mw := New(
		WithLogger(logger),
	)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte("ok"))
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/stats?x=1", nil)
	req.RemoteAddr = "127.0.0.1:1234"
	w := httptest.NewRecorder()

	mw.ServeHTTP(w, req)

	assert.Equal(t, w.Code, http.StatusCreated)
	assert.Equal(t, len(logger.entries), 1)

	entry := logger.entries[0]
	assert.Equal(t, entry.msg, "request served")
	assert.Equal(t, entry.level, slog.LevelInfo)
	assert.Equal(t, attrValue(entry.attrs, "method"), "GET")
	assert.Equal(t, attrValue(entry.attrs, "path"), "/api/stats")
	assert.Equal(t, attrValue(entry.attrs, "ip"), "127.0.0.1")
	assert.Equal(t, attrValue(entry.attrs, "status"), "201")
	assert.Equal(t, attrValue(entry.attrs, "bytes"), "2")
	assert.Assert(t, hasAttr(entry.attrs, "duration"))
}

func TestLevelFollowsStatus(t *testing.T) {
	type input struct {
		status int
	}

	tests := []struct {
		name     string
		input    input
		expected slog.Level
	}{
		{name: "success", input: input{status: http.StatusOK}, expected: slog.LevelDebug},
		{name: "redirect", input: input{status: http.StatusFound}, expected: slog.LevelDebug},
		{name: "client error", input: input{status: http.StatusBadRequest}, expected: slog.LevelInfo},
		{name: "server error", input: input{status: http.StatusBadGateway}, expected: slog.LevelError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := &mockLogger{}

			mw := New(
				WithLogger(logger),
				WithLevels(slog.LevelDebug, slog.LevelInfo, slog.LevelError),
				WithMessage("done"),
			)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.input.status)
			}))

			mw.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

			assert.Equal(t, len(logger.entries), 1)
			assert.Equal(t, logger.entries[0].level, tt.expected)
			assert.Equal(t, logger.entries[0].msg, "done")
		})
	}
}

func TestWithSkipPaths(t *testing.T) {
	logger := &mockLogger{}

	mw := New(
		WithLogger(logger),
		WithSkipPaths("/healthz"),
	)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	mw.ServeHTTP(w, req)

	assert.Equal(t, w.Code, http.StatusOK)
	assert.Equal(t, len(logger.entries), 0)
}

func TestImplicitStatusOnWrite(t *testing.T) {
	logger := &mockLogger{}

	mw := New(
		WithLogger(logger),
		WithFields(FieldStatus, FieldBytes),
	)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("hello"))
		w.WriteHeader(http.StatusTeapot) // superfluous, ignored by the recorder too
	}))

	mw.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, len(logger.entries), 1)
	assert.Equal(t, len(logger.entries[0].attrs), 2)
	assert.Equal(t, attrValue(logger.entries[0].attrs, "status"), "200")
	assert.Equal(t, attrValue(logger.entries[0].attrs, "bytes"), "5")
}

func TestBuildAttrsAllFields(t *testing.T) {
	rw := &responseWriter{status: 200, bytes: 10}
	r := httptest.NewRequest(http.MethodPut, "/all?foo=bar", nil)
	r.Header.Set("X-Real-IP", "10.0.0.1")
	r.Header.Set("User-Agent", "dashkit-test")
	start := time.Now().Add(-time.Second)

	attrs := buildAttrs([]Field{
		FieldMethod,
		FieldPath,
		FieldQuery,
		FieldIP,
		FieldUserAgent,
		FieldStatus,
		FieldBytes,
		FieldDuration,
	}, r, rw, start)

	expected := []string{"method", "path", "query", "ip", "userAgent", "status", "bytes", "duration"}
	for _, key := range expected {
		assert.Assert(t, hasAttr(attrs, key), "expected attr %s", key)
	}
	assert.Equal(t, attrValue(attrs, "ip"), "10.0.0.1")
	assert.Equal(t, attrValue(attrs, "query"), "foo=bar")
	assert.Equal(t, attrValue(attrs, "userAgent"), "dashkit-test")
}

func TestShouldSkip(t *testing.T) {
	prefixes := []string{"/skip"}

	req1 := httptest.NewRequest(http.MethodGet, "/skip/foo", nil)
	assert.Assert(t, shouldSkip(req1, prefixes))

	req2 := httptest.NewRequest(http.MethodGet, "/other", nil)
	assert.Assert(t, !shouldSkip(req2, prefixes))
}

func hasAttr(attrs []slog.Attr, key string) bool {
	for _, a := range attrs {
		if a.Key == key {
			return true
		}
	}
	return false
}

func attrValue(attrs []slog.Attr, key string) string {
	for _, a := range attrs {
		if a.Key == key {
			return a.Value.String()
		}
	}
	return ""
}
