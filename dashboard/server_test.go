package dashboard

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"gotest.tools/v3/assert"

	"github.com/paccolamano/dashkit/fetch"
	"github.com/paccolamano/dashkit/format"
	"github.com/paccolamano/dashkit/handlers/tracer"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	s := NewServer(":0", NewStore(DefaultDataset()), WithLogger(discard))
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)

	return ts
}

func usersURL(base, q string) string {
	if q == "" {
		return base + "/api/users"
	}
	return base + "/api/users?q=" + url.QueryEscape(q)
}

func TestServerStats(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)

	stats, err := fetch.Get[Stats](context.Background(), fetch.NewClient(fetch.WithHTTPClient(ts.Client())), ts.URL+"/api/stats")
	assert.NilError(t, err)
	assert.DeepEqual(t, stats, DefaultDataset().Stats)

	revenue, err := format.Currency(stats.Revenue)
	assert.NilError(t, err)
	assert.Equal(t, revenue, "$24,350.75")
}

func TestServerUsers(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)
	client := fetch.NewClient(fetch.WithHTTPClient(ts.Client()))

	type input struct {
		q string
	}

	type output struct {
		names       []string
		expectedErr string
	}

	tests := []struct {
		name   string
		input  input
		output output
	}{
		{
			name:   "no search returns every user",
			output: output{names: []string{"Alice", "Bob", "Charlie"}},
		},
		{
			name:   "role filter",
			input:  input{q: `{"groups":{"op":"and","filters":[{"field":"role","op":"eq","value":"editor"}]}}`},
			output: output{names: []string{"Bob"}},
		},
		{
			name:   "or group with like",
			input:  input{q: `{"groups":{"op":"or","filters":[{"field":"name","op":"like","value":"%li%"},{"field":"role","op":"eq","value":"editor"}]}}`},
			output: output{names: []string{"Alice", "Bob", "Charlie"}},
		},
		{
			name:   "order descending with limit and offset",
			input:  input{q: `{"order_by":[{"field":"name","direction":"desc"}],"limit":1,"offset":1}`},
			output: output{names: []string{"Bob"}},
		},
		{
			name:   "numeric comparison on id",
			input:  input{q: `{"groups":{"op":"and","filters":[{"field":"id","op":"gte","value":"2"}]}}`},
			output: output{names: []string{"Bob", "Charlie"}},
		},
		{
			name:   "field not allowed",
			input:  input{q: `{"groups":{"op":"and","filters":[{"field":"password","op":"eq","value":"x"}]}}`},
			output: output{expectedErr: "HTTP 400"},
		},
		{
			name:   "limit over maximum",
			input:  input{q: `{"limit":101}`},
			output: output{expectedErr: "HTTP 400"},
		},
		{
			name:   "malformed document",
			input:  input{q: `{"groups":`},
			output: output{expectedErr: "HTTP 400"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			users, err := fetch.Get[[]User](context.Background(), client, usersURL(ts.URL, tt.input.q))
			if tt.output.expectedErr != "" {
				assert.ErrorContains(t, err, tt.output.expectedErr)

				var statusErr *fetch.StatusError
				assert.Assert(t, errors.As(err, &statusErr))
				assert.Equal(t, statusErr.StatusCode, http.StatusBadRequest)
				return
			}

			assert.NilError(t, err)

			names := make([]string, 0, len(users))
			for _, u := range users {
				names = append(names, u.Name)
			}
			assert.DeepEqual(t, names, tt.output.names)
		})
	}
}

func TestServerTraceHeader(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)

	for _, path := range []string{"/", "/api/stats", "/api/users", "/healthz", "/missing"} {
		resp, err := ts.Client().Get(ts.URL + path)
		assert.NilError(t, err)
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()

		_, err = uuid.Parse(resp.Header.Get(tracer.DefaultHeader))
		assert.NilError(t, err, path)
	}
}

func TestServerReusesIncomingTraceID(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)
	id := uuid.New()

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/api/stats", nil)
	assert.NilError(t, err)
	req.Header.Set(tracer.DefaultHeader, id.String())

	resp, err := ts.Client().Do(req)
	assert.NilError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, resp.Header.Get(tracer.DefaultHeader), id.String())
}

func TestServerIndex(t *testing.T) {
	t.Parallel()

	store := NewStore(DefaultDataset())
	s := NewServer(":0", store, WithLogger(discard), WithTitle("Ops"))

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, rec.Code, http.StatusOK)
	assert.Equal(t, rec.Header().Get("Content-Type"), "text/html; charset=utf-8")

	_, updated := store.Snapshot()
	body := rec.Body.String()
	for _, want := range []string{"<title>Ops</title>", "$24,350.75", "99.97%", "Charlie", "Updated " + format.Time(updated)} {
		assert.Assert(t, strings.Contains(body, want), "missing %q in %s", want, body)
	}
}

func TestServerHealthz(t *testing.T) {
	t.Parallel()

	s := NewServer(":0", NewStore(Dataset{}), WithLogger(discard))

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, rec.Code, http.StatusOK)
	assert.Equal(t, strings.TrimSpace(rec.Body.String()), `{"status":"ok"}`)
}

func TestServerMethodNotAllowed(t *testing.T) {
	t.Parallel()

	s := NewServer(":0", NewStore(DefaultDataset()), WithLogger(discard))

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/stats", nil))

	assert.Equal(t, rec.Code, http.StatusMethodNotAllowed)
}

func TestServerServeAndShutdown(t *testing.T) {
	t.Parallel()

	s := NewServer("127.0.0.1:0", NewStore(DefaultDataset()), WithLogger(discard))
	assert.Equal(t, s.Name(), "dashboard-http")

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	assert.NilError(t, err)

	done := make(chan error, 1)
	go func() { done <- s.Serve(context.Background(), ln) }()

	stats, err := fetch.JSON[map[string]any](context.Background(), "http://"+ln.Addr().String()+"/api/stats")
	assert.NilError(t, err)
	assert.Equal(t, stats["uptime"], "99.97%")

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NilError(t, s.Shutdown(ctx))

	select {
	case err := <-done:
		assert.NilError(t, err)
	case <-time.After(time.Second):
		t.Fatal("server did not stop")
	}
}
