package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/paccolamano/dashkit/handlers/logger"
	"github.com/paccolamano/dashkit/handlers/qparams"
	"github.com/paccolamano/dashkit/handlers/recover"
	"github.com/paccolamano/dashkit/handlers/tracer"
)

// MaxUsersLimit caps the number of users returned by /api/users.
const MaxUsersLimit = 100

// Logger defines the minimal logging interface used by the dashboard.
// It matches log/slog.Logger's LogAttrs method.
type Logger interface {
	LogAttrs(ctx context.Context, level slog.Level, msg string, attrs ...slog.Attr)
}

type serverConfig struct {
	logger       Logger
	includeStack bool
	title        string
}

// ServerOption configures a Server.
type ServerOption func(*serverConfig)

// WithLogger sets the logger used for access logs and errors. Default is slog.Default().
func WithLogger(l Logger) ServerOption {
	return func(c *serverConfig) {
		c.logger = l
	}
}

// WithDebug includes stack traces of recovered panics in the logs.
func WithDebug(debug bool) ServerOption {
	return func(c *serverConfig) {
		c.includeStack = debug
	}
}

// WithTitle sets the title of the index page. Default is "Dashboard".
func WithTitle(title string) ServerOption {
	return func(c *serverConfig) {
		c.title = title
	}
}

// Server serves the dashboard. It implements gracely.Service.
type Server struct {
	store  *Store
	logger Logger
	title  string
	http   *http.Server
}

// NewServer returns a Server listening on addr and serving store.
func NewServer(addr string, store *Store, opts ...ServerOption) *Server {
	c := &serverConfig{
		logger: slog.Default(),
		title:  "Dashboard",
	}

	for _, opt := range opts {
		opt(c)
	}

	s := &Server{
		store:  store,
		logger: c.logger,
		title:  c.title,
	}

	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.routes(c),
		ReadHeaderTimeout: 10 * time.Second,
	}

	return s
}

// Handler returns the root handler, with every middleware applied.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

// Name implements gracely.Service.
func (s *Server) Name() string {
	return "dashboard-http"
}

// Run listens and serves until Shutdown is called.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.http.Addr)
	if err != nil {
		return err
	}

	return s.Serve(ctx, ln)
}

// Serve serves on ln until Shutdown is called.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.logger.LogAttrs(ctx, slog.LevelInfo, "dashboard listening", slog.String("addr", ln.Addr().String()))

	if err := s.http.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func (s *Server) routes(c *serverConfig) http.Handler {
	search := qparams.NewSearchHandler(
		qparams.WithFilterFields("id", "name", "email", "role"),
		qparams.WithOrderFields("id", "name", "role"),
		qparams.WithLimit(MaxUsersLimit),
	)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /api/stats", s.handleStats)
	mux.Handle("GET /api/users", search(http.HandlerFunc(s.handleUsers)))
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		s.writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
	})

	var h http.Handler = mux
	h = recover.New(recover.WithLogger(c.logger), recover.WithIncludeStack(c.includeStack))(h)
	h = logger.New(logger.WithLogger(c.logger), logger.WithSkipPaths("/healthz"))(h)
	h = tracer.New()(h)

	return h
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	data, _ := s.store.Snapshot()
	s.writeJSON(w, r, http.StatusOK, data.CurrentStats())
}

func (s *Server) handleUsers(w http.ResponseWriter, r *http.Request) {
	data, _ := s.store.Snapshot()
	users := qparams.Apply(data.Users, qparams.GetSearchRequest(r), userField)
	s.writeJSON(w, r, http.StatusOK, users)
}

func userField(u User, field string) string {
	switch field {
	case "id":
		return strconv.Itoa(u.ID)
	case "name":
		return u.Name
	case "email":
		return u.Email
	case "role":
		return string(u.Role)
	default:
		return ""
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.LogAttrs(r.Context(), slog.LevelError, "failed to send response",
			slog.String("error", err.Error()))
	}
}
