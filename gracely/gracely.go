// Package gracely runs long-lived services and shuts them down gracefully
// when the process receives a termination signal, the parent context is
// cancelled or one of the services fails.
//
// Example usage:
//
//	package main
//
//	import (
//		"context"
//		"log/slog"
//		"os"
//		"time"
//
//		"github.com/paccolamano/dashkit/dashboard"
//		"github.com/paccolamano/dashkit/gracely"
//	)
//
//	func main() {
//		logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
//		srv := dashboard.NewServer(":5000", dashboard.NewStore(dashboard.DefaultDataset()))
//
//		err := gracely.Run(context.Background(), []gracely.Service{srv},
//			gracely.WithLogger(logger),
//			gracely.WithTimeout(5*time.Second),
//		)
//		if err != nil {
//			logger.Error("dashboard stopped", slog.String("error", err.Error()))
//			os.Exit(1)
//		}
//	}
package gracely

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"
)

// ErrShutdownTimeout is returned when services do not stop within the
// configured timeout.
var ErrShutdownTimeout = errors.New("forced shutdown: timeout reached")

// Logger defines the minimal logging interface used by Run.
// It matches the log/slog.Logger LogAttrs method.
type Logger interface {
	LogAttrs(ctx context.Context, level slog.Level, msg string, attrs ...slog.Attr)
}

type noopLogger struct{}

func (noopLogger) LogAttrs(_ context.Context, _ slog.Level, _ string, _ ...slog.Attr) {}

// Service is a long-running component with graceful shutdown support.
type Service interface {
	// Name identifies the service in logs and errors.
	Name() string

	// Run starts the service and blocks until it stops. Returning before
	// shutdown is requested triggers the shutdown of every service.
	Run(ctx context.Context) error

	// Shutdown stops the service, giving up when ctx is done.
	Shutdown(ctx context.Context) error
}

type config struct {
	logger  Logger
	timeout time.Duration
	signals []os.Signal
}

// Option configures Run.
type Option func(*config)

// WithLogger sets a custom Logger. Default discards messages.
func WithLogger(l Logger) Option {
	return func(c *config) {
		c.logger = l
	}
}

// WithTimeout sets the time services are given to shut down. Default is 10 seconds.
func WithTimeout(t time.Duration) Option {
	return func(c *config) {
		c.timeout = t
	}
}

// WithSignals sets which OS signals trigger shutdown.
// Default is syscall.SIGINT and syscall.SIGTERM.
func WithSignals(s ...os.Signal) Option {
	return func(c *config) {
		c.signals = s
	}
}

// Run starts services concurrently and blocks until they have all stopped.
//
// Shutdown starts when parent is cancelled, a configured signal arrives, or a
// service's Run returns. The returned error joins every error returned by
// Run and Shutdown, plus ErrShutdownTimeout when the timeout is reached.
func Run(parent context.Context, services []Service, opts ...Option) error {
	c := &config{
		logger:  noopLogger{},
		timeout: 10 * time.Second,
		signals: []os.Signal{syscall.SIGINT, syscall.SIGTERM},
	}

	for _, opt := range opts {
		opt(c)
	}

	ctx, stop := signal.NotifyContext(parent, c.signals...)
	defer stop()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		mu   sync.Mutex
		errs []error
		wg   sync.WaitGroup
	)

	record := func(err error) {
		mu.Lock()
		defer mu.Unlock()
		errs = append(errs, err)
	}

	for _, svc := range services {
		wg.Add(1)
		go func() {
			defer wg.Done()

			c.logger.LogAttrs(ctx, slog.LevelInfo, "service starting", slog.String("service", svc.Name()))
			err := svc.Run(ctx)
			if err != nil {
				record(fmt.Errorf("run %s: %w", svc.Name(), err))
			}
			if ctx.Err() == nil {
				c.logger.LogAttrs(ctx, slog.LevelWarn, "service stopped unexpectedly", slog.String("service", svc.Name()))
				cancel()
			}
		}()
	}

	<-ctx.Done()
	c.logger.LogAttrs(context.Background(), slog.LevelInfo, "shutdown requested", slog.Duration("timeout", c.timeout))

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), c.timeout)
	defer cancelShutdown()

	for _, svc := range services {
		wg.Add(1)
		go func() {
			defer wg.Done()

			if err := svc.Shutdown(shutdownCtx); err != nil {
				record(fmt.Errorf("shutdown %s: %w", svc.Name(), err))
			}
		}()
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		c.logger.LogAttrs(context.Background(), slog.LevelInfo, "graceful shutdown completed")
	case <-shutdownCtx.Done():
		c.logger.LogAttrs(context.Background(), slog.LevelWarn, "forced shutdown: timeout reached")
		record(ErrShutdownTimeout)
	}

	mu.Lock()
	defer mu.Unlock()

	return errors.Join(errs...)
}
