package main

import (
	"io"
	"log/slog"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/paccolamano/dashkit/config"
	"github.com/paccolamano/dashkit/ctxlog"
	"github.com/paccolamano/dashkit/dashboard"
	"github.com/paccolamano/dashkit/gracely"
	"github.com/paccolamano/dashkit/handlers/tracer"
)

// loadConfig reads the config file, if any, and applies flag and
// environment overrides on top of it.
func loadConfig(c *cli.Context) (config.Config, error) {
	cfg := config.Default()

	if path := c.String("config"); path != "" {
		var err error
		if cfg, err = config.Load(path); err != nil {
			return config.Config{}, err
		}
	}

	if c.IsSet("addr") {
		cfg.Addr = c.String("addr")
	}
	if c.IsSet("data") {
		cfg.DataFile = c.String("data")
	}
	if c.IsSet("watch") {
		cfg.Watch = c.Bool("watch")
	}
	if c.IsSet("debug") {
		cfg.Debug = c.Bool("debug")
	}
	if c.IsSet("log-level") {
		cfg.Log.Level = c.String("log-level")
	}

	return cfg, cfg.Validate()
}

func newLogger(w io.Writer, cfg config.Log) *slog.Logger {
	// Validate has already checked both values.
	level, _ := ctxlog.ParseLevel(cfg.Level)
	format, _ := ctxlog.ParseFormat(cfg.Format)

	return slog.New(ctxlog.NewContextHandler(
		ctxlog.WithBaseHandler(ctxlog.NewBaseHandler(w, format, level)),
		ctxlog.WithExtractor(tracer.LogAttrs),
	))
}

func buildServices(cfg config.Config, logger *slog.Logger) ([]gracely.Service, error) {
	data := dashboard.DefaultDataset()
	if cfg.DataFile != "" {
		var err error
		if data, err = dashboard.LoadDataset(cfg.DataFile); err != nil {
			return nil, err
		}
	}

	store := dashboard.NewStore(data)
	services := []gracely.Service{
		dashboard.NewServer(cfg.Addr, store, dashboard.WithLogger(logger), dashboard.WithDebug(cfg.Debug)),
	}

	if cfg.Watch {
		services = append(services, dashboard.NewWatcher(store, cfg.DataFile, dashboard.WithWatcherLogger(logger)))
	}

	return services, nil
}

func serve(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	logger := newLogger(os.Stderr, cfg.Log)
	slog.SetDefault(logger)

	services, err := buildServices(cfg, logger)
	if err != nil {
		return err
	}

	return gracely.Run(c.Context, services,
		gracely.WithLogger(logger),
		gracely.WithTimeout(cfg.ShutdownTimeout),
	)
}

func serveFlags() *cli.Command {
	return &cli.Command{
		Name:   "serve",
		Usage:  "serve the dashboard API and index page",
		Action: serve,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "YAML configuration file",
				EnvVars: []string{"DASHBOARD_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "addr",
				Usage:   "listen address (default \":5000\")",
				EnvVars: []string{"DASHBOARD_ADDR"},
			},
			&cli.StringFlag{
				Name:    "data",
				Usage:   "YAML dataset file; the sample dataset is served when empty",
				EnvVars: []string{"DASHBOARD_DATA"},
			},
			&cli.BoolFlag{
				Name:  "watch",
				Usage: "reload the dataset file when it changes",
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "log stack traces of recovered panics",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "log level (debug, info, warn, error)",
			},
		},
	}
}
