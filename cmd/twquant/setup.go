package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/newthinker/twquant/internal/app"
	"github.com/newthinker/twquant/internal/config"
	"github.com/newthinker/twquant/internal/logger"
	"go.uber.org/zap"
)

// session is the state shared by every command run.
type session struct {
	app    *app.App
	log    *zap.Logger
	ctx    context.Context
	cancel context.CancelFunc
}

// open loads and validates config, builds the logger and the app, and
// returns a context cancelled on SIGINT or SIGTERM.
func open() (*session, error) {
	var cfg *config.Config
	var err error

	if cfgFile != "" {
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
	} else {
		cfg = config.Defaults()
	}

	opts := logger.Options{Development: cfg.Logging.Development, Level: cfg.Logging.Level}
	if debug {
		opts = logger.Options{Development: true, Level: "debug"}
	}
	log, err := logger.New(opts)
	if err != nil {
		return nil, err
	}
	if cfgFile == "" {
		log.Warn("no config file specified, using defaults")
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	a, err := app.New(cfg, log)
	if err != nil {
		return nil, err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	return &session{app: a, log: log, ctx: ctx, cancel: cancel}, nil
}

// close flushes metrics and the logger.
func (s *session) close() {
	s.cancel()
	s.log.Debug("session stats", zap.Any("stats", s.app.GetStats()))
	if err := s.app.FlushMetrics(); err != nil {
		s.log.Error("writing metrics failed", zap.Error(err))
	}
	s.log.Sync()
}
