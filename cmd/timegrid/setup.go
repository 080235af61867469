package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/christopherklint97/timegrid/internal/config"
	"github.com/christopherklint97/timegrid/internal/dataverse"
	"github.com/christopherklint97/timegrid/internal/host"
	"github.com/christopherklint97/timegrid/internal/notify"
	"github.com/christopherklint97/timegrid/internal/store"
)

// env is everything a command needs: config, logger, the local database and
// the backend the grid talks to.
type env struct {
	cfg     *config.Config
	logger  *slog.Logger
	logFile io.Closer
	db      *store.DB
	backend host.Backend
}

func setup(ctx context.Context) (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w; run 'timegrid config' to set it up", err)
	}

	e := &env{cfg: cfg}
	e.logger, e.logFile = newLogger(cfg)

	e.db, err = store.Open(cfg.Store.Path)
	if err != nil {
		e.Close()
		return nil, fmt.Errorf("opening database: %w", err)
	}

	switch cfg.Backend.Kind {
	case config.BackendDataverse:
		client, err := newDataverseClient(ctx, cfg, e.logger)
		if err != nil {
			e.Close()
			return nil, err
		}
		e.backend = client
	default:
		e.backend = e.db
	}

	e.logger.Debug("timegrid started", "backend", cfg.Backend.Kind, "db", cfg.Store.Path)
	return e, nil
}

func (e *env) Close() {
	if e.db != nil {
		e.db.Close()
	}
	if e.logFile != nil {
		e.logFile.Close()
	}
}

func (e *env) session() *host.Session {
	var opts []host.Option
	if e.cfg.Notifications.Enabled {
		opts = append(opts, host.WithNotifier(notify.NewDesktop()))
	}
	return host.NewSession(e.backend, e.logger, opts...)
}

// newLogger writes to the log file because the grid owns the terminal. If the
// file cannot be opened, logs are discarded.
func newLogger(cfg *config.Config) (*slog.Logger, io.Closer) {
	opts := &slog.HandlerOptions{Level: cfg.LogLevel()}
	if err := os.MkdirAll(filepath.Dir(cfg.Log.File), 0755); err == nil {
		f, err := os.OpenFile(cfg.Log.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err == nil {
			return slog.New(slog.NewTextHandler(f, opts)), f
		}
	}
	return slog.New(slog.NewTextHandler(io.Discard, opts)), nil
}

func newDataverseClient(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*dataverse.Client, error) {
	dv := cfg.Dataverse
	mapping, err := dataverse.MappingFor(dv.MappingVersion)
	if err != nil {
		return nil, err
	}

	hc, err := dataverse.NewHTTPClient(ctx, dv.URL, dataverse.Credentials{
		TenantID:     dv.TenantID,
		ClientID:     dv.ClientID,
		ClientSecret: dv.ClientSecret,
		AccessToken:  dv.AccessToken,
		Store:        dataverse.NewTokenStore(dv.TokenFile),
		Logger:       logger,
	})
	if err != nil {
		return nil, err
	}

	return dataverse.NewClient(dv.URL, dataverse.Options{
		HTTPClient: hc,
		Mapping:    mapping,
		UserID:     dv.UserID,
		CacheTTL:   time.Duration(dv.CacheTTLSeconds) * time.Second,
		Logger:     logger,
	}), nil
}
