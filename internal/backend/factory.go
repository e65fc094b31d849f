// Package backend selects and wires the store implementation the binaries
// run against, plus the optional AMQP events client.
package backend

import (
	"fmt"
	"log/slog"

	"spendlog/internal/config"
	"spendlog/internal/events"
	"spendlog/internal/store"
	"spendlog/internal/store/memory"
	"spendlog/internal/store/sqlite"
)

// Type names a store implementation.
type Type string

const (
	MemoryBackend Type = "memory"
	SQLiteBackend Type = "sqlite"
)

// IsValid reports whether the backend type is known.
func (t Type) IsValid() bool {
	return t == MemoryBackend || t == SQLiteBackend
}

// Result is a wired backend: the store, the optional events client and a
// cleanup func releasing both.
type Result struct {
	Store  store.Store
	Events *events.Client
	Clean  func() error
}

// Factory builds backends from application config.
type Factory struct {
	logger *slog.Logger
}

// NewFactory creates a backend factory. A nil logger falls back to the
// process default.
func NewFactory(logger *slog.Logger) *Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &Factory{logger: logger}
}

// Create builds the store selected by cfg.DataBackend and, when an AMQP URL
// is configured, the events client. A broker that cannot be reached is logged
// and skipped: expense writes must not depend on it.
func (f *Factory) Create(cfg *config.Config) (*Result, error) {
	t := Type(cfg.DataBackend)
	if !t.IsValid() {
		return nil, fmt.Errorf("invalid backend type: %s", cfg.DataBackend)
	}

	var st store.Store
	switch t {
	case SQLiteBackend:
		s, err := sqlite.Open(cfg.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("initialize sqlite store: %w", err)
		}
		st = s
		f.logger.Info("Initialized sqlite backend", "db_path", cfg.SQLiteDBPath)
	case MemoryBackend:
		st = memory.New()
		f.logger.Info("Initialized memory backend")
	}

	var ev *events.Client
	if cfg.AMQPURL != "" {
		var err error
		ev, err = events.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			f.logger.Warn("Failed to initialize AMQP client, continuing without events", "error", err)
		} else {
			f.logger.Info("Initialized AMQP client",
				"exchange", cfg.AMQPExchange,
				"queue", cfg.AMQPQueue)
		}
	}

	return &Result{
		Store:  st,
		Events: ev,
		Clean: func() error {
			ev.Close()
			return st.Close()
		},
	}, nil
}
