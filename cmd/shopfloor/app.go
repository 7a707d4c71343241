package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"

	"shopfloor_go/internal/engine"
	"shopfloor_go/internal/scenario"
	"shopfloor_go/internal/shopfloor/backend"
	"shopfloor_go/internal/shopfloor/config"
	"shopfloor_go/internal/shopfloor/journal"
	"shopfloor_go/internal/shopfloor/logging"
	"shopfloor_go/internal/shopfloor/metrics"
)

// app holds the pieces every subcommand shares.
type app struct {
	cfg       config.Config
	sessionID string
	log       *logging.Logger
	metrics   *metrics.Metrics
	backend   *backend.Client
	journal   *journal.Store
	transport engine.Transport

	closers []io.Closer
}

// logToFile sends logs to cfg.LogFile instead of stdout; the TUI owns the
// terminal.
func newApp(ctx context.Context, flags *rootFlags, logToFile bool) (*app, error) {
	cfg, err := config.Load(flags.configFile)
	if err != nil {
		return nil, err
	}
	if flags.scenario != "" {
		cfg.Scenario = flags.scenario
	}
	if _, err := scenario.Lookup(cfg.Scenario); err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, sessionID: uuid.NewString()}

	var out io.Writer = os.Stdout
	if logToFile {
		f, err := logging.OpenFile(cfg.LogFile)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, f)
		out = f
	}
	a.log = logging.New(logging.Config{
		Level:   logging.Level(cfg.LogLevel),
		Format:  logging.Format(cfg.LogFormat),
		Service: "shopfloor",
		Output:  out,
	}).WithSession(a.sessionID)

	a.metrics = metrics.New()
	a.backend = backend.New(backend.Options{
		BaseURL:         cfg.BackendURL,
		APIKey:          cfg.APIKey,
		MenuID:          cfg.MenuID,
		ProfileID:       cfg.ProfileID,
		Timeout:         cfg.RequestTimeout(),
		BreakerFailures: uint32(cfg.BreakerFailures),
		BreakerTimeout:  cfg.BreakerTimeout(),
		OnBreakerChange: a.metrics.RecordBreaker,
		Logger:          a.log.WithComponent("backend").Logger,
	})
	a.transport = a.metrics.Instrument(a.backend)

	if cfg.JournalPath != "" {
		store, err := journal.Open(cfg.JournalPath, journal.WithLogger(a.log.WithComponent("journal").Logger))
		if err != nil {
			a.Close()
			return nil, err
		}
		a.closers = append(a.closers, store)
		if err := store.Migrate(ctx); err != nil {
			a.Close()
			return nil, fmt.Errorf("migrate journal: %w", err)
		}
		a.journal = store
		a.transport = journal.Wrap(a.transport, store, a.sessionID)
	}

	a.log.Info("shopfloor configured",
		"scenario", cfg.Scenario,
		"backend", cfg.BackendURL,
		"journal", cfg.JournalPath,
	)
	return a, nil
}

// build creates a machine for usage with the configured limits.
func (a *app) build(usage string) (*engine.Machine, error) {
	sc, err := scenario.Lookup(usage)
	if err != nil {
		return nil, err
	}
	return engine.New(sc,
		engine.WithObserver(a.metrics),
		engine.WithLogger(a.log.WithScenario(usage).Logger),
		engine.WithQuantityCeiling(a.cfg.QtyCeiling),
		engine.WithPickedLimit(a.cfg.LastPickedLimit),
	)
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		_ = a.closers[i].Close()
	}
	a.closers = nil
}
