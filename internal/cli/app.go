package cli

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/veristat/veristat/internal/alert"
	"github.com/veristat/veristat/internal/cache"
	"github.com/veristat/veristat/internal/engine"
	"github.com/veristat/veristat/internal/llm"
	"github.com/veristat/veristat/internal/model"
	"github.com/veristat/veristat/internal/monitor"
	"github.com/veristat/veristat/internal/orchestrate"
	"github.com/veristat/veristat/internal/sources"
	"github.com/veristat/veristat/internal/storage"
	"github.com/veristat/veristat/internal/trust"
	"github.com/veristat/veristat/internal/verifier"
)

// app bundles the wired components behind the commands.
type app struct {
	cfg        *model.Config
	log        *logrus.Logger
	store      *storage.Store
	engine     *engine.Engine
	gate       *trust.Gate
	monitor    *monitor.Monitor
	dispatcher *alert.Dispatcher
}

// buildApp assembles the full pipeline from the merged configuration.
func buildApp() (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	log := newLogger(cfg)

	store, err := storage.Open(cfg.Storage.Path)
	if err != nil {
		return nil, err
	}

	scorer, err := llm.NewScorer(cfg.Model)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("model scorer: %w", err)
	}

	client := sources.NewClient(cfg.Sources)
	orch := orchestrate.New(cfg.Verify, verifier.DefaultSet(client, scorer))
	gate := trust.NewGate(cfg.Trust, store, log)
	eng := engine.New(cfg, store, orch, gate, cache.NewMemoryCache(time.Hour, 10*time.Minute), log)

	dispatcher := alert.NewDispatcher(cfg.Alert, alert.BuildChannels(cfg.Alert, log), store, log)
	mon := monitor.New(cfg.Monitor, store, eng, dispatcher, gate, log)

	return &app{
		cfg:        cfg,
		log:        log,
		store:      store,
		engine:     eng,
		gate:       gate,
		monitor:    mon,
		dispatcher: dispatcher,
	}, nil
}

// close releases resources in reverse dependency order.
func (a *app) close() {
	a.dispatcher.Close()
	if err := a.store.Close(); err != nil {
		a.log.WithError(err).Warn("close storage")
	}
}
