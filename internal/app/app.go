// Package app assembles the session store, its persistence and the
// orchestrator from a configuration.
package app

import (
	"context"
	"fmt"
	"sync"

	"github.com/guilhermegouw/siaka/internal/config"
	"github.com/guilhermegouw/siaka/internal/debug"
	"github.com/guilhermegouw/siaka/internal/export"
	"github.com/guilhermegouw/siaka/internal/gateway"
	"github.com/guilhermegouw/siaka/internal/orchestrator"
	"github.com/guilhermegouw/siaka/internal/persist"
	"github.com/guilhermegouw/siaka/internal/pubsub"
	"github.com/guilhermegouw/siaka/internal/session"
	"github.com/guilhermegouw/siaka/internal/subject"
)

// App is one running instance: configuration, event hub, sessions and the
// persistence following them.
type App struct {
	Hub          *pubsub.Hub
	Sessions     *session.Store
	Orchestrator *orchestrator.Orchestrator

	backend   persist.Backend
	persister *persist.Persister

	mu  sync.RWMutex
	cfg *config.Config

	closeOnce sync.Once
}

// Open loads the stored sessions and starts saving every change.
func Open(ctx context.Context, cfg *config.Config) (*App, error) {
	if cfg == nil {
		cfg = config.NewConfig()
	}

	backend, err := persist.Open(ctx, persist.Kind(cfg.Storage()), cfg.DataDir())
	if err != nil {
		return nil, fmt.Errorf("opening storage: %w", err)
	}

	hub := pubsub.NewHub()
	sessions := session.NewStore(hub.Session)
	sessions.Load(backend.Load(ctx))

	a := &App{
		Hub:      hub,
		Sessions: sessions,
		backend:  backend,
		cfg:      cfg,
	}
	a.Orchestrator = orchestrator.New(sessions, buildGateway(cfg), hub)
	a.persister = persist.NewPersister(backend, sessions, hub.Session)
	a.persister.Start(ctx)

	debug.Event("app", "open", fmt.Sprintf("storage=%s dir=%s sessions=%d", cfg.Storage(), cfg.DataDir(), sessions.Len()))
	return a, nil
}

// buildGateway turns cfg into a streamer. A configuration that cannot build
// a gateway yields one that fails every turn with the reason.
func buildGateway(cfg *config.Config) orchestrator.Streamer {
	gw, err := gateway.New(cfg.Gateway())
	if err != nil {
		debug.Error("app", err, "building gateway")
		return orchestrator.Unavailable(err)
	}
	return gw
}

// Config returns the configuration in use.
func (a *App) Config() *config.Config {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.cfg
}

// Reconfigure swaps the model gateway for one built from cfg. Storage
// settings only take effect on the next start.
func (a *App) Reconfigure(cfg *config.Config) {
	if cfg == nil {
		return
	}
	a.mu.Lock()
	a.cfg = cfg
	a.mu.Unlock()
	a.Orchestrator.SetGateway(buildGateway(cfg))
}

// ModelID names the model the configuration routes s to.
func (a *App) ModelID(s subject.Subject) string {
	cfg := a.Config()
	if s.Tier() == subject.TierHeavy {
		return cfg.Models.Heavy
	}
	return cfg.Models.Light
}

// Exporter returns an exporter that shares through the clipboard and falls
// back to the configured export directory.
func (a *App) Exporter() *export.Exporter {
	return export.NewExporter(export.ClipboardSharer{}, a.Config().ExportDir())
}

// StoragePath is where the sessions are kept.
func (a *App) StoragePath() string {
	if p, ok := a.backend.(interface{ Path() string }); ok {
		return p.Path()
	}
	return ""
}

// Close waits for running turns, writes the final snapshot and releases
// the storage.
func (a *App) Close() error {
	var err error
	a.closeOnce.Do(func() {
		a.Orchestrator.Wait()
		a.persister.Close()
		if debug.IsEnabled() {
			debug.Log("%s", a.Hub.DebugString())
		}
		a.Hub.Shutdown()
		if cerr := a.backend.Close(); cerr != nil {
			err = fmt.Errorf("closing storage: %w", cerr)
		}
	})
	return err
}
