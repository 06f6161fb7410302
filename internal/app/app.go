package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/vk/nodegraph/internal/builder"
	"github.com/vk/nodegraph/internal/config"
	"github.com/vk/nodegraph/internal/ctxlog"
	"github.com/vk/nodegraph/internal/engine"
	"github.com/vk/nodegraph/internal/registry"
	"github.com/vk/nodegraph/internal/trigger"
)

// triggerSource delivers triggers raised outside the graph, such as the
// socket.io relay. It must be safe to fill from another goroutine; the host
// only drains it between ticks.
type triggerSource interface {
	Drain() []trigger.Kind
	Len() int
	Report(k trigger.Kind, traces int)
	Close()
}

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW     io.Writer
	logger   *slog.Logger
	config   *Config
	registry *registry.Registry

	// graph and player are nil in search mode.
	graph  *builder.Result
	player *engine.Player
	source triggerSource

	stats      statsBox
	httpServer *http.Server
}

// NewApp is the constructor for the main application. It builds the
// registry from modules (the core modules when none are given), loads the
// graph through loader and prepares a player for it. Configuration errors
// are fatal and panic.
func NewApp(outW io.Writer, appConfig *Config, loader config.Loader, modules ...registry.Module) *App {
	logger := newLogger(appConfig.LogLevel, appConfig.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	reg := registry.New()
	if len(modules) == 0 {
		modules = coreModules
	}
	reg.Register(modules...)
	logger.Debug("All Go modules registered.", "count", len(modules), "kinds", reg.Len())

	// A kind that cannot be instantiated is a programmer error, so we panic.
	if err := reg.ValidateRegistry(ctx); err != nil {
		panic(err)
	}
	logger.Debug("Registry validation passed.")

	a := &App{
		outW:     outW,
		logger:   logger,
		config:   appConfig,
		registry: reg,
	}
	if appConfig.Search != "" {
		return a
	}

	model, err := loader.Load(ctx, appConfig.GraphPath)
	if err != nil {
		panic(fmt.Errorf("failed to load configuration: %w", err))
	}
	logger.Debug("Configuration loaded and translated into unified model.")

	a.graph, err = builder.Build(ctx, model, reg)
	if err != nil {
		panic(fmt.Errorf("failed to build graph: %w", err))
	}
	a.player = engine.New(a.graph.Graph,
		engine.WithHost(a),
		engine.WithOnDestroy(func() { logger.Info("Graph player destroyed.", "graph", a.graph.Graph.Name) }),
	)
	return a
}

// Registry returns the application's registry. This is primarily for testing.
func (a *App) Registry() *registry.Registry {
	return a.registry
}

// Graph returns the built graph, or nil in search mode.
func (a *App) Graph() *builder.Result {
	return a.graph
}

// Stats returns the counters published after the last tick.
func (a *App) Stats() Stats {
	return a.stats.load()
}
