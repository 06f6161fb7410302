package app

import (
	"context"
	"fmt"
	"time"

	"github.com/vk/nodegraph/internal/ctxlog"
	"github.com/vk/nodegraph/internal/relay"
	"github.com/vk/nodegraph/internal/telemetry"
	"github.com/vk/nodegraph/internal/trigger"
)

const serviceName = "nodegraph"

var (
	startTriggers = []trigger.Kind{trigger.OnAwake, trigger.OnEnable, trigger.OnStart}
	tickTriggers  = []trigger.Kind{trigger.OnFixedUpdate, trigger.OnUpdate, trigger.OnLateUpdate}
	stopTriggers  = []trigger.Kind{trigger.OnDisable, trigger.OnApplicationQuit, trigger.OnDestroy}
)

// Run drives the graph until ctx is cancelled, the configured duration
// elapses or, with ExitWhenIdle, nothing is left to do. It then fires the
// stop triggers and drains the player. In search mode it prints the
// matching node kinds instead.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	logger := a.logger
	logger.Debug("App.Run method started.")

	if a.config.Search != "" {
		return a.runSearch(ctx)
	}

	shutdownTelemetry, err := telemetry.Setup(ctx, a.config.OTLPEndpoint, serviceName)
	if err != nil {
		return fmt.Errorf("failed to set up telemetry: %w", err)
	}
	defer func() {
		if err := shutdownTelemetry(context.WithoutCancel(ctx)); err != nil {
			logger.Warn("Telemetry shutdown failed.", "error", err)
		}
	}()

	if a.config.HealthcheckPort > 0 {
		a.startHealthcheckServer(ctx)
		defer a.closeHealthcheckServer(ctx)
	}

	if a.source == nil && a.config.RelayURL != "" {
		r, err := relay.Connect(ctx, relay.Config{URL: a.config.RelayURL, Namespace: a.config.RelayNamespace})
		if err != nil {
			return fmt.Errorf("failed to connect trigger relay: %w", err)
		}
		a.source = r
	}
	if a.source != nil {
		defer a.source.Close()
	}

	if a.graph.Graph.Len() == 0 {
		logger.Warn("No nodes found in graph, nothing to run.")
	}
	logger.Info("🚀 Starting graph.", "graph", a.graph.Graph.Name, "nodes", a.graph.Graph.Len(), "tick_interval", a.config.TickInterval())
	a.play(ctx)
	a.stop(ctx)
	logger.Info("🏁 Graph stopped.", "stats", a.stats.load())

	logger.Debug("App.Run method finished.")
	return nil
}

// play runs the start triggers and then ticks until a stop condition.
func (a *App) play(ctx context.Context) {
	logger := ctxlog.FromContext(ctx)
	for _, k := range startTriggers {
		a.player.Fire(ctx, k)
	}
	a.publishStats()

	ticker := time.NewTicker(a.config.TickInterval())
	defer ticker.Stop()
	var deadline <-chan time.Time
	if a.config.Duration > 0 {
		timer := time.NewTimer(a.config.Duration)
		defer timer.Stop()
		deadline = timer.C
	}

	last := time.Now()
	for {
		if a.config.ExitWhenIdle && a.idle() {
			logger.Info("Nothing pending, stopping.")
			return
		}
		select {
		case <-ctx.Done():
			logger.Info("Run cancelled, stopping.", "reason", context.Cause(ctx))
			return
		case <-deadline:
			logger.Info("Run duration elapsed, stopping.", "duration", a.config.Duration)
			return
		case now := <-ticker.C:
			a.tick(ctx, now.Sub(last))
			last = now
		}
	}
}

func (a *App) tick(ctx context.Context, dt time.Duration) {
	if a.source != nil {
		for _, k := range a.source.Drain() {
			roots := a.player.Fire(ctx, k)
			a.source.Report(k, len(roots))
		}
	}
	for _, k := range tickTriggers {
		a.player.Fire(ctx, k)
	}
	a.player.Tick(ctx, dt)
	a.publishStats()
}

// stop fires the stop triggers and keeps ticking until the player tears
// itself down or the drain timeout forces it.
func (a *App) stop(ctx context.Context) {
	ctx = context.WithoutCancel(ctx)
	logger := ctxlog.FromContext(ctx)
	for _, k := range stopTriggers {
		a.player.Fire(ctx, k)
	}

	drain := time.NewTimer(a.config.DrainTimeout)
	defer drain.Stop()
	ticker := time.NewTicker(a.config.TickInterval())
	defer ticker.Stop()

	last := time.Now()
	for !a.player.Destroyed() {
		select {
		case <-drain.C:
			logger.Warn("Drain timeout elapsed, forcing teardown.", "timeout", a.config.DrainTimeout, "pending", a.player.Pending())
			a.player.Teardown(ctx)
		case now := <-ticker.C:
			a.player.Tick(ctx, now.Sub(last))
			last = now
		}
	}
	a.publishStats()
}

func (a *App) idle() bool {
	if a.player.Pending() > 0 {
		return false
	}
	return a.source == nil || a.source.Len() == 0
}

func (a *App) publishStats() {
	a.stats.publish(a.graph.Graph.Name, a.player)
}
