package relay

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/vk/nodegraph/internal/ctxlog"
	"github.com/vk/nodegraph/internal/trigger"
	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"
)

const (
	// TriggerEvent is the event the server emits to fire a trigger.
	TriggerEvent = "trigger"
	// FiredEvent is emitted back once a relayed trigger has been fired.
	FiredEvent = "fired"

	DefaultConnectTimeout = 15 * time.Second
)

// Config describes the server to connect to.
type Config struct {
	URL                string
	Namespace          string
	InsecureSkipVerify bool
	ConnectTimeout     time.Duration
	QueueSize          int
}

// Relay is a connected socket.io client feeding a Queue.
type Relay struct {
	*Queue
	io *socket.Socket
}

// Connect dials the server and waits for the connection to be accepted.
func Connect(ctx context.Context, cfg Config) (*Relay, error) {
	logger := ctxlog.FromContext(ctx).With("component", "relay", "url", cfg.URL)
	logger.Info("Connecting trigger relay...")

	parsedURL, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse relay URL: %w", err)
	}
	if parsedURL.Scheme == "" || parsedURL.Host == "" {
		return nil, fmt.Errorf("relay URL %q must include a scheme and host", cfg.URL)
	}
	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = DefaultConnectTimeout
	}
	namespace := cfg.Namespace
	if namespace == "" {
		namespace = "/"
	}

	opts := socket.DefaultOptions()
	opts.SetPath(parsedURL.Path)
	if cfg.InsecureSkipVerify {
		logger.Warn("Skipping TLS certificate verification")
		opts.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}
	opts.SetTransports(types.NewSet(transports.WebSocket))

	r := &Relay{Queue: NewQueue(cfg.QueueSize)}
	result := newConnectResult()

	manager := socket.NewManager(fmt.Sprintf("%s://%s", parsedURL.Scheme, parsedURL.Host), opts)
	io := manager.Socket(namespace, opts)
	r.io = io

	io.On(types.EventName(TriggerEvent), func(args ...any) {
		k, err := ParsePayload(args...)
		if err != nil {
			logger.Warn("Ignoring malformed trigger event.", "error", err)
			return
		}
		if err := r.Push(k); err != nil {
			logger.Warn("Dropping relayed trigger.", "trigger", k.String(), "error", err)
			return
		}
		logger.Debug("Relayed trigger queued.", "trigger", k.String())
	})
	io.Once(types.EventName("connect"), func(...any) {
		logger.Info("Trigger relay connected.", "sid", io.Id())
		result.report(nil)
	})
	io.Once(types.EventName("connect_error"), func(errs ...any) {
		err := fmt.Errorf("connect_error")
		if len(errs) > 0 {
			if e, ok := errs[0].(error); ok {
				err = e
			}
		}
		result.report(err)
	})

	io.Connect()

	select {
	case err := <-result.ch:
		if err != nil {
			io.Disconnect()
			return nil, fmt.Errorf("socket.io connection failed: %w", err)
		}
		return r, nil
	case <-ctx.Done():
		io.Disconnect()
		return nil, fmt.Errorf("context cancelled while waiting for socket.io connection: %w", ctx.Err())
	case <-time.After(timeout):
		io.Disconnect()
		return nil, fmt.Errorf("timed out after %s waiting for socket.io connection", timeout)
	}
}

// connectResult carries the first outcome of a connection attempt. Later
// reports, such as connect_error events from reconnection attempts, are
// dropped so the client's event goroutine never blocks on them.
type connectResult struct {
	once sync.Once
	ch   chan error
}

func newConnectResult() *connectResult {
	return &connectResult{ch: make(chan error, 1)}
}

func (c *connectResult) report(err error) {
	c.once.Do(func() { c.ch <- err })
}

// Report tells the server that k was fired and how many traces it started.
func (r *Relay) Report(k trigger.Kind, traces int) {
	r.io.Emit(FiredEvent, map[string]any{"trigger": k.String(), "traces": traces})
}

// Close disconnects from the server.
func (r *Relay) Close() {
	r.io.Disconnect()
}
