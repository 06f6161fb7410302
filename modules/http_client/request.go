package http_client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/vk/nodegraph/internal/ctxlog"
	"github.com/vk/nodegraph/internal/node"
	"github.com/vk/nodegraph/internal/scope"
	"github.com/vk/nodegraph/internal/socket"
	"github.com/vk/nodegraph/internal/yield"
	"github.com/zclconf/go-cty/cty"
)

// Request performs an HTTP request when exec_in is reached. The call runs
// on its own goroutine; the trace waits on it and reads the result back on
// the player's goroutine.
type Request struct {
	node.Base
	client *http.Client
}

func NewRequest(client *http.Client) *Request {
	return &Request{
		Base: node.NewBase(Kind,
			node.ExecIn("exec_in").Describe("Starts the request."),
			node.In("url", cty.String).WithFlags(socket.Editable).WithDefault(cty.StringVal("")).Describe("The request URL."),
			node.In("method", cty.String).WithFlags(socket.Editable).WithDefault(cty.StringVal(http.MethodGet)).
				Describe("The HTTP method."),
			node.In("payload", cty.String).WithFlags(socket.Editable).WithDefault(cty.StringVal("")).
				Describe("The request body. Empty sends none."),
			node.In("timeout", cty.Number).WithFlags(socket.Editable).WithDefault(cty.NumberFloatVal(DefaultTimeout.Seconds())).
				Describe("Seconds before the request is abandoned."),
			node.ExecOut("exec_out").Describe("Fires once a response was received."),
			node.ExecOut("failed").Describe("Fires when the request could not be completed."),
			node.Out("status", cty.Number).WithFlags(socket.AllowMultipleLinks).Describe("The response status code."),
			node.Out("response", cty.String).WithFlags(socket.AllowMultipleLinks).Describe("The response body."),
			node.Out("error", cty.String).WithFlags(socket.AllowMultipleLinks).Describe("Why the request failed."),
		),
		client: client,
	}
}

type call struct {
	method, url, payload string
	timeout              time.Duration
}

type result struct {
	status int
	body   string
	err    error
}

func (r *Request) prepare() (call, error) {
	var c call
	var err error
	if c.url, err = r.Text("url"); err != nil {
		return c, err
	}
	if c.url == "" {
		return c, fmt.Errorf("url is empty")
	}
	if c.method, err = r.Text("method"); err != nil {
		return c, err
	}
	if c.payload, err = r.Text("payload"); err != nil {
		return c, err
	}
	secs, err := r.Number("timeout")
	if err != nil {
		return c, err
	}
	c.timeout = time.Duration(secs * float64(time.Second))
	return c, nil
}

func (r *Request) do(ctx context.Context, c call) result {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	var body io.Reader
	if c.payload != "" {
		body = strings.NewReader(c.payload)
	}
	req, err := http.NewRequestWithContext(ctx, c.method, c.url, body)
	if err != nil {
		return result{err: fmt.Errorf("failed to create request: %w", err)}
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return result{err: fmt.Errorf("failed to execute request: %w", err)}
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return result{err: fmt.Errorf("failed to read response body: %w", err)}
	}
	return result{status: resp.StatusCode, body: string(b)}
}

func (r *Request) Exec(ctx context.Context, from, to socket.Socket, sc *scope.Scope) yield.Sequence {
	var (
		done    atomic.Bool
		res     result
		invalid bool
	)
	fail := func(ctx context.Context, err error) yield.Yield {
		ctxlog.FromContext(ctx).Warn("HTTP request failed.", "node_id", r.ID(), "error", err)
		_ = r.Set("error", err.Error())
		return yield.SignalTo(sc, r.Socket("failed"))
	}

	return yield.Steps(
		func(ctx context.Context) yield.Yield {
			c, err := r.prepare()
			if err != nil {
				invalid = true
				return fail(ctx, err)
			}
			ctxlog.FromContext(ctx).Info("Making HTTP request", "node_id", r.ID(), "method", c.method, "url", c.url)
			go func() {
				res = r.do(ctx, c)
				done.Store(true)
			}()
			return yield.Until(done.Load)
		},
		func(ctx context.Context) yield.Yield {
			if invalid {
				return nil
			}
			if res.err != nil {
				return fail(ctx, res.err)
			}
			ctxlog.FromContext(ctx).Info("Received HTTP response", "node_id", r.ID(), "status", res.status)
			if err := r.Set("status", res.status); err != nil {
				return fail(ctx, err)
			}
			if err := r.Set("response", res.body); err != nil {
				return fail(ctx, err)
			}
			_ = r.Set("error", "")
			return yield.SignalTo(sc, r.Socket("exec_out"))
		},
	)
}
