// Package socketiopublisher pushes committed graph views to a renderer over
// socket.io.
package socketiopublisher

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/specialistvlad/branchtalk/internal/ctxlog"
	"github.com/specialistvlad/branchtalk/internal/graph"
	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"
)

const (
	defaultPath           = "/socket.io/"
	defaultConnectTimeout = 15 * time.Second
)

// Config describes the renderer endpoint.
type Config struct {
	URL                string
	Namespace          string
	Event              string
	InsecureSkipVerify bool
	ConnectTimeout     time.Duration
}

// Publisher emits every View it is given as one socket.io event.
type Publisher struct {
	event  string
	io     *socket.Socket
	logger *slog.Logger
}

var _ graph.Publisher = (*Publisher)(nil)

// Dial connects to the renderer and waits for the connection to be accepted.
func Dial(ctx context.Context, cfg Config) (*Publisher, error) {
	if cfg.Event == "" {
		return nil, errors.New("socketiopublisher: event name is required")
	}
	base, path, err := target(cfg.URL)
	if err != nil {
		return nil, err
	}
	namespace := cfg.Namespace
	if namespace == "" {
		namespace = "/"
	}
	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = defaultConnectTimeout
	}

	logger := ctxlog.FromContext(ctx).With("publisher", "socketio", "url", cfg.URL, "namespace", namespace)
	logger.Info("Connecting to renderer...")

	opts := socket.DefaultOptions()
	opts.SetPath(path)
	if cfg.InsecureSkipVerify {
		logger.Warn("Skipping TLS certificate verification")
		opts.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}
	opts.SetTransports(types.NewSet(transports.WebSocket))

	manager := socket.NewManager(base, opts)
	io := manager.Socket(namespace, opts)

	connected := make(chan error, 1)
	io.Once(types.EventName("connect"), func(...any) {
		logger.Info("Connected to renderer.", "sid", io.Id())
		connected <- nil
	})
	io.Once(types.EventName("connect_error"), func(errs ...any) {
		err := errors.New("connect_error")
		if len(errs) > 0 {
			if e, ok := errs[0].(error); ok {
				err = e
			}
		}
		connected <- err
	})
	io.Connect()

	select {
	case err := <-connected:
		if err != nil {
			io.Disconnect()
			return nil, fmt.Errorf("socket.io connection failed: %w", err)
		}
		return &Publisher{event: cfg.Event, io: io, logger: logger}, nil
	case <-ctx.Done():
		io.Disconnect()
		return nil, fmt.Errorf("waiting for socket.io connection: %w", ctx.Err())
	case <-time.After(timeout):
		io.Disconnect()
		return nil, fmt.Errorf("timed out after %v waiting for socket.io connection", timeout)
	}
}

// Publish emits v. It fails when the socket is not connected; the socket
// keeps reconnecting in the background and later views go through.
func (p *Publisher) Publish(ctx context.Context, v graph.View) error {
	if !p.io.Connected() {
		return fmt.Errorf("socket.io client is not connected (version %d dropped)", v.Version)
	}
	payload, err := Payload(v)
	if err != nil {
		return err
	}
	ctxlog.FromContext(ctx).Debug("Emitting graph view.", "event", p.event, "version", v.Version, "nodes", len(v.Nodes))
	p.io.Emit(p.event, payload)
	return nil
}

// Close disconnects from the renderer.
func (p *Publisher) Close() error {
	p.logger.Info("Disconnecting from renderer.", "sid", p.io.Id())
	p.io.Disconnect()
	return nil
}

// Payload renders v as the plain JSON object emitted to renderers.
func Payload(v graph.View) (map[string]any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode graph view: %w", err)
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("encode graph view: %w", err)
	}
	return out, nil
}

// target splits a renderer URL into the manager base URL and the socket.io
// path, which defaults to /socket.io/.
func target(raw string) (base, path string, err error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", "", fmt.Errorf("failed to parse URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", "", fmt.Errorf("URL %q needs a scheme and a host", raw)
	}
	path = u.Path
	if path == "" || path == "/" {
		path = defaultPath
	}
	return fmt.Sprintf("%s://%s", u.Scheme, u.Host), path, nil
}
