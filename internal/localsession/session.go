// Package localsession provides a concrete implementation of the
// session.Session and session.SessionFactory interfaces for an in-process
// graph.
package localsession

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/specialistvlad/branchtalk/internal/collaborator"
	"github.com/specialistvlad/branchtalk/internal/config"
	"github.com/specialistvlad/branchtalk/internal/ctxlog"
	"github.com/specialistvlad/branchtalk/internal/graph"
	"github.com/specialistvlad/branchtalk/internal/inmemorygraph"
	"github.com/specialistvlad/branchtalk/internal/layout"
	"github.com/specialistvlad/branchtalk/internal/llmcollaborator"
	"github.com/specialistvlad/branchtalk/internal/reconciler"
	"github.com/specialistvlad/branchtalk/internal/session"
	"github.com/specialistvlad/branchtalk/internal/socketiopublisher"
)

// APIKeyEnv is consulted when the configuration carries no API key.
const APIKeyEnv = "OPENAI_API_KEY"

// SessionFactory implements session.SessionFactory for local runs.
type SessionFactory struct {
	// Collaborator overrides the chat completions client built from config.
	Collaborator collaborator.Collaborator
	// Observer receives reconciliation statistics, e.g. a metrics.Collector.
	Observer reconciler.Observer
	// Publishers are attached to every new session in addition to the
	// socket.io publisher configured in the model.
	Publishers []graph.Publisher
}

var _ session.SessionFactory = (*SessionFactory)(nil)

// NewSession creates and wires a new local session.
func (f *SessionFactory) NewSession(ctx context.Context, cfg *config.Model) (session.Session, error) {
	id := uuid.NewString()
	ctx, logger := ctxlog.With(ctx, "session_id", id)
	logger.Debug("localsession.SessionFactory.NewSession called")

	collab := f.Collaborator
	if collab == nil {
		c, err := newCollaborator(cfg.Collaborator)
		if err != nil {
			return nil, err
		}
		collab = c
	}

	s := &Session{id: id}
	publishers := append([]graph.Publisher(nil), f.Publishers...)
	if p := cfg.Publisher; p != nil {
		pub, err := socketiopublisher.Dial(ctx, socketiopublisher.Config{URL: p.URL, Namespace: p.Namespace, Event: p.Event})
		if err != nil {
			logger.Warn("Renderer unavailable, continuing without it.", "url", p.URL, "error", err)
		} else {
			publishers = append(publishers, pub)
			s.closers = append(s.closers, pub)
		}
	}

	store := inmemorygraph.New()
	s.graph = graph.New(store, layout.Canvas{Width: cfg.Canvas.Width, Height: cfg.Canvas.Height}, publishers...)
	s.reconciler = reconciler.New(s.graph, collab, collaborator.GenerationConfig{
		MaxTurns: cfg.Generation.MaxTurns,
		Branches: cfg.Generation.Branches,
		Goals:    cfg.Generation.Goals,
	}, reconciler.WithObserver(f.Observer))

	logger.Info("Session started.", "publishers", len(publishers))
	return s, nil
}

func newCollaborator(cfg config.Collaborator) (collaborator.Collaborator, error) {
	key := cfg.APIKey
	if key == "" {
		key = os.Getenv(APIKeyEnv)
	}
	c, err := llmcollaborator.New(llmcollaborator.Config{
		APIKey:           key,
		Model:            cfg.Model,
		BaseURL:          cfg.BaseURL,
		Timeout:          cfg.Timeout,
		Temperature:      float32(cfg.Temperature),
		FailureThreshold: uint32(cfg.FailureThreshold),
		CoolDown:         cfg.CoolDown,
	})
	if err != nil {
		return nil, fmt.Errorf("create collaborator: %w", err)
	}
	return c, nil
}

// Session implements session.Session for local runs.
type Session struct {
	id         string
	graph      *graph.Manager
	reconciler *reconciler.Reconciler
	closers    []io.Closer
}

func (s *Session) ID() string                          { return s.id }
func (s *Session) Graph() *graph.Manager               { return s.graph }
func (s *Session) Reconciler() *reconciler.Reconciler { return s.reconciler }

// Close drops graph subscribers and disconnects publishers.
func (s *Session) Close(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("localsession.Session.Close called", "session_id", s.id)
	s.graph.Close()
	var firstErr error
	for _, c := range s.closers {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
