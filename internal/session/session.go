// Package session defines the core interfaces for creating and managing a
// graph session: one store, one reconciler and the publishers attached to
// them, scoped from construction to Close.
package session

import (
	"context"

	"github.com/specialistvlad/branchtalk/internal/config"
	"github.com/specialistvlad/branchtalk/internal/graph"
	"github.com/specialistvlad/branchtalk/internal/reconciler"
)

// SessionFactory creates a Session. Implementations decide where the graph
// lives and which collaborator backs it.
type SessionFactory interface {
	NewSession(ctx context.Context, cfg *config.Model) (Session, error)
}

// Session owns one conversation graph and everything writing to it.
type Session interface {
	ID() string
	Graph() *graph.Manager
	Reconciler() *reconciler.Reconciler
	// Close releases any resources held by the session. It accepts a context
	// to allow for graceful cleanup operations.
	Close(ctx context.Context) error
}
