package graph

import (
	"context"

	"github.com/specialistvlad/branchtalk/internal/node"
)

// View is an immutable snapshot of the graph handed to renderers.
//
// Nodes are listed in store iteration order and carry their layout
// coordinates. Edges may reference ids that are no longer present; renderers
// should skip those.
type View struct {
	Version uint64       `json:"version"`
	Status  string       `json:"status"`
	Nodes   []*node.Node `json:"nodes"`
	Edges   []node.Edge  `json:"edges"`
}

// Publisher receives every committed View.
//
// Publish is called synchronously from Commit, after the manager's lock has
// been released, in registration order. An error is logged and otherwise
// ignored: a renderer that cannot be reached never fails a reconciliation
// cycle.
type Publisher interface {
	Publish(ctx context.Context, v View) error
}

// PublisherFunc adapts a function to the Publisher interface.
type PublisherFunc func(ctx context.Context, v View) error

// Publish calls f.
func (f PublisherFunc) Publish(ctx context.Context, v View) error {
	return f(ctx, v)
}
