// Package graphstore defines the interface for holding the conversation graph:
// nodes keyed by id and an ordered list of directed edges.
//
// # Why Graph Store Exists
//
// The store is the only place graph state lives. It offers pure data-structure
// operations and knows nothing about transactions, locks, generation or
// layout. Lock protection, sanitization and the decision of what to delete
// belong to the callers (internal/txn and internal/reconciler).
//
// # Lifecycle and Usage
//
// A store is:
//  1. **Created** once per session (see internal/localsession)
//  2. **Rebuilt** wholesale on full regeneration and edited in place by transaction batches
//  3. **Read** by the layout engine and by the view published to renderers
//  4. **Discarded** when the session ends
//
// # Dangling Edges
//
// AddEdge does not check that either end exists. Every query must tolerate
// edges whose ends are missing: ChildrenOf and ParentsOf report ids as they
// appear on edges, and callers that need live nodes resolve them via GetNode.
// DeleteNode always removes every edge touching the deleted id.
package graphstore

import (
	"context"

	"github.com/specialistvlad/branchtalk/internal/node"
)

// Store is the interface for the mutable conversation graph.
//
// # Thread-Safety Requirements
//
// Implementations MUST be safe for concurrent use. The reconciler is the only
// writer, but renderers read snapshots while a cycle is running.
type Store interface {
	// AddNode inserts n, or replaces the node with the same id in place.
	// Replacement keeps the original position in iteration order.
	AddNode(ctx context.Context, n *node.Node) error

	// GetNode returns the node with the given id.
	GetNode(ctx context.Context, id string) (*node.Node, bool)

	// AllNodes returns every node in insertion order. The slice is a snapshot;
	// the nodes are the stored instances.
	AllNodes(ctx context.Context) []*node.Node

	// AddEdge appends an edge. Duplicates and dangling ends are permitted.
	AddEdge(ctx context.Context, e node.Edge) error

	// AllEdges returns a snapshot of the edge list in insertion order.
	AllEdges(ctx context.Context) []node.Edge

	// ChildrenOf returns the distinct ids that id has an edge to, in edge order.
	ChildrenOf(ctx context.Context, id string) []string

	// ParentsOf returns the distinct ids that have an edge to id, in edge order.
	ParentsOf(ctx context.Context, id string) []string

	// DeleteNode removes the node and every edge where it is from or to.
	// It reports whether a node was removed.
	DeleteNode(ctx context.Context, id string) bool

	// Descendants returns rootID followed by every id reachable from it through
	// ChildrenOf, depth first, each exactly once. Cycles terminate.
	Descendants(ctx context.Context, rootID string) []string

	// DeleteSubtree deletes every id returned by Descendants and returns the
	// ids of the nodes that were actually removed.
	DeleteSubtree(ctx context.Context, rootID string) []string

	// Clear removes all nodes and edges.
	Clear(ctx context.Context)

	// Len returns the number of nodes.
	Len(ctx context.Context) int
}
