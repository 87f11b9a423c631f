// Package inmemorygraph provides a simple, thread-safe, in-memory
// implementation of the graphstore.Store interface.
package inmemorygraph

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/specialistvlad/branchtalk/internal/graphstore"
	"github.com/specialistvlad/branchtalk/internal/node"
)

// Store implements graphstore.Store with a map for lookups, a slice of ids for
// insertion order and a slice of edges, all guarded by one RWMutex.
type Store struct {
	mu    sync.RWMutex
	nodes map[string]*node.Node
	order []string
	edges []node.Edge
}

// New creates a new, empty in-memory graph store.
func New() graphstore.Store {
	return &Store{
		nodes: make(map[string]*node.Node),
	}
}

// AddNode inserts n or replaces the node with the same id in place.
func (s *Store) AddNode(ctx context.Context, n *node.Node) error {
	if n == nil || n.ID == "" {
		return fmt.Errorf("node must have a non-empty id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.nodes[n.ID]; !exists {
		s.order = append(s.order, n.ID)
	}
	s.nodes[n.ID] = n
	return nil
}

// GetNode retrieves a single node by id.
func (s *Store) GetNode(ctx context.Context, id string) (*node.Node, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n, ok := s.nodes[id]
	return n, ok
}

// AllNodes returns all nodes in insertion order.
func (s *Store) AllNodes(ctx context.Context) []*node.Node {
	s.mu.RLock()
	defer s.mu.RUnlock()

	nodes := make([]*node.Node, 0, len(s.order))
	for _, id := range s.order {
		nodes = append(nodes, s.nodes[id])
	}
	return nodes
}

// AddEdge appends e without checking its ends.
func (s *Store) AddEdge(ctx context.Context, e node.Edge) error {
	if e.From == "" || e.To == "" {
		return fmt.Errorf("edge %q -> %q must name both ends", e.From, e.To)
	}
	if e.Kind == "" {
		e.Kind = node.EdgeForward
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.edges = append(s.edges, e)
	return nil
}

// AllEdges returns a copy of the edge list.
func (s *Store) AllEdges(ctx context.Context) []node.Edge {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return slices.Clone(s.edges)
}

// ChildrenOf returns the distinct targets of edges leaving id.
func (s *Store) ChildrenOf(ctx context.Context, id string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.childrenLocked(id)
}

// ParentsOf returns the distinct sources of edges entering id.
func (s *Store) ParentsOf(ctx context.Context, id string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var parents []string
	seen := make(map[string]struct{})
	for _, e := range s.edges {
		if e.To != id {
			continue
		}
		if _, dup := seen[e.From]; !dup {
			seen[e.From] = struct{}{}
			parents = append(parents, e.From)
		}
	}
	return parents
}

// DeleteNode removes the node and every edge touching it.
func (s *Store) DeleteNode(ctx context.Context, id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.deleteLocked(id)
}

// Descendants walks ChildrenOf depth first from rootID with a visited set.
func (s *Store) Descendants(ctx context.Context, rootID string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.descendantsLocked(rootID)
}

// DeleteSubtree removes rootID and everything reachable from it.
func (s *Store) DeleteSubtree(ctx context.Context, rootID string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed []string
	for _, id := range s.descendantsLocked(rootID) {
		if s.deleteLocked(id) {
			removed = append(removed, id)
		}
	}
	return removed
}

// Clear removes all nodes and edges.
func (s *Store) Clear(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nodes = make(map[string]*node.Node)
	s.order = nil
	s.edges = nil
}

// Len returns the number of nodes.
func (s *Store) Len(ctx context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.nodes)
}

func (s *Store) childrenLocked(id string) []string {
	var children []string
	seen := make(map[string]struct{})
	for _, e := range s.edges {
		if e.From != id {
			continue
		}
		if _, dup := seen[e.To]; !dup {
			seen[e.To] = struct{}{}
			children = append(children, e.To)
		}
	}
	return children
}

func (s *Store) descendantsLocked(rootID string) []string {
	visited := make(map[string]struct{})
	var out []string
	stack := []string{rootID}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, ok := visited[id]; ok {
			continue
		}
		visited[id] = struct{}{}
		out = append(out, id)

		children := s.childrenLocked(id)
		// Push in reverse so the first child is visited first.
		for i := len(children) - 1; i >= 0; i-- {
			if _, ok := visited[children[i]]; !ok {
				stack = append(stack, children[i])
			}
		}
	}
	return out
}

func (s *Store) deleteLocked(id string) bool {
	if _, ok := s.nodes[id]; !ok {
		// Edges pointing at a missing id are still swept.
		s.edges = slices.DeleteFunc(s.edges, func(e node.Edge) bool { return e.Touches(id) })
		return false
	}
	delete(s.nodes, id)
	s.order = slices.DeleteFunc(s.order, func(o string) bool { return o == id })
	s.edges = slices.DeleteFunc(s.edges, func(e node.Edge) bool { return e.Touches(id) })
	return true
}
