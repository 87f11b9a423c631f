package graph

import (
	"context"
	"slices"
	"sync"

	"github.com/specialistvlad/branchtalk/internal/ctxlog"
	"github.com/specialistvlad/branchtalk/internal/graphstore"
	"github.com/specialistvlad/branchtalk/internal/layout"
	"github.com/specialistvlad/branchtalk/internal/node"
)

const (
	StatusReady      = "ready"
	StatusGenerating = "generating"
)

// Manager owns layout, versioning and change notification for one store.
//
// Commit must be called by the graph's single writer. Readers never touch
// the store's nodes: they get copies of the View built by the last Commit.
type Manager struct {
	store  graphstore.Store
	canvas layout.Canvas

	mu         sync.Mutex
	version    uint64
	status     string
	view       View
	publishers []Publisher
	subs       map[int]chan View
	nextSub    int
}

// New creates a manager for the given store and canvas.
func New(store graphstore.Store, canvas layout.Canvas, publishers ...Publisher) *Manager {
	return &Manager{
		store:      store,
		canvas:     canvas,
		status:     StatusReady,
		view:       View{Status: StatusReady, Nodes: []*node.Node{}, Edges: []node.Edge{}},
		publishers: publishers,
		subs:       make(map[int]chan View),
	}
}

// Store returns the underlying store.
func (m *Manager) Store() graphstore.Store {
	return m.store
}

// AddPublisher registers an additional publisher.
func (m *Manager) AddPublisher(p Publisher) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.publishers = append(m.publishers, p)
}

// Commit relayouts the graph, records status, bumps the version and
// publishes the resulting View. The caller must hold the graph's writer.
func (m *Manager) Commit(ctx context.Context, status string) View {
	nodes := m.store.AllNodes(ctx)
	layout.Apply(nodes, m.canvas)
	snap := snapshot(nodes, m.store.AllEdges(ctx))

	m.mu.Lock()
	m.version++
	m.status = status
	snap.Version = m.version
	snap.Status = status
	m.view = snap
	publishers := append([]Publisher(nil), m.publishers...)
	for _, ch := range m.subs {
		offer(ch, snap.clone())
	}
	m.mu.Unlock()

	v := snap.clone()

	logger := ctxlog.FromContext(ctx)
	for _, p := range publishers {
		if err := p.Publish(ctx, v); err != nil {
			logger.Warn("Failed to publish graph view.", "version", v.Version, "error", err)
		}
	}
	logger.Debug("Graph committed.", "version", v.Version, "status", status, "nodes", len(v.Nodes), "edges", len(v.Edges))
	return v
}

// View returns a copy of the snapshot taken by the last Commit. It is safe
// to call while a writer is mutating the store.
func (m *Manager) View(ctx context.Context) View {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.view.clone()
}

// Status returns the status recorded by the last Commit.
func (m *Manager) Status() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// Version returns the current version.
func (m *Manager) Version() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.version
}

// Subscribe returns a channel that receives every committed View. Slow
// subscribers only ever see the newest pending View. The returned function
// unsubscribes and closes the channel.
func (m *Manager) Subscribe() (<-chan View, func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextSub
	m.nextSub++
	ch := make(chan View, 1)
	m.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			if c, ok := m.subs[id]; ok {
				delete(m.subs, id)
				close(c)
			}
		})
	}
}

// Close drops every subscriber.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, ch := range m.subs {
		delete(m.subs, id)
		close(ch)
	}
}

func snapshot(nodes []*node.Node, edges []node.Edge) View {
	clones := make([]*node.Node, 0, len(nodes))
	for _, n := range nodes {
		clones = append(clones, n.Clone())
	}
	if edges == nil {
		edges = []node.Edge{}
	}
	return View{Nodes: clones, Edges: edges}
}

// clone deep-copies v so callers cannot reach the cached snapshot.
func (v View) clone() View {
	c := snapshot(v.Nodes, slices.Clone(v.Edges))
	c.Version = v.Version
	c.Status = v.Status
	return c
}

// offer replaces whatever is buffered in ch with v.
func offer(ch chan View, v View) {
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- v:
	default:
	}
}
