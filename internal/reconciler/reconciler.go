package reconciler

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/specialistvlad/branchtalk/internal/collaborator"
	"github.com/specialistvlad/branchtalk/internal/ctxlog"
	"github.com/specialistvlad/branchtalk/internal/graph"
	"github.com/specialistvlad/branchtalk/internal/graphstore"
	"github.com/specialistvlad/branchtalk/internal/txn"
	"golang.org/x/sync/semaphore"
)

// ErrNodeNotFound is returned by Confirm and ToggleLock for unknown ids.
var ErrNodeNotFound = errors.New("node not found")

// Observer is notified about finished cycles. Implementations must be safe
// for concurrent use.
type Observer interface {
	CycleFinished(path Path, failed bool)
	BatchApplied(channelID string, res *txn.Result)
	ResultDiscarded(path Path)
	GraphSize(nodes, edges int)
}

type noopObserver struct{}

func (noopObserver) CycleFinished(Path, bool)          {}
func (noopObserver) BatchApplied(string, *txn.Result) {}
func (noopObserver) ResultDiscarded(Path)             {}
func (noopObserver) GraphSize(int, int)               {}

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithObserver sets the observer notified after each cycle.
func WithObserver(o Observer) Option {
	return func(r *Reconciler) {
		if o != nil {
			r.observer = o
		}
	}
}

// inputs is one reading of the primary and the secondary channels.
type inputs struct {
	primary  string
	channels map[string]string
	order    []string
}

func (in inputs) clone() inputs {
	out := inputs{
		primary:  in.primary,
		channels: make(map[string]string, len(in.channels)),
		order:    slices.Clone(in.order),
	}
	for k, v := range in.channels {
		out.channels[k] = v
	}
	return out
}

// Reconciler drives the collaborator from input changes and applies its
// proposals to the graph.
type Reconciler struct {
	graph    *graph.Manager
	store    graphstore.Store
	engine   *txn.Engine
	collab   collaborator.Collaborator
	cfg      collaborator.GenerationConfig
	observer Observer

	// writer serializes every mutation of the store.
	writer *semaphore.Weighted

	mu       sync.Mutex
	current  inputs
	snapshot inputs
	running  bool
	pending  bool
}

// New creates a reconciler over the graph managed by g.
func New(g *graph.Manager, collab collaborator.Collaborator, cfg collaborator.GenerationConfig, opts ...Option) *Reconciler {
	r := &Reconciler{
		graph:    g,
		store:    g.Store(),
		engine:   txn.NewEngine(g.Store()),
		collab:   collab,
		cfg:      cfg,
		observer: noopObserver{},
		writer:   semaphore.NewWeighted(1),
		current:  inputs{channels: map[string]string{}},
		snapshot: inputs{channels: map[string]string{}},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// SetPrimary records the primary context.
func (r *Reconciler) SetPrimary(content string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.current.primary = content
}

// SetChannel records the content of a secondary channel, adding it if new.
func (r *Reconciler) SetChannel(id, content string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.current.channels[id]; !ok {
		r.current.order = append(r.current.order, id)
	}
	r.current.channels[id] = content
}

// RemoveChannel forgets a secondary channel. It reports whether the channel
// existed.
func (r *Reconciler) RemoveChannel(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.current.channels[id]; !ok {
		return false
	}
	delete(r.current.channels, id)
	r.current.order = slices.DeleteFunc(r.current.order, func(s string) bool { return s == id })
	return true
}

// Channels returns the ids of the current secondary channels in the order
// they were added.
func (r *Reconciler) Channels() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.current.order)
}

// Reconcile runs reconciliation cycles until the inputs stop changing under
// it and returns the report of the last one. If a cycle is already running
// the call only marks it to go around again and returns a Report with
// Coalesced set.
//
// Collaborator failures are reported in the Report, never as the returned
// error. The error is non-nil only when ctx ends while waiting for the graph.
func (r *Reconciler) Reconcile(ctx context.Context) (*Report, error) {
	r.mu.Lock()
	if r.running {
		r.pending = true
		r.mu.Unlock()
		ctxlog.FromContext(ctx).Debug("Reconciliation already running, trigger coalesced.")
		return &Report{Path: PathNone, Coalesced: true}, nil
	}
	r.running = true
	r.mu.Unlock()

	for cycle := 1; ; cycle++ {
		rep, err := r.cycle(ctx, cycle)
		if err != nil {
			r.mu.Lock()
			r.running = false
			r.mu.Unlock()
			return rep, err
		}

		// A trigger either lands before this check or starts its own call.
		r.mu.Lock()
		if !r.pending {
			r.running = false
			r.mu.Unlock()
			rep.Cycles = cycle
			return rep, nil
		}
		r.pending = false
		r.mu.Unlock()
	}
}

func (r *Reconciler) cycle(ctx context.Context, n int) (*Report, error) {
	ctx, logger := ctxlog.With(ctx, "cycle", n)

	r.mu.Lock()
	in := r.current.clone()
	prev := r.snapshot.clone()
	r.mu.Unlock()

	rep := &Report{Path: PathNone}
	logger.Debug("Reconciliation cycle started.", "channels", len(in.order))

	var err error
	switch {
	case in.primary != "" && in.primary != prev.primary:
		rep.Path = PathFull
		logger.Info("Primary input changed, regenerating tree.")
		err = r.regenerate(ctx, in, rep)
	default:
		err = r.differential(ctx, in, prev, rep)
	}
	if err != nil {
		return rep, err
	}

	r.mu.Lock()
	r.snapshot = in
	r.mu.Unlock()

	rep.Version = r.graph.Version()
	r.observer.CycleFinished(rep.Path, len(rep.Errors) > 0)
	r.observer.GraphSize(r.store.Len(ctx), len(r.store.AllEdges(ctx)))
	logger.Debug("Reconciliation cycle finished.", "path", rep.Path, "errors", len(rep.Errors), "version", rep.Version)
	return rep, nil
}

// reschedule makes the running Reconcile call go around once more.
func (r *Reconciler) reschedule() {
	r.mu.Lock()
	r.pending = true
	r.mu.Unlock()
}

func (r *Reconciler) currentPrimary() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current.primary
}

func (r *Reconciler) currentChannel(id string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.current.channels[id]
	return c, ok
}

// withWriter runs f while holding the graph's single writer slot.
func (r *Reconciler) withWriter(ctx context.Context, f func() error) error {
	if err := r.writer.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("waiting for graph writer: %w", err)
	}
	defer r.writer.Release(1)
	return f()
}
