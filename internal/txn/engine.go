package txn

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/specialistvlad/branchtalk/internal/ctxlog"
	"github.com/specialistvlad/branchtalk/internal/graphstore"
	"github.com/specialistvlad/branchtalk/internal/node"
)

const (
	// BoostFactor multiplies the confidence of nodes matched by boost_confidence.
	BoostFactor = 1.2
	// PruneFactor multiplies the confidence of nodes matched by prune_branch.
	PruneFactor = 0.6
	// PruneFloor is the lowest confidence prune_branch will leave behind.
	PruneFloor = 0.1
)

// ErrLocked is returned when an operation would overwrite a locked node.
var ErrLocked = errors.New("node is locked")

// ErrEmptyPattern is returned by boost and prune operations without a pattern.
var ErrEmptyPattern = errors.New("empty target pattern")

// OpError describes one operation that was skipped.
type OpError struct {
	Index int
	Type  OpType
	Err   error
}

func (e *OpError) Error() string {
	return fmt.Sprintf("operation %d (%s): %v", e.Index, e.Type, e.Err)
}

func (e *OpError) Unwrap() error { return e.Err }

// Result summarises the application of one batch.
type Result struct {
	Applied int
	Added   []string
	Deleted []string
	Errors  []*OpError
}

// Skipped returns how many operations failed.
func (r *Result) Skipped() int { return len(r.Errors) }

// Engine applies edit operations to a store.
type Engine struct {
	store graphstore.Store
}

// NewEngine creates an engine bound to the given store.
func NewEngine(store graphstore.Store) *Engine {
	return &Engine{store: store}
}

// Apply runs ops in order. Each operation is isolated: an error or a panic
// skips that operation only and is recorded in the result. When sourceID is
// not empty it is stamped on every node added by the batch.
func (e *Engine) Apply(ctx context.Context, ops []Operation, sourceID string) *Result {
	logger := ctxlog.FromContext(ctx)
	res := &Result{}
	for i, op := range ops {
		if err := e.applyOne(ctx, op, sourceID, res); err != nil {
			opErr := &OpError{Index: i, Type: typeOf(op), Err: err}
			res.Errors = append(res.Errors, opErr)
			logger.Warn("Skipping transaction operation.", "index", i, "type", opErr.Type, "error", err)
			continue
		}
		res.Applied++
	}
	logger.Debug("Transaction batch applied.", "applied", res.Applied, "skipped", res.Skipped(), "source_id", sourceID)
	return res
}

func (e *Engine) applyOne(ctx context.Context, op Operation, sourceID string, res *Result) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	switch o := op.(type) {
	case AddNode:
		return e.addNode(ctx, o, sourceID, res)
	case UpdateNode:
		return e.updateNode(ctx, o)
	case BoostConfidence:
		return e.scale(ctx, o.Pattern, func(c float64) float64 {
			return math.Min(1, c*BoostFactor)
		})
	case PruneBranch:
		return e.scale(ctx, o.Pattern, func(c float64) float64 {
			return math.Max(PruneFloor, c*PruneFactor)
		})
	case DeleteNode:
		return e.deleteNode(ctx, o, res)
	case Invalid:
		return o.Err
	case nil:
		return errors.New("nil operation")
	}
	return fmt.Errorf("unsupported operation %T", op)
}

func (e *Engine) addNode(ctx context.Context, o AddNode, sourceID string, res *Result) error {
	n := node.Sanitize(o.Node)
	switch {
	case sourceID != "":
		n.SourceID = sourceID
	case o.SourceID != "":
		n.SourceID = o.SourceID
	}
	if existing, ok := e.store.GetNode(ctx, n.ID); ok && existing.Locked {
		return fmt.Errorf("add %q: %w", n.ID, ErrLocked)
	}
	if err := e.store.AddNode(ctx, n); err != nil {
		return err
	}
	for _, parent := range o.Parents {
		if err := e.store.AddEdge(ctx, node.Edge{From: parent, To: n.ID, Kind: node.EdgeForward}); err != nil {
			return err
		}
	}
	res.Added = append(res.Added, n.ID)
	return nil
}

func (e *Engine) updateNode(ctx context.Context, o UpdateNode) error {
	n, ok := e.store.GetNode(ctx, o.NodeID)
	if !ok || n.Locked {
		ctxlog.FromContext(ctx).Debug("update_node is a no-op.", "node_id", o.NodeID, "found", ok)
		return nil
	}
	return o.Patch.Apply(n)
}

func (e *Engine) scale(ctx context.Context, pattern string, f func(float64) float64) error {
	if pattern == "" {
		return ErrEmptyPattern
	}
	for _, n := range e.store.AllNodes(ctx) {
		if n.Locked || !n.Matches(pattern) {
			continue
		}
		n.Confidence = node.ClampConfidence(f(n.Confidence))
	}
	return nil
}

func (e *Engine) deleteNode(ctx context.Context, o DeleteNode, res *Result) error {
	n, ok := e.store.GetNode(ctx, o.NodeID)
	if !ok || n.Locked {
		ctxlog.FromContext(ctx).Debug("delete_node is a no-op.", "node_id", o.NodeID, "found", ok)
		return nil
	}
	if e.store.DeleteNode(ctx, o.NodeID) {
		res.Deleted = append(res.Deleted, o.NodeID)
	}
	return nil
}

func typeOf(op Operation) OpType {
	if op == nil {
		return "nil"
	}
	return op.Type()
}
