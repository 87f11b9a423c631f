package reconciler

import (
	"context"
	"fmt"

	"github.com/specialistvlad/branchtalk/internal/ctxlog"
)

// Confirm commits the branch through id: every other node at the same turn
// is deleted together with its subtree. Anything reachable from id
// survives. A locked node survives with everything below it. It returns the
// deleted ids.
func (r *Reconciler) Confirm(ctx context.Context, id string) ([]string, error) {
	var removed []string
	err := r.withWriter(ctx, func() error {
		target, ok := r.store.GetNode(ctx, id)
		if !ok {
			return fmt.Errorf("confirm %q: %w", id, ErrNodeNotFound)
		}

		keep := make(map[string]struct{})
		for _, d := range r.store.Descendants(ctx, id) {
			keep[d] = struct{}{}
		}

		for _, sibling := range r.store.AllNodes(ctx) {
			if sibling.Turn != target.Turn {
				continue
			}
			for _, d := range r.prunable(ctx, sibling.ID, keep) {
				if r.store.DeleteNode(ctx, d) {
					removed = append(removed, d)
				}
			}
		}

		r.graph.Commit(ctx, r.graph.Status())
		return nil
	})
	if err != nil {
		return nil, err
	}
	ctxlog.FromContext(ctx).Info("Branch confirmed.", "node_id", id, "removed", len(removed))
	return removed, nil
}

// ToggleLock flips the lock flag of a node and returns the new value.
func (r *Reconciler) ToggleLock(ctx context.Context, id string) (bool, error) {
	var locked bool
	err := r.withWriter(ctx, func() error {
		n, ok := r.store.GetNode(ctx, id)
		if !ok {
			return fmt.Errorf("toggle lock %q: %w", id, ErrNodeNotFound)
		}
		n.Locked = !n.Locked
		locked = n.Locked
		r.graph.Commit(ctx, r.graph.Status())
		return nil
	})
	if err != nil {
		return false, err
	}
	ctxlog.FromContext(ctx).Debug("Node lock toggled.", "node_id", id, "locked", locked)
	return locked, nil
}

// prunable returns rootID and the nodes reachable from it, depth first,
// without entering kept or locked nodes. Callers hold the writer.
func (r *Reconciler) prunable(ctx context.Context, rootID string, keep map[string]struct{}) []string {
	var out []string
	visited := make(map[string]struct{})
	stack := []string{rootID}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, ok := visited[id]; ok {
			continue
		}
		visited[id] = struct{}{}
		if _, kept := keep[id]; kept {
			continue
		}
		if n, ok := r.store.GetNode(ctx, id); !ok || n.Locked {
			continue
		}
		out = append(out, id)
		children := r.store.ChildrenOf(ctx, id)
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, children[i])
		}
	}
	return out
}
