package reconciler

import (
	"context"

	"github.com/specialistvlad/branchtalk/internal/collaborator"
	"github.com/specialistvlad/branchtalk/internal/ctxlog"
	"github.com/specialistvlad/branchtalk/internal/graph"
	"github.com/specialistvlad/branchtalk/internal/node"
)

const (
	statusGenerationFailed = "generation failed: "
	statusUpdateFailed     = "update failed: "
)

func (r *Reconciler) regenerate(ctx context.Context, in inputs, rep *Report) error {
	logger := ctxlog.FromContext(ctx)

	if err := r.withWriter(ctx, func() error {
		r.graph.Commit(ctx, graph.StatusGenerating)
		return nil
	}); err != nil {
		return err
	}

	proposals, err := r.collab.GenerateTree(ctx, collaborator.TreeRequest{
		Primary:   in.primary,
		Secondary: in.channels,
		Config:    r.cfg,
	})
	if err != nil {
		logger.Error("Tree generation failed, graph left unchanged.", "error", err)
		rep.Errors = append(rep.Errors, err)
		return r.withWriter(ctx, func() error {
			r.graph.Commit(ctx, statusGenerationFailed+err.Error())
			return nil
		})
	}

	if r.currentPrimary() != in.primary {
		logger.Info("Primary input changed during generation, discarding result.", "proposed", len(proposals))
		rep.Stale = true
		r.observer.ResultDiscarded(PathFull)
		r.reschedule()
		return nil
	}

	return r.withWriter(ctx, func() error {
		r.replaceTree(ctx, proposals, rep)
		r.graph.Commit(ctx, graph.StatusReady)
		logger.Info("Tree regenerated.", "nodes", len(rep.Ingested), "rejected", len(rep.Rejected))
		return nil
	})
}

// replaceTree swaps every unlocked node for the proposals. Locked nodes keep
// their fields and their position in iteration order. Callers hold the writer.
func (r *Reconciler) replaceTree(ctx context.Context, proposals []node.Proposal, rep *Report) {
	logger := ctxlog.FromContext(ctx)

	var locked []*node.Node
	lockedIDs := make(map[string]struct{})
	for _, n := range r.store.AllNodes(ctx) {
		if n.Locked {
			locked = append(locked, n.Clone())
			lockedIDs[n.ID] = struct{}{}
			continue
		}
		r.store.DeleteNode(ctx, n.ID)
	}

	type link struct {
		id      string
		parents []string
	}
	links := make([]link, 0, len(proposals))
	seen := make(map[string]struct{}, len(proposals))
	for _, p := range proposals {
		n := node.Sanitize(p.Raw)
		if _, isLocked := lockedIDs[n.ID]; isLocked {
			logger.Warn("Proposed node reuses a locked id, skipping it.", "node_id", n.ID)
			rep.Rejected = append(rep.Rejected, n.ID)
			continue
		}
		if err := r.store.AddNode(ctx, n); err != nil {
			logger.Warn("Could not add proposed node.", "node_id", n.ID, "error", err)
			continue
		}
		if _, dup := seen[n.ID]; !dup {
			seen[n.ID] = struct{}{}
			rep.Ingested = append(rep.Ingested, n.ID)
		}
		links = append(links, link{id: n.ID, parents: p.ParentIDs()})
	}

	// Parents may be declared after their children, so edges go in last.
	for _, l := range links {
		for _, parent := range l.parents {
			if _, ok := r.store.GetNode(ctx, parent); !ok {
				logger.Debug("Dropping edge from unknown parent.", "parent", parent, "child", l.id)
				continue
			}
			if err := r.store.AddEdge(ctx, node.Edge{From: parent, To: l.id, Kind: node.EdgeForward}); err != nil {
				logger.Warn("Could not add proposed edge.", "parent", parent, "child", l.id, "error", err)
			}
		}
	}

	for _, n := range locked {
		if err := r.store.AddNode(ctx, n); err != nil {
			logger.Error("Could not restore locked node.", "node_id", n.ID, "error", err)
		}
	}
}

func (r *Reconciler) differential(ctx context.Context, in, prev inputs, rep *Report) error {
	logger := ctxlog.FromContext(ctx)

	for _, id := range in.order {
		content := in.channels[id]
		if content == "" || content == prev.channels[id] {
			continue
		}
		rep.Path = PathDifferential
		logger.Info("Secondary input changed, requesting transactions.", "channel", id)

		cr, err := r.applyChannel(ctx, id, content)
		if err != nil {
			return err
		}
		if cr.Err != nil {
			rep.Errors = append(rep.Errors, cr.Err)
		}
		rep.Channels = append(rep.Channels, cr)
	}

	for _, id := range prev.order {
		if _, still := in.channels[id]; still || prev.channels[id] == "" {
			continue
		}
		rep.Path = PathDifferential
		deleted, err := r.cleanup(ctx, id)
		if err != nil {
			return err
		}
		rep.Cleanups = append(rep.Cleanups, CleanupReport{ChannelID: id, Deleted: deleted})
	}
	return nil
}

func (r *Reconciler) applyChannel(ctx context.Context, id, content string) (ChannelReport, error) {
	ctx, logger := ctxlog.With(ctx, "channel", id)
	cr := ChannelReport{ChannelID: id}

	var proj collaborator.Projection
	if err := r.withWriter(ctx, func() error {
		proj = Project(ctx, r.store)
		return nil
	}); err != nil {
		return cr, err
	}

	ops, err := r.collab.ProposeTransactions(ctx, collaborator.DiffRequest{
		Graph:     proj,
		Content:   content,
		ChannelID: id,
	})
	if err != nil {
		logger.Error("Transaction proposal failed, graph left unchanged.", "error", err)
		cr.Err = err
		return cr, r.withWriter(ctx, func() error {
			r.graph.Commit(ctx, statusUpdateFailed+err.Error())
			return nil
		})
	}

	if cur, ok := r.currentChannel(id); !ok || cur != content {
		logger.Info("Channel changed during proposal, discarding result.", "operations", len(ops))
		cr.Stale = true
		r.observer.ResultDiscarded(PathDifferential)
		r.reschedule()
		return cr, nil
	}

	err = r.withWriter(ctx, func() error {
		cr.Result = r.engine.Apply(ctx, ops, id)
		r.graph.Commit(ctx, graph.StatusReady)
		return nil
	})
	if err != nil {
		return cr, err
	}
	r.observer.BatchApplied(id, cr.Result)
	logger.Info("Transactions applied.", "applied", cr.Result.Applied, "skipped", cr.Result.Skipped())
	return cr, nil
}

// cleanup deletes the unlocked nodes a removed channel contributed.
func (r *Reconciler) cleanup(ctx context.Context, id string) ([]string, error) {
	var deleted []string
	err := r.withWriter(ctx, func() error {
		for _, n := range r.store.AllNodes(ctx) {
			if n.Locked || n.SourceID != id {
				continue
			}
			if r.store.DeleteNode(ctx, n.ID) {
				deleted = append(deleted, n.ID)
			}
		}
		r.graph.Commit(ctx, graph.StatusReady)
		return nil
	})
	ctxlog.FromContext(ctx).Info("Channel removed, its nodes were deleted.", "channel", id, "deleted", len(deleted))
	return deleted, err
}
