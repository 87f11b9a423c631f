package reconciler

import (
	"context"

	"github.com/specialistvlad/branchtalk/internal/collaborator"
	"github.com/specialistvlad/branchtalk/internal/graphstore"
)

// Project builds the read-only view of the graph sent to the collaborator.
// Parents are limited to ids that are present in the store.
func Project(ctx context.Context, store graphstore.Store) collaborator.Projection {
	nodes := store.AllNodes(ctx)
	present := make(map[string]struct{}, len(nodes))
	for _, n := range nodes {
		present[n.ID] = struct{}{}
	}

	proj := make(collaborator.Projection, 0, len(nodes))
	for _, n := range nodes {
		parents := []string{}
		for _, p := range store.ParentsOf(ctx, n.ID) {
			if _, ok := present[p]; ok {
				parents = append(parents, p)
			}
		}
		proj = append(proj, collaborator.ProjectedNode{
			ID:         n.ID,
			Kind:       n.Kind,
			Turn:       n.Turn,
			Label:      n.Label,
			Utterance:  n.Utterance,
			Confidence: n.Confidence,
			Locked:     n.Locked,
			Parents:    parents,
		})
	}
	return proj
}
