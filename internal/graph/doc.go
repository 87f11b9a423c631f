// Package graph provides the presentation-facing facade over a graph store:
// it lays the graph out, versions it and announces every change.
//
// # Why Graph Package Exists
//
// The store only holds data. Renderers need more: coordinates, a monotonically
// increasing version to know when to redraw, and a short status line ("ready",
// "generation failed: ..."). Manager adds exactly that on top of a
// graphstore.Store without the store knowing.
//
// # Architecture
//
//	┌──────────────┐  Commit   ┌──────────────────┐  View  ┌─────────────┐
//	│  reconciler  │──────────▶│  graph.Manager   │───────▶│ publishers  │
//	└──────────────┘           │ layout + version │        │ subscribers │
//	                           └────────┬─────────┘        └─────────────┘
//	                                    │
//	                           ┌────────▼─────────┐
//	                           │ graphstore.Store │
//	                           └──────────────────┘
//
// # Lifecycle
//
//  1. **Creation:** the session creates one Manager around its store
//  2. **Mutation:** the reconciler mutates the store, then calls Commit
//  3. **Publication:** Commit relayouts, bumps the version and fans the View out
//  4. **Disposal:** Close drops all subscribers when the session ends
//
// # Views Are Snapshots
//
// A View holds deep copies of the nodes, so renderers may keep or marshal it
// while the next cycle mutates the store. Commit runs under the store's single
// writer and caches its View; View hands out copies of that cache and never
// reads the store, so uncommitted edits stay invisible to readers.
package graph
