// Package txn applies batches of incremental edit operations, proposed by a
// generative collaborator, to a graphstore.Store.
//
// # Operations
//
//   - add_node: sanitize a node (see node.Sanitize), insert it, and add a
//     forward edge from every listed parent. Reusing an unlocked id replaces
//     that node; reusing a locked id is rejected with ErrLocked.
//   - update_node: shallow-merge a node.Patch onto an unlocked node. Missing
//     and locked targets make the operation a no-op.
//   - boost_confidence: multiply the confidence of every unlocked node whose
//     label or utterance contains the pattern (case-insensitive) by
//     BoostFactor, capped at 1.
//   - prune_branch: multiply matching confidences by PruneFactor, never going
//     below PruneFloor.
//   - delete_node: remove an unlocked node together with its edges.
//
// # Failure Isolation
//
// A batch is applied in order and never aborts. Each operation that returns
// an error or panics is recorded as an *OpError in the Result, logged, and
// skipped; the remaining operations still run. Operations that could not
// even be decoded arrive as Invalid and fail the same way.
package txn
