// Package reconciler keeps the conversation graph in step with its inputs.
//
// # Inputs and Snapshot
//
// A Reconciler holds a primary context string and an ordered set of
// secondary channels (channel id to content). Setters only record the new
// values; nothing happens until Reconcile is called. Each cycle compares the
// inputs it reads at its start against the snapshot left by the previous
// cycle and picks one path:
//
//   - Full regeneration, when the primary changed and is not empty. The
//     collaborator proposes a whole tree which replaces every unlocked node.
//   - Differential, otherwise, once per secondary channel whose content
//     changed and is not empty. The collaborator proposes a transaction batch
//     which txn.Engine applies with the channel id stamped on new nodes.
//     Channels removed since the last cycle then have their unlocked nodes
//     deleted.
//
// The snapshot then advances to what the cycle read, whether the collaborator
// succeeded or not.
//
// # Concurrency
//
// At most one cycle runs at a time. A Reconcile call that arrives while a
// cycle is running returns immediately with Report.Coalesced set, and the
// running cycle goes around once more before returning. Graph writes made by
// cycles, Confirm and ToggleLock are serialized by a single-slot semaphore
// that is never held across a collaborator call.
//
// A collaborator result is applied only if the input it was issued for is
// still current. Otherwise it is dropped and another cycle is scheduled.
package reconciler
