// Package node defines the conversation graph's vertices and edges, and the
// ingestion rules that turn loosely-typed collaborator payloads into them.
//
// # Strict and loose shapes
//
// Node and Edge are the strict internal shapes: every Node held by a store has
// a non-empty string id, a non-negative turn, a known Kind, a label of at most
// MaxLabelLength runes and a confidence in [0,1].
//
// Raw and Proposal mirror what a generative collaborator actually sends:
// ids that may be numbers, turns that may be strings, missing confidences,
// unknown kinds. Sanitize is the only way from the loose shape to the strict
// one, and it never fails. Malformed fields fall back to defaults.
//
// Patch is the loose shape of an update: a JSON object whose recognised keys
// are applied field by field through the same coercions.
package node
