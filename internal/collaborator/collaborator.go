// Package collaborator defines the boundary to the external generative
// service that proposes conversation trees and incremental edits.
//
// # Why Collaborator Package Exists
//
// The service is opaque: it is asked for text and answers with loosely typed
// JSON. This package pins down what is sent (TreeRequest, DiffRequest and the
// read-only Projection of the graph) and turns what comes back into the typed
// shapes the rest of the system works with (node.Proposal, txn.Operation).
//
// # Error Kinds
//
// Every failure of a call is one of two kinds, distinguishable with errors.As:
//   - *FormatError: the call succeeded but the payload has the wrong shape
//   - *TransportError: the call itself failed (network, API, circuit open)
//
// Both abort the current reconciliation cycle and leave the graph untouched.
// Individual malformed operations inside a well-formed batch are not format
// errors; they are decoded as txn.Invalid and skipped at apply time.
package collaborator

import (
	"context"

	"github.com/specialistvlad/branchtalk/internal/node"
	"github.com/specialistvlad/branchtalk/internal/txn"
)

// Collaborator is the generative service.
type Collaborator interface {
	// GenerateTree proposes a complete replacement tree.
	GenerateTree(ctx context.Context, req TreeRequest) ([]node.Proposal, error)

	// ProposeTransactions proposes edits to the current graph in response to
	// new content on one secondary channel.
	ProposeTransactions(ctx context.Context, req DiffRequest) ([]txn.Operation, error)
}

// GenerationConfig shapes a full-tree proposal.
type GenerationConfig struct {
	MaxTurns int `json:"maxTurns"`
	Branches int `json:"branches"`
	Goals    int `json:"goals"`
}

// TreeRequest asks for a full tree seeded with every input.
type TreeRequest struct {
	Primary   string            `json:"primary"`
	Secondary map[string]string `json:"secondary"`
	Config    GenerationConfig  `json:"config"`
}

// ProjectedNode is the view of a node the collaborator reasons over. It
// deliberately leaves out impulse and intent patterns.
type ProjectedNode struct {
	ID         string    `json:"id"`
	Kind       node.Kind `json:"kind"`
	Turn       int       `json:"turn"`
	Label      string    `json:"label"`
	Utterance  string    `json:"utterance"`
	Confidence float64   `json:"confidence"`
	Locked     bool      `json:"locked"`
	Parents    []string  `json:"parents"`
}

// Projection is the read-only graph sent with a DiffRequest.
type Projection []ProjectedNode

// DiffRequest asks for edits prompted by one channel's new content.
type DiffRequest struct {
	Graph     Projection `json:"graph"`
	Content   string     `json:"content"`
	ChannelID string     `json:"channelId"`
}
