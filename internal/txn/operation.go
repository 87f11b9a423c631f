package txn

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/specialistvlad/branchtalk/internal/node"
)

// OpType names an edit operation on the wire.
type OpType string

const (
	OpAddNode         OpType = "add_node"
	OpUpdateNode      OpType = "update_node"
	OpBoostConfidence OpType = "boost_confidence"
	OpPruneBranch     OpType = "prune_branch"
	OpDeleteNode      OpType = "delete_node"
)

// Operation is one edit in a batch. The concrete types are AddNode,
// UpdateNode, BoostConfidence, PruneBranch, DeleteNode and Invalid.
type Operation interface {
	Type() OpType
}

// AddNode inserts a sanitized node and a forward edge from each parent.
type AddNode struct {
	Node     node.Raw
	Parents  []string
	SourceID string
}

// UpdateNode merges Patch onto an unlocked node.
type UpdateNode struct {
	NodeID string
	Patch  node.Patch
}

// BoostConfidence raises the confidence of every unlocked node matching Pattern.
type BoostConfidence struct {
	Pattern string
}

// PruneBranch lowers the confidence of every unlocked node matching Pattern.
type PruneBranch struct {
	Pattern string
}

// DeleteNode removes an unlocked node and its edges.
type DeleteNode struct {
	NodeID string
}

// Invalid stands in for an operation that could not be decoded. Applying it
// always fails, which keeps the decoding error inside the batch.
type Invalid struct {
	Name string
	Err  error
}

func (AddNode) Type() OpType         { return OpAddNode }
func (UpdateNode) Type() OpType      { return OpUpdateNode }
func (BoostConfidence) Type() OpType { return OpBoostConfidence }
func (PruneBranch) Type() OpType     { return OpPruneBranch }
func (DeleteNode) Type() OpType      { return OpDeleteNode }
func (i Invalid) Type() OpType       { return OpType(i.Name) }

// wireOp is the union of every field an operation may carry on the wire.
// Alternative spellings seen from collaborators are accepted.
type wireOp struct {
	Type          string          `json:"type"`
	Op            string          `json:"op"`
	Node          *node.Proposal  `json:"node"`
	ParentIDs     []any           `json:"parentIds"`
	Parents       []any           `json:"parents"`
	NodeID        any             `json:"nodeId"`
	ID            any             `json:"id"`
	Patch         json.RawMessage `json:"patch"`
	TargetPattern *string         `json:"targetPattern"`
	Pattern       *string         `json:"pattern"`
	SourceID      any             `json:"sourceId"`
}

// Decode turns one JSON operation into an Operation. It never fails: anything
// that cannot be understood comes back as Invalid.
func Decode(raw json.RawMessage) Operation {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var w wireOp
	if err := dec.Decode(&w); err != nil {
		return Invalid{Name: "unknown", Err: fmt.Errorf("decode operation: %w", err)}
	}

	name := strings.ToLower(strings.TrimSpace(w.Type))
	if name == "" {
		name = strings.ToLower(strings.TrimSpace(w.Op))
	}

	switch OpType(name) {
	case OpAddNode:
		if w.Node == nil {
			return Invalid{Name: name, Err: errors.New("add_node without node")}
		}
		parents := node.StringIDs(append(w.ParentIDs, w.Parents...))
		parents = append(parents, w.Node.ParentIDs()...)
		return AddNode{
			Node:     w.Node.Raw,
			Parents:  dedupe(parents),
			SourceID: node.CoerceString(w.SourceID),
		}
	case OpUpdateNode:
		id := w.nodeID()
		if id == "" {
			return Invalid{Name: name, Err: errors.New("update_node without nodeId")}
		}
		var patch node.Patch
		if len(w.Patch) > 0 {
			if err := json.Unmarshal(w.Patch, &patch); err != nil {
				return Invalid{Name: name, Err: fmt.Errorf("update_node patch: %w", err)}
			}
		}
		return UpdateNode{NodeID: id, Patch: patch}
	case OpBoostConfidence:
		return BoostConfidence{Pattern: w.pattern()}
	case OpPruneBranch:
		return PruneBranch{Pattern: w.pattern()}
	case OpDeleteNode:
		id := w.nodeID()
		if id == "" {
			return Invalid{Name: name, Err: errors.New("delete_node without nodeId")}
		}
		return DeleteNode{NodeID: id}
	}
	if name == "" {
		name = "unknown"
	}
	return Invalid{Name: name, Err: fmt.Errorf("unknown operation type %q", name)}
}

// DecodeAll decodes every operation of a batch.
func DecodeAll(raws []json.RawMessage) []Operation {
	ops := make([]Operation, 0, len(raws))
	for _, r := range raws {
		ops = append(ops, Decode(r))
	}
	return ops
}

func (w wireOp) nodeID() string {
	if id := node.CoerceString(w.NodeID); id != "" {
		return id
	}
	return node.CoerceString(w.ID)
}

func (w wireOp) pattern() string {
	if w.TargetPattern != nil {
		return *w.TargetPattern
	}
	if w.Pattern != nil {
		return *w.Pattern
	}
	return ""
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := ids[:0]
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
