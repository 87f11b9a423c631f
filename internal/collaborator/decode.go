package collaborator

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/specialistvlad/branchtalk/internal/node"
	"github.com/specialistvlad/branchtalk/internal/txn"
)

const (
	OpGenerateTree        = "generate tree"
	OpProposeTransactions = "propose transactions"
)

// Keys under which a list may be wrapped when the service answers with an object.
var (
	treeKeys = []string{"nodes", "tree"}
	opKeys   = []string{"transactions", "operations", "ops"}
)

// DecodeTree parses a full-tree payload: either a JSON array of nodes or an
// object holding one under "nodes" or "tree".
func DecodeTree(body []byte) ([]node.Proposal, error) {
	items, err := decodeList(body, treeKeys)
	if err != nil {
		return nil, &FormatError{Op: OpGenerateTree, Excerpt: excerpt(body), Err: err}
	}
	proposals := make([]node.Proposal, 0, len(items))
	for i, item := range items {
		dec := json.NewDecoder(bytes.NewReader(item))
		dec.UseNumber()
		var p node.Proposal
		if err := dec.Decode(&p); err != nil {
			return nil, &FormatError{Op: OpGenerateTree, Excerpt: excerpt(item), Err: fmt.Errorf("node %d: %w", i, err)}
		}
		proposals = append(proposals, p)
	}
	return proposals, nil
}

// DecodeTransactions parses a differential payload: either a JSON array of
// operations or an object holding one under "transactions", "operations" or
// "ops". Operations that do not decode individually become txn.Invalid.
func DecodeTransactions(body []byte) ([]txn.Operation, error) {
	items, err := decodeList(body, opKeys)
	if err != nil {
		return nil, &FormatError{Op: OpProposeTransactions, Excerpt: excerpt(body), Err: err}
	}
	return txn.DecodeAll(items), nil
}

func decodeList(body []byte, keys []string) ([]json.RawMessage, error) {
	body = stripFence(bytes.TrimSpace(body))
	if len(body) == 0 {
		return nil, errors.New("empty response")
	}

	switch body[0] {
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(body, &items); err != nil {
			return nil, err
		}
		return items, nil
	case '{':
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(body, &obj); err != nil {
			return nil, err
		}
		for _, k := range keys {
			raw, ok := obj[k]
			if !ok {
				continue
			}
			var items []json.RawMessage
			if err := json.Unmarshal(raw, &items); err != nil {
				return nil, fmt.Errorf("%q is not a list: %w", k, err)
			}
			return items, nil
		}
		return nil, fmt.Errorf("object has none of the keys %v", keys)
	}
	return nil, errors.New("response is not JSON")
}

// stripFence removes a surrounding markdown code fence, which chat models
// add even when asked not to.
func stripFence(b []byte) []byte {
	if !bytes.HasPrefix(b, []byte("```")) {
		return b
	}
	b = b[3:]
	if nl := bytes.IndexByte(b, '\n'); nl >= 0 {
		b = b[nl+1:]
	}
	b = bytes.TrimSuffix(bytes.TrimSpace(b), []byte("```"))
	return bytes.TrimSpace(b)
}
