package collaborator

import (
	"errors"
	"testing"

	"github.com/specialistvlad/branchtalk/internal/node"
	"github.com/specialistvlad/branchtalk/internal/txn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeTree(t *testing.T) {
	tests := []struct {
		name string
		body string
		want []string
	}{
		{"bare array", `[{"id":"a","parents":[]},{"id":"b","parents":["a"]}]`, []string{"a", "b"}},
		{"wrapped in nodes", `{"nodes":[{"id":1}]}`, []string{"1"}},
		{"wrapped in tree", `{"tree":[{"id":"t"}]}`, []string{"t"}},
		{"code fence", "```json\n[{\"id\":\"f\"}]\n```", []string{"f"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := DecodeTree([]byte(tc.body))
			require.NoError(t, err)
			var ids []string
			for _, p := range got {
				ids = append(ids, node.CoerceString(p.ID))
			}
			assert.Equal(t, tc.want, ids)
		})
	}
}

func TestDecodeTree_KeepsParentsAndPatterns(t *testing.T) {
	got, err := DecodeTree([]byte(`[{"id":"b","turn":1,"kind":"ai","parents":["a",2],"impulsePattern":{"tags":["curious"]}}]`))
	require.NoError(t, err)
	require.Len(t, got, 1)

	assert.Equal(t, []string{"a", "2"}, got[0].ParentIDs())
	n := node.Sanitize(got[0].Raw)
	assert.Equal(t, 1, n.Turn)
	require.NotNil(t, n.Impulse)
	assert.Equal(t, []string{"curious"}, n.Impulse.Tags)
}

func TestDecodeTree_FormatErrors(t *testing.T) {
	for name, body := range map[string]string{
		"empty":          "   ",
		"prose":          "Sure! Here is your tree.",
		"truncated":      `[{"id":"a"`,
		"wrong key":      `{"answer":[]}`,
		"nodes not list": `{"nodes":"a,b"}`,
		"scalar node":    `[1,2]`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeTree([]byte(body))
			var fe *FormatError
			require.True(t, errors.As(err, &fe), "want FormatError, got %v", err)
			assert.Equal(t, OpGenerateTree, fe.Op)
		})
	}
}

func TestDecodeTransactions(t *testing.T) {
	ops, err := DecodeTransactions([]byte(`{"transactions":[
		{"type":"boost_confidence","targetPattern":"weekend"},
		{"op":"delete_node","id":"x"},
		{"type":"rename_node"}
	]}`))
	require.NoError(t, err)
	require.Len(t, ops, 3)

	assert.Equal(t, txn.BoostConfidence{Pattern: "weekend"}, ops[0])
	assert.Equal(t, txn.DeleteNode{NodeID: "x"}, ops[1])
	inv, ok := ops[2].(txn.Invalid)
	require.True(t, ok)
	assert.Equal(t, txn.OpType("rename_node"), inv.Type())
}

func TestDecodeTransactions_FormatError(t *testing.T) {
	_, err := DecodeTransactions([]byte(`not json`))
	var fe *FormatError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, OpProposeTransactions, fe.Op)
	assert.Equal(t, "not json", fe.Excerpt)
}

func TestErrorsUnwrap(t *testing.T) {
	cause := errors.New("dial tcp: refused")
	err := error(&TransportError{Op: OpGenerateTree, Err: cause})
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "generate tree: call failed")
}
