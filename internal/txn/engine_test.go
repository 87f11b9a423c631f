package txn

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"testing"

	"github.com/specialistvlad/branchtalk/internal/graphstore"
	"github.com/specialistvlad/branchtalk/internal/inmemorygraph"
	"github.com/specialistvlad/branchtalk/internal/node"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEngine(t *testing.T) (*Engine, graphstore.Store) {
	t.Helper()
	store := inmemorygraph.New()
	return NewEngine(store), store
}

func mustGet(t *testing.T, s graphstore.Store, id string) *node.Node {
	t.Helper()
	n, ok := s.GetNode(context.Background(), id)
	require.True(t, ok, "node %q should exist", id)
	return n
}

func decodeOps(t *testing.T, payload string) []Operation {
	t.Helper()
	var raws []json.RawMessage
	require.NoError(t, json.Unmarshal([]byte(payload), &raws))
	return DecodeAll(raws)
}

func TestScenario_AddBoostLockUpdate(t *testing.T) {
	e, s := newEngine(t)
	ctx := context.Background()

	res := e.Apply(ctx, []Operation{
		AddNode{Node: node.Raw{ID: "a", Turn: 0.0, Kind: "user", Label: "a", Confidence: 0.9}},
	}, "")
	require.Empty(t, res.Errors)
	assert.Equal(t, []string{"a"}, res.Added)
	assert.Empty(t, s.AllEdges(ctx))

	e.Apply(ctx, []Operation{BoostConfidence{Pattern: "a"}}, "")
	assert.Equal(t, 1.0, mustGet(t, s, "a").Confidence)

	mustGet(t, s, "a").Locked = true
	res = e.Apply(ctx, []Operation{UpdateNode{NodeID: "a", Patch: node.Patch{"confidence": 0.1}}}, "")
	assert.Empty(t, res.Errors)
	assert.Equal(t, 1.0, mustGet(t, s, "a").Confidence)
}

func TestAddNode_SanitizesAndLinksParents(t *testing.T) {
	e, s := newEngine(t)
	ctx := context.Background()

	ops := decodeOps(t, `[
		{"type": "add_node", "node": {"id": "root", "turn": 0, "kind": "goal"}},
		{"type": "add_node", "node": {"id": 7, "turn": "1", "kind": "??", "label": "what about the weekend"}, "parentIds": ["root", "missing"]}
	]`)
	res := e.Apply(ctx, ops, "notes")

	require.Empty(t, res.Errors)
	n := mustGet(t, s, "7")
	assert.Equal(t, 1, n.Turn)
	assert.Equal(t, node.KindUser, n.Kind)
	assert.Equal(t, "what about the ", n.Label)
	assert.Equal(t, node.DefaultConfidence, n.Confidence)
	assert.Equal(t, "notes", n.SourceID)
	assert.Equal(t, []node.Edge{
		{From: "root", To: "7", Kind: node.EdgeForward},
		{From: "missing", To: "7", Kind: node.EdgeForward},
	}, s.AllEdges(ctx))
}

func TestAddNode_OverwritesUnlockedButNotLocked(t *testing.T) {
	e, s := newEngine(t)
	ctx := context.Background()
	require.NoError(t, s.AddNode(ctx, &node.Node{ID: "u", Label: "old", Confidence: 0.3}))
	require.NoError(t, s.AddNode(ctx, &node.Node{ID: "l", Label: "keep", Confidence: 0.3, Locked: true}))

	res := e.Apply(ctx, []Operation{
		AddNode{Node: node.Raw{ID: "u", Label: "new"}},
		AddNode{Node: node.Raw{ID: "l", Label: "clobber"}, Parents: []string{"u"}},
	}, "")

	assert.Equal(t, "new", mustGet(t, s, "u").Label)
	assert.Equal(t, "keep", mustGet(t, s, "l").Label)
	require.Len(t, res.Errors, 1)
	assert.True(t, errors.Is(res.Errors[0], ErrLocked))
	assert.Equal(t, 1, res.Errors[0].Index)
	assert.Empty(t, s.AllEdges(ctx), "a rejected add does not wire its parents")
}

func TestUpdateNode(t *testing.T) {
	e, s := newEngine(t)
	ctx := context.Background()
	require.NoError(t, s.AddNode(ctx, &node.Node{ID: "a", Kind: node.KindUser, Label: "hi", Utterance: "hi there", Confidence: 0.5}))

	res := e.Apply(ctx, []Operation{
		UpdateNode{NodeID: "a", Patch: node.Patch{"utterance": "hello", "confidence": -1.0}},
		UpdateNode{NodeID: "ghost", Patch: node.Patch{"label": "x"}},
	}, "")

	assert.Empty(t, res.Errors)
	assert.Equal(t, 2, res.Applied)
	a := mustGet(t, s, "a")
	assert.Equal(t, "hello", a.Utterance)
	assert.Equal(t, "hi", a.Label)
	assert.Equal(t, 0.0, a.Confidence)
}

func TestBoostAndPrune(t *testing.T) {
	e, s := newEngine(t)
	ctx := context.Background()
	require.NoError(t, s.AddNode(ctx, &node.Node{ID: "a", Label: "Weather", Confidence: 0.5}))
	require.NoError(t, s.AddNode(ctx, &node.Node{ID: "b", Utterance: "how is the WEATHER", Confidence: 0.12}))
	require.NoError(t, s.AddNode(ctx, &node.Node{ID: "c", Label: "weather", Confidence: 0.5, Locked: true}))
	require.NoError(t, s.AddNode(ctx, &node.Node{ID: "d", Label: "sports", Confidence: 0.5}))

	e.Apply(ctx, []Operation{BoostConfidence{Pattern: "weather"}}, "")
	assert.InDelta(t, 0.6, mustGet(t, s, "a").Confidence, 1e-9)
	assert.InDelta(t, 0.144, mustGet(t, s, "b").Confidence, 1e-9)
	assert.Equal(t, 0.5, mustGet(t, s, "c").Confidence)
	assert.Equal(t, 0.5, mustGet(t, s, "d").Confidence)

	e.Apply(ctx, []Operation{PruneBranch{Pattern: "weather"}}, "")
	assert.InDelta(t, 0.36, mustGet(t, s, "a").Confidence, 1e-9)
	assert.Equal(t, PruneFloor, mustGet(t, s, "b").Confidence)
	assert.Equal(t, 0.5, mustGet(t, s, "c").Confidence)
}

func TestBoostAndPrune_EmptyPatternFails(t *testing.T) {
	e, s := newEngine(t)
	ctx := context.Background()
	require.NoError(t, s.AddNode(ctx, &node.Node{ID: "a", Label: "x", Confidence: 0.5}))

	res := e.Apply(ctx, []Operation{BoostConfidence{}, PruneBranch{}}, "")

	require.Len(t, res.Errors, 2)
	assert.ErrorIs(t, res.Errors[0], ErrEmptyPattern)
	assert.Equal(t, 0.5, mustGet(t, s, "a").Confidence)
}

func TestDeleteNode(t *testing.T) {
	e, s := newEngine(t)
	ctx := context.Background()
	require.NoError(t, s.AddNode(ctx, &node.Node{ID: "a"}))
	require.NoError(t, s.AddNode(ctx, &node.Node{ID: "b"}))
	require.NoError(t, s.AddNode(ctx, &node.Node{ID: "l", Locked: true}))
	require.NoError(t, s.AddEdge(ctx, node.Edge{From: "a", To: "b"}))
	require.NoError(t, s.AddEdge(ctx, node.Edge{From: "l", To: "b"}))

	res := e.Apply(ctx, []Operation{DeleteNode{NodeID: "b"}, DeleteNode{NodeID: "l"}, DeleteNode{NodeID: "zzz"}}, "")

	assert.Empty(t, res.Errors)
	assert.Equal(t, []string{"b"}, res.Deleted)
	mustGet(t, s, "l")
	assert.Empty(t, s.AllEdges(ctx))
}

func TestApply_PartialFailureIsolation(t *testing.T) {
	e, s := newEngine(t)
	ctx := context.Background()

	ops := decodeOps(t, `[
		{"type": "add_node", "node": {"id": "a", "label": "alpha"}},
		{"type": "teleport_node", "nodeId": "a"},
		{"type": "update_node", "patch": {"label": "no target"}},
		{"type": "update_node", "nodeId": "a", "patch": {"kind": "villain"}},
		"not even an object",
		{"type": "add_node", "node": {"id": "b", "label": "beta"}, "parentIds": ["a"]}
	]`)
	res := e.Apply(ctx, ops, "")

	assert.Equal(t, 2, res.Applied)
	assert.Equal(t, 4, res.Skipped())
	assert.Equal(t, []string{"a", "b"}, res.Added)
	assert.Equal(t, "alpha", mustGet(t, s, "a").Label)
	assert.Equal(t, node.KindUser, mustGet(t, s, "a").Kind)
	assert.Len(t, s.AllEdges(ctx), 1)

	var idx []int
	for _, e := range res.Errors {
		idx = append(idx, e.Index)
	}
	assert.Equal(t, []int{1, 2, 3, 4}, idx)
}

type panicOp struct{}

func (panicOp) Type() OpType { return "panic" }

type panickingStore struct {
	graphstore.Store
}

func (panickingStore) AllNodes(context.Context) []*node.Node { panic("boom") }

func TestApply_RecoversFromPanics(t *testing.T) {
	store := panickingStore{Store: inmemorygraph.New()}
	e := NewEngine(store)
	ctx := context.Background()

	res := e.Apply(ctx, []Operation{
		BoostConfidence{Pattern: "x"},
		nil,
		panicOp{},
		AddNode{Node: node.Raw{ID: "after"}},
	}, "")

	require.Len(t, res.Errors, 3)
	assert.Contains(t, res.Errors[0].Error(), "panic: boom")
	assert.Equal(t, OpType("nil"), res.Errors[1].Type)
	assert.Equal(t, []string{"after"}, res.Added)
}

func TestConfidenceStaysBounded(t *testing.T) {
	e, s := newEngine(t)
	ctx := context.Background()
	rng := rand.New(rand.NewSource(7))

	for i := range 20 {
		e.Apply(ctx, []Operation{AddNode{Node: node.Raw{
			ID:         float64(i),
			Label:      "node",
			Confidence: rng.Float64()*4 - 2,
		}}}, "")
	}
	for range 200 {
		var op Operation = BoostConfidence{Pattern: "node"}
		if rng.Intn(2) == 0 {
			op = PruneBranch{Pattern: "NODE"}
		}
		e.Apply(ctx, []Operation{op}, "")
		for _, n := range s.AllNodes(ctx) {
			require.GreaterOrEqual(t, n.Confidence, 0.0)
			require.LessOrEqual(t, n.Confidence, 1.0)
		}
	}
}
