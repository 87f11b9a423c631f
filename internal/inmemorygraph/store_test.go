package inmemorygraph

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/specialistvlad/branchtalk/internal/graphstore"
	"github.com/specialistvlad/branchtalk/internal/node"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// addNodes is a helper that adds one turn-0 user node per id.
func addNodes(t *testing.T, s graphstore.Store, ids ...string) {
	t.Helper()
	for _, id := range ids {
		require.NoError(t, s.AddNode(context.Background(), &node.Node{ID: id, Kind: node.KindUser}))
	}
}

// link is a helper that adds forward edges between consecutive ids.
func link(t *testing.T, s graphstore.Store, ids ...string) {
	t.Helper()
	for i := 0; i+1 < len(ids); i++ {
		require.NoError(t, s.AddEdge(context.Background(), node.Edge{From: ids[i], To: ids[i+1]}))
	}
}

func ids(nodes []*node.Node) []string {
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.ID)
	}
	return out
}

func TestAddNode_KeepsInsertionOrder(t *testing.T) {
	s := New()
	ctx := context.Background()
	addNodes(t, s, "c", "a", "b")

	assert.Equal(t, []string{"c", "a", "b"}, ids(s.AllNodes(ctx)))
}

func TestAddNode_ReplaceKeepsPosition(t *testing.T) {
	s := New()
	ctx := context.Background()
	addNodes(t, s, "a", "b", "c")

	require.NoError(t, s.AddNode(ctx, &node.Node{ID: "b", Label: "second"}))

	assert.Equal(t, []string{"a", "b", "c"}, ids(s.AllNodes(ctx)))
	got, ok := s.GetNode(ctx, "b")
	require.True(t, ok)
	assert.Equal(t, "second", got.Label)
	assert.Equal(t, 3, s.Len(ctx))
}

func TestAddNode_RejectsEmptyID(t *testing.T) {
	s := New()
	assert.Error(t, s.AddNode(context.Background(), &node.Node{}))
	assert.Error(t, s.AddNode(context.Background(), nil))
}

func TestAddEdge_DefaultsAndDuplicates(t *testing.T) {
	s := New()
	ctx := context.Background()
	addNodes(t, s, "a", "b")

	require.NoError(t, s.AddEdge(ctx, node.Edge{From: "a", To: "b"}))
	require.NoError(t, s.AddEdge(ctx, node.Edge{From: "a", To: "b", Kind: node.EdgeJump}))

	want := []node.Edge{
		{From: "a", To: "b", Kind: node.EdgeForward},
		{From: "a", To: "b", Kind: node.EdgeJump},
	}
	if diff := cmp.Diff(want, s.AllEdges(ctx)); diff != "" {
		t.Errorf("edges mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, []string{"b"}, s.ChildrenOf(ctx, "a"), "multi-edges yield one child")
	assert.Equal(t, []string{"a"}, s.ParentsOf(ctx, "b"))
}

func TestAddEdge_DanglingIsTolerated(t *testing.T) {
	s := New()
	ctx := context.Background()
	addNodes(t, s, "a")

	require.NoError(t, s.AddEdge(ctx, node.Edge{From: "ghost", To: "a"}))
	assert.Equal(t, []string{"ghost"}, s.ParentsOf(ctx, "a"))
	assert.Equal(t, []string{"ghost", "a"}, s.Descendants(ctx, "ghost"))
	assert.Equal(t, []string{"a"}, s.DeleteSubtree(ctx, "ghost"), "only live nodes are reported")
	assert.Empty(t, s.AllEdges(ctx))
	assert.Error(t, s.AddEdge(ctx, node.Edge{From: "ghost"}))
}

func TestDeleteNode_RemovesTouchingEdges(t *testing.T) {
	s := New()
	ctx := context.Background()
	addNodes(t, s, "a", "b", "c")
	link(t, s, "a", "b", "c")

	assert.True(t, s.DeleteNode(ctx, "b"))
	assert.False(t, s.DeleteNode(ctx, "b"))

	assert.Equal(t, []string{"a", "c"}, ids(s.AllNodes(ctx)))
	assert.Empty(t, s.AllEdges(ctx))
}

func TestDeleteSubtree(t *testing.T) {
	s := New()
	ctx := context.Background()
	//   a -> b -> d
	//   a -> c
	//   x -> d   (d is shared with an outside parent)
	addNodes(t, s, "a", "b", "c", "d", "x")
	link(t, s, "a", "b", "d")
	link(t, s, "a", "c")
	link(t, s, "x", "d")

	removed := s.DeleteSubtree(ctx, "b")

	assert.ElementsMatch(t, []string{"b", "d"}, removed)
	assert.Equal(t, []string{"a", "c", "x"}, ids(s.AllNodes(ctx)))
	for _, e := range s.AllEdges(ctx) {
		assert.NotContains(t, []string{"b", "d"}, e.From)
		assert.NotContains(t, []string{"b", "d"}, e.To)
	}
}

func TestDeleteSubtree_TerminatesOnCycle(t *testing.T) {
	s := New()
	ctx := context.Background()
	addNodes(t, s, "a", "b", "c", "z")
	link(t, s, "a", "b", "c", "a")
	link(t, s, "c", "c")

	removed := s.DeleteSubtree(ctx, "b")

	assert.Equal(t, []string{"b", "c", "a"}, removed, "each cycle member is removed exactly once")
	assert.Equal(t, []string{"z"}, ids(s.AllNodes(ctx)))
	assert.Empty(t, s.AllEdges(ctx))
}

func TestDeleteSubtree_MissingRoot(t *testing.T) {
	s := New()
	assert.Empty(t, s.DeleteSubtree(context.Background(), "nope"))
}

func TestDescendants_DepthFirstOrder(t *testing.T) {
	s := New()
	ctx := context.Background()
	addNodes(t, s, "r", "a", "a1", "b")
	link(t, s, "r", "a", "a1")
	link(t, s, "r", "b")

	assert.Equal(t, []string{"r", "a", "a1", "b"}, s.Descendants(ctx, "r"))
}

func TestClear(t *testing.T) {
	s := New()
	ctx := context.Background()
	addNodes(t, s, "a", "b")
	link(t, s, "a", "b")

	s.Clear(ctx)

	assert.Zero(t, s.Len(ctx))
	assert.Empty(t, s.AllNodes(ctx))
	assert.Empty(t, s.AllEdges(ctx))
}

func TestConcurrentReadsAndWrites(t *testing.T) {
	s := New()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			_ = s.AddNode(ctx, &node.Node{ID: fmt.Sprintf("n%d", i)})
		}(i)
		go func() {
			defer wg.Done()
			_ = s.AllNodes(ctx)
			_ = s.AllEdges(ctx)
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, s.Len(ctx))
}
