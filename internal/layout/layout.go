// Package layout assigns 2D coordinates to conversation nodes from the shape
// of the graph alone: turns become evenly spaced columns and siblings within
// a turn are spread evenly down the column.
package layout

import (
	"github.com/specialistvlad/branchtalk/internal/node"
)

// Canvas is the target drawing area.
type Canvas struct {
	Width  float64
	Height float64
}

// Apply sets X and Y on every node. Column x for turn t is
// Width/(maxTurn+2)*(t+1); the i-th of k nodes in a turn gets
// Height/(k+1)*(i+1), with i following the order of nodes. Apply is
// stateless and idempotent.
func Apply(nodes []*node.Node, c Canvas) {
	maxTurn := 0
	counts := make(map[int]int)
	for _, n := range nodes {
		counts[n.Turn]++
		if n.Turn > maxTurn {
			maxTurn = n.Turn
		}
	}

	colWidth := c.Width / float64(maxTurn+2)
	seen := make(map[int]int, len(counts))
	for _, n := range nodes {
		idx := seen[n.Turn]
		seen[n.Turn]++
		x := colWidth * float64(n.Turn+1)
		y := c.Height / float64(counts[n.Turn]+1) * float64(idx+1)
		n.SetPosition(x, y)
	}
}
