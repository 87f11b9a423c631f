package node

import (
	"slices"
	"strings"
)

// MaxLabelLength is the number of runes a display label is clipped to.
const MaxLabelLength = 15

// DefaultConfidence is assigned to incoming nodes that carry no usable confidence.
const DefaultConfidence = 0.8

// Kind is the conversational role a node plays.
type Kind string

const (
	// KindUser is something the user might say next.
	KindUser Kind = "user"
	// KindAI is something the other party might answer.
	KindAI Kind = "ai"
	// KindGoal is a target state the conversation may steer toward.
	KindGoal Kind = "goal"
)

// ParseKind reports whether s names a known Kind. Matching ignores case and
// surrounding whitespace.
func ParseKind(s string) (Kind, bool) {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case KindUser:
		return KindUser, true
	case KindAI:
		return KindAI, true
	case KindGoal:
		return KindGoal, true
	}
	return "", false
}

// EdgeKind distinguishes the relation an edge expresses between two turns.
type EdgeKind string

const (
	EdgeForward EdgeKind = "forward"
	EdgeJump    EdgeKind = "jump"
	EdgeBack    EdgeKind = "back"
)

// Edge is a directed relation between two node ids. Multiple edges between
// the same pair are allowed.
type Edge struct {
	From string   `json:"from"`
	To   string   `json:"to"`
	Kind EdgeKind `json:"kind"`
}

// Touches reports whether id is either end of the edge.
func (e Edge) Touches(id string) bool {
	return e.From == id || e.To == id
}

// ImpulsePattern describes why a node was produced.
type ImpulsePattern struct {
	Tags     []string `json:"tags,omitempty"`
	Keywords []string `json:"keywords,omitempty"`
	Emotion  string   `json:"emotion,omitempty"`
}

// IntentPattern describes what a node is trying to achieve.
type IntentPattern struct {
	Goal     string `json:"goal,omitempty"`
	Strategy string `json:"strategy,omitempty"`
	Tone     string `json:"tone,omitempty"`
}

// Node is one possible utterance in the tree of conversational futures.
type Node struct {
	ID         string          `json:"id"`
	Turn       int             `json:"turn"`
	Kind       Kind            `json:"kind"`
	Label      string          `json:"label"`
	Utterance  string          `json:"utterance"`
	Impulse    *ImpulsePattern `json:"impulsePattern,omitempty"`
	Intent     *IntentPattern  `json:"intentPattern,omitempty"`
	Confidence float64         `json:"confidence"`
	Locked     bool            `json:"locked"`
	// SourceID names the secondary input channel that created the node. It
	// is empty for nodes that came from a full regeneration.
	SourceID string `json:"sourceId,omitempty"`

	// X and Y are nil until the node has been laid out.
	X *float64 `json:"x,omitempty"`
	Y *float64 `json:"y,omitempty"`
}

// Matches reports whether pattern occurs in the label or the utterance,
// ignoring case.
func (n *Node) Matches(pattern string) bool {
	p := strings.ToLower(pattern)
	return strings.Contains(strings.ToLower(n.Label), p) ||
		strings.Contains(strings.ToLower(n.Utterance), p)
}

// SetPosition records layout coordinates.
func (n *Node) SetPosition(x, y float64) {
	n.X = &x
	n.Y = &y
}

// Clone returns a deep copy of the node.
func (n *Node) Clone() *Node {
	c := *n
	if n.Impulse != nil {
		imp := *n.Impulse
		imp.Tags = slices.Clone(n.Impulse.Tags)
		imp.Keywords = slices.Clone(n.Impulse.Keywords)
		c.Impulse = &imp
	}
	if n.Intent != nil {
		in := *n.Intent
		c.Intent = &in
	}
	if n.X != nil {
		x := *n.X
		c.X = &x
	}
	if n.Y != nil {
		y := *n.Y
		c.Y = &y
	}
	return &c
}

// ClampConfidence bounds v to [0,1]. NaN becomes DefaultConfidence.
func ClampConfidence(v float64) float64 {
	switch {
	case v != v:
		return DefaultConfidence
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}

// ClipLabel truncates s to MaxLabelLength runes.
func ClipLabel(s string) string {
	r := []rune(s)
	if len(r) <= MaxLabelLength {
		return s
	}
	return string(r[:MaxLabelLength])
}
