package node

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// Raw is a node as proposed by a collaborator, before sanitization.
type Raw struct {
	ID             any             `json:"id"`
	Turn           any             `json:"turn"`
	Kind           any             `json:"kind"`
	Label          any             `json:"label"`
	Utterance      any             `json:"utterance"`
	ImpulsePattern json.RawMessage `json:"impulsePattern,omitempty"`
	IntentPattern  json.RawMessage `json:"intentPattern,omitempty"`
	Confidence     any             `json:"confidence"`
	SourceID       any             `json:"sourceId,omitempty"`
}

// Proposal is a node from a full-tree proposal together with the ids of the
// nodes it hangs from.
type Proposal struct {
	Raw
	Parents []any `json:"parents"`
}

// ParentIDs returns the proposal's parents coerced to strings, dropping empty ones.
func (p Proposal) ParentIDs() []string {
	return StringIDs(p.Parents)
}

// Sanitize converts a loose node into a strict one. A missing id is replaced
// by a fresh UUID, a missing or unknown kind becomes KindUser, the turn is
// coerced to a non-negative integer, the label is clipped and the confidence
// clamped to [0,1] with DefaultConfidence when absent.
func Sanitize(r Raw) *Node {
	id := CoerceString(r.ID)
	if id == "" {
		id = uuid.NewString()
	}
	kind, ok := ParseKind(CoerceString(r.Kind))
	if !ok {
		kind = KindUser
	}
	return &Node{
		ID:         id,
		Turn:       CoerceTurn(r.Turn),
		Kind:       kind,
		Label:      ClipLabel(CoerceString(r.Label)),
		Utterance:  CoerceString(r.Utterance),
		Impulse:    decodeImpulse(r.ImpulsePattern),
		Intent:     decodeIntent(r.IntentPattern),
		Confidence: CoerceConfidence(r.Confidence),
		SourceID:   CoerceString(r.SourceID),
	}
}

// StringIDs coerces a list of loosely-typed ids, dropping empty ones.
func StringIDs(vs []any) []string {
	ids := make([]string, 0, len(vs))
	for _, v := range vs {
		if id := CoerceString(v); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

// CoerceString renders a JSON scalar as a string. nil becomes "".
func CoerceString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	}
	return fmt.Sprint(v)
}

// CoerceTurn turns a JSON scalar into a non-negative integer, 0 when unusable.
func CoerceTurn(v any) int {
	f, ok := coerceFloat(v)
	if !ok || f <= 0 || math.IsInf(f, 0) {
		return 0
	}
	if f > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(f)
}

// CoerceConfidence turns a JSON scalar into a confidence in [0,1],
// DefaultConfidence when absent or unusable.
func CoerceConfidence(v any) float64 {
	f, ok := coerceFloat(v)
	if !ok {
		return DefaultConfidence
	}
	return ClampConfidence(f)
}

func coerceFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, !math.IsNaN(t)
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil && !math.IsNaN(f)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f, err == nil && !math.IsNaN(f)
	}
	return 0, false
}

func decodeImpulse(raw json.RawMessage) *ImpulsePattern {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	var p ImpulsePattern
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil
	}
	return &p
}

func decodeIntent(raw json.RawMessage) *IntentPattern {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	var p IntentPattern
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil
	}
	return &p
}
