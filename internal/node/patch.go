package node

import (
	"encoding/json"
	"fmt"
)

// Patch is a shallow set of field updates keyed by the JSON field name.
// Only label, utterance, turn, kind, confidence, impulsePattern and
// intentPattern are applied; any other key is ignored.
type Patch map[string]any

// Apply merges p onto n. The patch is validated as a whole before anything is
// written, so a rejected patch leaves n untouched.
func (p Patch) Apply(n *Node) error {
	next := n.Clone()
	for key, v := range p {
		switch key {
		case "label":
			next.Label = ClipLabel(CoerceString(v))
		case "utterance":
			next.Utterance = CoerceString(v)
		case "turn":
			next.Turn = CoerceTurn(v)
		case "kind":
			kind, ok := ParseKind(CoerceString(v))
			if !ok {
				return fmt.Errorf("unknown kind %q", CoerceString(v))
			}
			next.Kind = kind
		case "confidence":
			f, ok := coerceFloat(v)
			if !ok {
				return fmt.Errorf("confidence %v is not a number", v)
			}
			next.Confidence = ClampConfidence(f)
		case "impulsePattern":
			raw, err := json.Marshal(v)
			if err != nil {
				return fmt.Errorf("impulsePattern: %w", err)
			}
			next.Impulse = decodeImpulse(raw)
		case "intentPattern":
			raw, err := json.Marshal(v)
			if err != nil {
				return fmt.Errorf("intentPattern: %w", err)
			}
			next.Intent = decodeIntent(raw)
		}
	}
	*n = *next
	return nil
}
