package llmcollaborator

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/specialistvlad/branchtalk/internal/collaborator"
)

const treeSystemPrompt = `You map the possible futures of a conversation as a tree.
Answer with a JSON object {"nodes": [...]} and nothing else. Each node has:
  "id": unique string, "turn": integer depth (0 is the current context),
  "kind": "user" | "ai" | "goal", "label": at most 15 characters,
  "utterance": what would be said, "confidence": number between 0 and 1,
  "impulsePattern": {"tags": [..], "keywords": [..], "emotion": ".."} (optional),
  "intentPattern": {"goal": "..", "strategy": "..", "tone": ".."} (optional),
  "parents": ids of the nodes this one follows.`

const diffSystemPrompt = `You maintain a tree of possible conversation futures.
New information arrived on one input channel. Propose the smallest set of edits.
Answer with a JSON object {"transactions": [...]} and nothing else. Each item is one of:
  {"type": "add_node", "node": {id, turn, kind, label, utterance, confidence}, "parentIds": [..]}
  {"type": "update_node", "nodeId": "..", "patch": {field: value}}
  {"type": "boost_confidence", "targetPattern": ".."}
  {"type": "prune_branch", "targetPattern": ".."}
  {"type": "delete_node", "nodeId": ".."}
Never touch nodes whose "locked" is true.`

func treePrompt(req collaborator.TreeRequest) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Generate up to %d turns, %d branches per turn and %d goal nodes.\n\n",
		req.Config.MaxTurns, req.Config.Branches, req.Config.Goals)
	b.WriteString("Conversation context:\n")
	b.WriteString(req.Primary)
	if len(req.Secondary) > 0 {
		extra, err := json.Marshal(req.Secondary)
		if err != nil {
			return "", fmt.Errorf("encode secondary inputs: %w", err)
		}
		b.WriteString("\n\nAdditional inputs by channel:\n")
		b.Write(extra)
	}
	return b.String(), nil
}

func diffPrompt(req collaborator.DiffRequest) (string, error) {
	graph, err := json.Marshal(req.Graph)
	if err != nil {
		return "", fmt.Errorf("encode graph projection: %w", err)
	}
	var b strings.Builder
	b.WriteString("Current graph:\n")
	b.Write(graph)
	fmt.Fprintf(&b, "\n\nNew content on channel %q:\n", req.ChannelID)
	b.WriteString(req.Content)
	return b.String(), nil
}
