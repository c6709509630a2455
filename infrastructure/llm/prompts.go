package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/adriaan-vdb/map-my-mind-WebApp/domain/graph"
)

// Prompt markers. The mock provider keys off these too.
const (
	markerGenerate = "TASK: generate-mind-map"
	markerSuggest  = "TASK: suggest-children"
	markerInsight  = "TASK: map-insight"
	markerClusters = "TASK: semantic-clusters"

	inputOpen  = "<input>"
	inputClose = "</input>"
)

var detailInstructions = map[int]string{
	1: "Be extremely brief: 2-4 nodes, labels of one to three words, no summaries.",
	2: "Be brief: 3-6 nodes with short labels and one-line summaries at most.",
	3: "Use a balanced level of detail: 5-9 nodes with short labels and one-sentence summaries.",
	4: "Be detailed: 8-14 nodes with clear labels and two-sentence summaries.",
	5: "Be exhaustive: 12-20 nodes with precise labels and rich summaries.",
}

func detailInstruction(level int) string {
	if s, ok := detailInstructions[level]; ok {
		return s
	}
	return detailInstructions[3]
}

func childCount(level int) int {
	return level + 1
}

func wrapInput(s string) string {
	return inputOpen + "\n" + s + "\n" + inputClose
}

// extractInput returns the text between the input markers of a prompt.
func extractInput(prompt string) string {
	start := strings.Index(prompt, inputOpen)
	end := strings.LastIndex(prompt, inputClose)
	if start < 0 || end < start {
		return ""
	}
	return strings.TrimSpace(prompt[start+len(inputOpen) : end])
}

func buildGeneratePrompt(text string, level int) string {
	return fmt.Sprintf(`%s
Turn the text below into a mind map.
%s

%s

Return JSON exactly like:
{"nodes":[{"id":"n1","label":"Short label","summary":"optional"}],"edges":[{"source":"n1","target":"n2"}]}

Rules:
1. Every id is unique and every edge references existing ids
2. Labels are short noun phrases
3. Do not invent topics that are not implied by the text
`, markerGenerate, detailInstruction(level), wrapInput(text))
}

func buildSuggestPrompt(label string, level int) string {
	return fmt.Sprintf(`%s
Suggest %d child ideas for the mind-map node below.
%s

%s

Return JSON exactly like:
{"suggestions":[{"label":"Child idea"}]}
`, markerSuggest, childCount(level), detailInstruction(level), wrapInput(label))
}

type mapPayload struct {
	Nodes     []graph.Node      `json:"nodes"`
	Edges     []graph.Edge      `json:"edges"`
	Summaries map[string]string `json:"summaries,omitempty"`
}

func encodePayload(p mapPayload) string {
	data, _ := json.Marshal(p)
	return string(data)
}

func buildInsightPrompt(p mapPayload, level int) string {
	return fmt.Sprintf(`%s
Analyse the mind map below. Give one key insight, one blind spot the author
has not considered, and a sentence on how the ideas cluster.
%s

%s

Return JSON exactly like:
{"insight":"...","blindSpot":"...","clusters":"..."}
`, markerInsight, detailInstruction(level), wrapInput(encodePayload(p)))
}

func buildClustersPrompt(p mapPayload, level int) string {
	return fmt.Sprintf(`%s
Group the nodes of the mind map below into named semantic clusters. Use only
node ids that appear in the input.
%s

%s

Return JSON exactly like:
{"clusters":[{"name":"Cluster name","nodeIds":["n1","n2"]}]}
`, markerClusters, detailInstruction(level), wrapInput(encodePayload(p)))
}
