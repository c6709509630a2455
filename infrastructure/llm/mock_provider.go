package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"github.com/adriaan-vdb/map-my-mind-WebApp/application/ports"
)

// MockProvider answers prompts deterministically without a network call.
// It is used for development, the offline shell and tests.
type MockProvider struct {
	mu        sync.RWMutex
	available bool
}

// NewMockProvider creates a new mock LLM provider.
func NewMockProvider() *MockProvider {
	return &MockProvider{available: true}
}

func (m *MockProvider) Name() string { return "mock" }

func (m *MockProvider) IsAvailable() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.available
}

// SetAvailable toggles availability.
func (m *MockProvider) SetAvailable(available bool) {
	m.mu.Lock()
	m.available = available
	m.mu.Unlock()
}

// Complete dispatches on the task marker in the prompt.
func (m *MockProvider) Complete(ctx context.Context, prompt string, options CompletionOptions) (string, error) {
	if !m.IsAvailable() {
		return "", fmt.Errorf("mock provider is not available")
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	input := extractInput(prompt)
	var reply any
	switch {
	case strings.Contains(prompt, markerGenerate):
		reply = mockGenerate(input)
	case strings.Contains(prompt, markerSuggest):
		reply = mockSuggest(input, levelFromPrompt(prompt))
	case strings.Contains(prompt, markerInsight):
		reply = mockInsight(input)
	case strings.Contains(prompt, markerClusters):
		reply = mockClusters(input)
	default:
		return "", fmt.Errorf("unsupported prompt type")
	}

	data, err := json.Marshal(reply)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

var itemSeparators = regexp.MustCompile(`[,;\n]+|\s+and\s+`)

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

func splitItems(text string) []string {
	var items []string
	for _, part := range itemSeparators.Split(text, -1) {
		part = strings.TrimSpace(strings.TrimRight(part, "."))
		if part != "" {
			items = append(items, capitalize(part))
		}
	}
	return items
}

// mockGenerate turns "a, b" into two nodes and "Topic: a, b" into a root
// linked to each item.
func mockGenerate(text string) ports.GeneratedMap {
	out := ports.GeneratedMap{Nodes: []ports.GeneratedNode{}, Edges: []ports.GeneratedEdge{}}

	root := ""
	if i := strings.Index(text, ":"); i > 0 {
		root = strings.TrimSpace(text[:i])
		text = text[i+1:]
	}
	next := 1
	newID := func() string {
		id := fmt.Sprintf("n%d", next)
		next++
		return id
	}

	rootID := ""
	if root != "" {
		rootID = newID()
		out.Nodes = append(out.Nodes, ports.GeneratedNode{ID: rootID, Label: capitalize(root)})
	}
	for _, item := range splitItems(text) {
		id := newID()
		out.Nodes = append(out.Nodes, ports.GeneratedNode{ID: id, Label: item})
		if rootID != "" {
			out.Edges = append(out.Edges, ports.GeneratedEdge{Source: rootID, Target: id})
		}
	}
	return out
}

var suggestionSuffixes = []string{"overview", "examples", "challenges", "next steps", "resources", "open questions"}

var childCountPattern = regexp.MustCompile(`Suggest (\d+) child ideas`)

func levelFromPrompt(prompt string) int {
	m := childCountPattern.FindStringSubmatch(prompt)
	if m == nil {
		return ports.DefaultDetailLevel
	}
	var n int
	fmt.Sscanf(m[1], "%d", &n)
	return n - 1
}

func mockSuggest(label string, level int) suggestionsReply {
	n := childCount(level)
	if n > len(suggestionSuffixes) {
		n = len(suggestionSuffixes)
	}
	reply := suggestionsReply{Suggestions: make([]ports.Suggestion, 0, n)}
	for _, suffix := range suggestionSuffixes[:n] {
		reply.Suggestions = append(reply.Suggestions, ports.Suggestion{Label: capitalize(label) + " " + suffix})
	}
	return reply
}

func mockInsight(input string) ports.Insight {
	var p mapPayload
	_ = json.Unmarshal([]byte(input), &p)
	clusters := componentsOf(p)
	return ports.Insight{
		Insight:   fmt.Sprintf("The map connects %d ideas with %d links.", len(p.Nodes), len(p.Edges)),
		BlindSpot: "Consider what would make these ideas fail.",
		Clusters:  fmt.Sprintf("The ideas form %d group(s).", len(clusters)),
	}
}

func mockClusters(input string) clustersReply {
	var p mapPayload
	_ = json.Unmarshal([]byte(input), &p)
	return clustersReply{Clusters: componentsOf(p)}
}

// componentsOf groups nodes into connected components, named after the
// first node of each.
func componentsOf(p mapPayload) []ports.Cluster {
	parent := make(map[string]string, len(p.Nodes))
	var find func(string) string
	find = func(x string) string {
		if parent[x] != x {
			parent[x] = find(parent[x])
		}
		return parent[x]
	}
	for _, n := range p.Nodes {
		parent[n.ID] = n.ID
	}
	for _, e := range p.Edges {
		if _, ok := parent[e.Source]; !ok {
			continue
		}
		if _, ok := parent[e.Target]; !ok {
			continue
		}
		parent[find(e.Source)] = find(e.Target)
	}

	index := map[string]int{}
	var clusters []ports.Cluster
	for _, n := range p.Nodes {
		root := find(n.ID)
		i, ok := index[root]
		if !ok {
			i = len(clusters)
			index[root] = i
			name := n.Label
			if name == "" {
				name = fmt.Sprintf("Cluster %d", i+1)
			}
			clusters = append(clusters, ports.Cluster{Name: name})
		}
		clusters[i].NodeIDs = append(clusters[i].NodeIDs, n.ID)
	}
	return clusters
}
