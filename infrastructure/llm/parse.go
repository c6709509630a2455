package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/adriaan-vdb/map-my-mind-WebApp/application/ports"
	"github.com/adriaan-vdb/map-my-mind-WebApp/pkg/utils"
)

var jsonBlock = regexp.MustCompile(`(?s)\{.*\}`)

// extractJSON strips code fences and surrounding prose from a completion.
func extractJSON(response string) (string, error) {
	response = strings.TrimSpace(response)
	if strings.HasPrefix(response, "```") {
		response = strings.TrimPrefix(response, "```json")
		response = strings.TrimPrefix(response, "```")
		response = strings.TrimSuffix(response, "```")
		response = strings.TrimSpace(response)
	}
	if json.Valid([]byte(response)) {
		return response, nil
	}
	if m := jsonBlock.FindString(response); m != "" && json.Valid([]byte(m)) {
		return m, nil
	}
	return "", errors.New("response contains no JSON object")
}

func decodeInto(response string, v any) error {
	raw, err := extractJSON(response)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return fmt.Errorf("response does not match schema: %w", err)
	}
	return utils.ValidateStruct(v)
}

func parseGenerated(response string) (*ports.GeneratedMap, error) {
	var m ports.GeneratedMap
	if err := decodeInto(response, &m); err != nil {
		return nil, err
	}
	ids := make(map[string]bool, len(m.Nodes))
	for _, n := range m.Nodes {
		if ids[n.ID] {
			return nil, fmt.Errorf("duplicate node id %q", n.ID)
		}
		ids[n.ID] = true
	}
	return &m, nil
}

type suggestionsReply struct {
	Suggestions []ports.Suggestion `json:"suggestions" validate:"required,dive"`
}

func parseSuggestions(response string) ([]ports.Suggestion, error) {
	var r suggestionsReply
	if err := decodeInto(response, &r); err != nil {
		return nil, err
	}
	return r.Suggestions, nil
}

func parseInsight(response string) (*ports.Insight, error) {
	var in ports.Insight
	if err := decodeInto(response, &in); err != nil {
		return nil, err
	}
	return &in, nil
}

type clustersReply struct {
	Clusters []ports.Cluster `json:"clusters" validate:"required,dive"`
}

func parseClusters(response string) ([]ports.Cluster, error) {
	var r clustersReply
	if err := decodeInto(response, &r); err != nil {
		return nil, err
	}
	return r.Clusters, nil
}
