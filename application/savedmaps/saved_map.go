// Package savedmaps persists named mind-map snapshots in a namespaced
// key-value store.
package savedmaps

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/blake2b"

	"github.com/adriaan-vdb/map-my-mind-WebApp/domain/graph"
	"github.com/adriaan-vdb/map-my-mind-WebApp/pkg/utils"
)

// KeyPrefix namespaces saved maps in the key-value store.
const KeyPrefix = "mindmaps:"

// MaxNameLength bounds map names.
const MaxNameLength = 200

// Key returns the storage key for name.
func Key(name string) string {
	return KeyPrefix + name
}

// NameFromKey strips the namespace.
func NameFromKey(key string) string {
	return strings.TrimPrefix(key, KeyPrefix)
}

// SavedMap is a named, persisted snapshot of a graph. Timestamps are unix
// milliseconds.
type SavedMap struct {
	Name      string       `json:"name"`
	Nodes     []graph.Node `json:"nodes"`
	Edges     []graph.Edge `json:"edges"`
	CreatedAt int64        `json:"createdAt"`
	UpdatedAt int64        `json:"updatedAt,omitempty"`
	Checksum  string       `json:"checksum,omitempty"`
}

// Snapshot returns the graph content.
func (m SavedMap) Snapshot() graph.Snapshot {
	return graph.Snapshot{Nodes: m.Nodes, Edges: m.Edges}
}

// storedMap mirrors SavedMap with pointer fields so missing required fields
// can be told apart from zero values.
type storedMap struct {
	Name      *string       `json:"name" validate:"required"`
	Nodes     *[]graph.Node `json:"nodes" validate:"required,dive"`
	Edges     *[]graph.Edge `json:"edges" validate:"required,dive"`
	CreatedAt *float64      `json:"createdAt" validate:"required"`
	UpdatedAt *float64      `json:"updatedAt,omitempty"`
	Checksum  string        `json:"checksum,omitempty"`
}

// ValidateName checks a user supplied map name.
func ValidateName(name string) error {
	switch {
	case strings.TrimSpace(name) == "":
		return errors.New("name is required")
	case len(name) > MaxNameLength:
		return fmt.Errorf("name must be at most %d characters", MaxNameLength)
	case strings.ContainsAny(name, "\r\n\x00"):
		return errors.New("name must not contain control characters")
	}
	return nil
}

// Checksum returns the BLAKE2b-256 digest of the canonical nodes/edges payload.
func Checksum(nodes []graph.Node, edges []graph.Edge) string {
	if nodes == nil {
		nodes = []graph.Node{}
	}
	if edges == nil {
		edges = []graph.Edge{}
	}
	payload, _ := json.Marshal(graph.Snapshot{Nodes: nodes, Edges: edges})
	sum := blake2b.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

// Encode serializes m for storage.
func Encode(m SavedMap) ([]byte, error) {
	if m.Nodes == nil {
		m.Nodes = []graph.Node{}
	}
	if m.Edges == nil {
		m.Edges = []graph.Edge{}
	}
	return json.Marshal(m)
}

// Decode parses and validates a stored entry. Any failure means the entry
// is corrupt.
func Decode(data []byte) (SavedMap, error) {
	var raw storedMap
	if err := json.Unmarshal(data, &raw); err != nil {
		return SavedMap{}, fmt.Errorf("unparseable entry: %w", err)
	}
	if err := utils.ValidateStruct(raw); err != nil {
		return SavedMap{}, err
	}
	if strings.TrimSpace(*raw.Name) == "" {
		return SavedMap{}, errors.New("name is empty")
	}

	m := SavedMap{
		Name:      *raw.Name,
		Nodes:     *raw.Nodes,
		Edges:     *raw.Edges,
		CreatedAt: int64(*raw.CreatedAt),
		Checksum:  raw.Checksum,
	}
	if raw.UpdatedAt != nil {
		m.UpdatedAt = int64(*raw.UpdatedAt)
	}
	if m.Checksum != "" && m.Checksum != Checksum(m.Nodes, m.Edges) {
		return SavedMap{}, errors.New("checksum mismatch")
	}
	return m, nil
}
