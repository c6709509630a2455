package savedmaps

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/adriaan-vdb/map-my-mind-WebApp/domain/graph"
	apperrors "github.com/adriaan-vdb/map-my-mind-WebApp/pkg/errors"
)

// Format is a file interchange format.
type Format string

const (
	FormatJSON Format = "json"
	FormatXML  Format = "xml"
)

// ParseFormat accepts "json" or "xml" in any case.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatJSON, "":
		return FormatJSON, nil
	case FormatXML:
		return FormatXML, nil
	}
	return "", apperrors.NewValidationError(fmt.Sprintf("unsupported format %q", s))
}

type xmlMap struct {
	XMLName   xml.Name     `xml:"mindmap"`
	Name      string       `xml:"name,attr"`
	CreatedAt int64        `xml:"createdAt,attr"`
	UpdatedAt int64        `xml:"updatedAt,attr,omitempty"`
	Nodes     []graph.Node `xml:"nodes>node"`
	Edges     []graph.Edge `xml:"edges>edge"`
}

// Export writes the map called name to w.
func (r *Repository) Export(ctx context.Context, name string, w io.Writer, format Format) error {
	m, found, err := r.Get(ctx, name)
	if err != nil {
		return err
	}
	if !found {
		return apperrors.NewNotFoundError(fmt.Sprintf("map '%s'", name))
	}
	return WriteMap(w, m, format)
}

// WriteMap encodes m in format.
func WriteMap(w io.Writer, m SavedMap, format Format) error {
	switch format {
	case FormatXML:
		if _, err := io.WriteString(w, xml.Header); err != nil {
			return err
		}
		enc := xml.NewEncoder(w)
		enc.Indent("", "  ")
		return enc.Encode(xmlMap{
			Name:      m.Name,
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
			Nodes:     m.Nodes,
			Edges:     m.Edges,
		})
	default:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(m)
	}
}

// ReadMap decodes a map previously written by WriteMap.
func ReadMap(rd io.Reader, format Format) (SavedMap, error) {
	switch format {
	case FormatXML:
		var x xmlMap
		if err := xml.NewDecoder(rd).Decode(&x); err != nil {
			return SavedMap{}, apperrors.NewValidationError("invalid XML map").WithCause(err)
		}
		return SavedMap{Name: x.Name, CreatedAt: x.CreatedAt, UpdatedAt: x.UpdatedAt, Nodes: x.Nodes, Edges: x.Edges}, nil
	default:
		data, err := io.ReadAll(rd)
		if err != nil {
			return SavedMap{}, err
		}
		m, err := Decode(data)
		if err != nil {
			return SavedMap{}, apperrors.NewValidationError("invalid JSON map").WithCause(err)
		}
		return m, nil
	}
}

// Import reads a map from rd and stores it. A non-empty name overrides the
// name inside the file.
func (r *Repository) Import(ctx context.Context, rd io.Reader, format Format, name string) (SavedMap, error) {
	m, err := ReadMap(rd, format)
	if err != nil {
		return SavedMap{}, err
	}
	if name != "" {
		m.Name = name
	}

	return r.Put(ctx, m)
}
