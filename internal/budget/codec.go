package budget

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrAmbiguousNode is returned when a node carries both an amount pair and children.
var ErrAmbiguousNode = errors.New("node has both amounts and children")

// Format selects the encoding of an authored budget tree.
type Format string

// Supported tree formats.
const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatForPath picks a format from a file extension, defaulting to JSON.
func FormatForPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	}
	return FormatJSON
}

// wireNode is the authored shape of a node. The variant is decided by which
// fields are present.
type wireNode struct {
	Name         string     `json:"name" yaml:"name"`
	Link         string     `json:"link,omitempty" yaml:"link,omitempty"`
	Amount       *float64   `json:"amount,omitempty" yaml:"amount,omitempty"`
	Amount2024   *float64   `json:"amount2024,omitempty" yaml:"amount2024,omitempty"`
	Amount2025   *float64   `json:"amount2025,omitempty" yaml:"amount2025,omitempty"`
	Kind         string     `json:"kind,omitempty" yaml:"kind,omitempty"`
	CapitalShare *float64   `json:"capitalShare,omitempty" yaml:"capitalShare,omitempty"`
	Children     []wireNode `json:"children,omitempty" yaml:"children,omitempty"`
}

func fromWire(w wireNode, path string) (Node, error) {
	path = joinPath(path, w.Name)
	hasPair := w.Amount2024 != nil && w.Amount2025 != nil
	hasChildren := len(w.Children) > 0

	switch {
	case hasPair && hasChildren:
		return Node{}, fmt.Errorf("%s: %w", path, ErrAmbiguousNode)

	case hasPair:
		kind, err := ParseKind(w.Kind)
		if err != nil {
			return Node{}, fmt.Errorf("%s: %w", path, err)
		}
		n := Node{
			Type:       NodeLeaf,
			Name:       w.Name,
			Link:       w.Link,
			Amount2024: *w.Amount2024,
			Amount2025: *w.Amount2025,
			Kind:       kind,
		}
		if w.CapitalShare != nil {
			n.CapitalShare = *w.CapitalShare
		}
		if w.Amount != nil {
			n.Amount = *w.Amount
		}
		return n, nil

	case hasChildren:
		n := Node{Type: NodeParent, Name: w.Name, Link: w.Link}
		n.Children = make([]Node, 0, len(w.Children))
		for _, wc := range w.Children {
			c, err := fromWire(wc, path)
			if err != nil {
				return Node{}, err
			}
			n.Children = append(n.Children, c)
		}
		if w.Amount != nil {
			n.Amount = *w.Amount
		}
		return n, nil

	case w.Amount != nil:
		// Single-amount leaves, as published in sankey data, count in both years.
		kind, err := ParseKind(w.Kind)
		if err != nil {
			return Node{}, fmt.Errorf("%s: %w", path, err)
		}
		return Node{
			Type:       NodeLeaf,
			Name:       w.Name,
			Link:       w.Link,
			Amount:     *w.Amount,
			Amount2024: *w.Amount,
			Amount2025: *w.Amount,
			Kind:       kind,
		}, nil
	}

	return Node{Type: NodeEmpty, Name: w.Name, Link: w.Link}, nil
}

func joinPath(parent, name string) string {
	if parent == "" {
		return name
	}
	return parent + " > " + name
}

func toWire(n Node) wireNode {
	w := wireNode{Name: n.Name, Link: n.Link}
	switch n.Type {
	case NodeLeaf:
		a24, a25, amt := n.Amount2024, n.Amount2025, n.Amount
		w.Amount2024 = &a24
		w.Amount2025 = &a25
		w.Amount = &amt
		if n.Kind != "" && n.Kind != KindProgram {
			w.Kind = string(n.Kind)
		}
		if n.CapitalShare != 0 {
			share := n.CapitalShare
			w.CapitalShare = &share
		}
	case NodeParent:
		w.Children = make([]wireNode, len(n.Children))
		for i, c := range n.Children {
			w.Children[i] = toWire(c)
		}
	}
	return w
}

// MarshalJSON encodes n in its authored shape, with the display amount on leaves.
func (n Node) MarshalJSON() ([]byte, error) {
	return json.Marshal(toWire(n))
}

// UnmarshalJSON decodes an authored node, rejecting ambiguous nodes.
func (n *Node) UnmarshalJSON(data []byte) error {
	var w wireNode
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	decoded, err := fromWire(w, "")
	if err != nil {
		return err
	}
	*n = decoded
	return nil
}

// MarshalYAML encodes n in its authored shape.
func (n Node) MarshalYAML() (any, error) {
	return toWire(n), nil
}

// UnmarshalYAML decodes an authored node, rejecting ambiguous nodes.
func (n *Node) UnmarshalYAML(value *yaml.Node) error {
	var w wireNode
	if err := value.Decode(&w); err != nil {
		return err
	}
	decoded, err := fromWire(w, "")
	if err != nil {
		return err
	}
	*n = decoded
	return nil
}

// DecodeTree reads a budget tree in the given format.
func DecodeTree(r io.Reader, format Format) (Node, error) {
	var n Node
	switch format {
	case FormatYAML:
		if err := yaml.NewDecoder(r).Decode(&n); err != nil {
			return Node{}, fmt.Errorf("decoding yaml tree: %w", err)
		}
	default:
		if err := json.NewDecoder(r).Decode(&n); err != nil {
			return Node{}, fmt.Errorf("decoding json tree: %w", err)
		}
	}
	return n, nil
}

// LoadTree reads a budget tree file, choosing the format by extension.
func LoadTree(path string) (Node, error) {
	f, err := os.Open(path)
	if err != nil {
		return Node{}, fmt.Errorf("opening tree: %w", err)
	}
	defer f.Close()

	return DecodeTree(f, FormatForPath(path))
}
