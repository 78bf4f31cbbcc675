package budget

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const treeJSON = `{
  "name": "Spending",
  "children": [
    {"name": "Retirement Benefits", "amount2024": 76.03, "amount2025": 83.1, "kind": "transfer"},
    {
      "name": "Transfers to Provinces",
      "link": "https://example.org/transfers",
      "children": [
        {"name": "Health Transfer to Provinces", "amount2024": 49.42, "amount2025": 54.7}
      ]
    },
    {"name": "Health Research", "amount2024": 1, "amount2025": 2, "capitalShare": 0.25},
    {"name": "Placeholder"}
  ]
}`

const treeYAML = `
name: Spending
children:
  - name: Retirement Benefits
    amount2024: 76.03
    amount2025: 83.1
    kind: transfer
  - name: Transfers to Provinces
    link: https://example.org/transfers
    children:
      - name: Health Transfer to Provinces
        amount2024: 49.42
        amount2025: 54.7
  - name: Health Research
    amount2024: 1
    amount2025: 2
    capitalShare: 0.25
  - name: Placeholder
`

func wantTree() Node {
	return Parent("Spending",
		Transfer("Retirement Benefits", 76.03, 83.1),
		ParentWithLink("Transfers to Provinces", "https://example.org/transfers",
			Leaf("Health Transfer to Provinces", 49.42, 54.7),
		),
		Leaf("Health Research", 1, 2, WithCapitalShare(0.25)),
		Node{Type: NodeEmpty, Name: "Placeholder"},
	)
}

func TestDecodeTree_JSONAndYAMLAgree(t *testing.T) {
	fromJSON, err := DecodeTree(strings.NewReader(treeJSON), FormatJSON)
	require.NoError(t, err)
	fromYAML, err := DecodeTree(strings.NewReader(treeYAML), FormatYAML)
	require.NoError(t, err)

	if diff := cmp.Diff(wantTree(), fromJSON); diff != "" {
		t.Errorf("json tree mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(fromJSON, fromYAML); diff != "" {
		t.Errorf("yaml tree differs from json (-json +yaml):\n%s", diff)
	}
}

func TestDecodeTree_RejectsAmbiguousNode(t *testing.T) {
	input := `{"name": "root", "children": [
		{"name": "both", "amount2024": 1, "amount2025": 2, "children": [{"name": "c", "amount2024": 1, "amount2025": 1}]}
	]}`

	_, err := DecodeTree(strings.NewReader(input), FormatJSON)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrAmbiguousNode), "got %v", err)
	assert.Contains(t, err.Error(), "root > both")

	yamlInput := "name: both\namount2024: 1\namount2025: 2\nchildren:\n  - name: c\n    amount: 1\n"
	_, err = DecodeTree(strings.NewReader(yamlInput), FormatYAML)
	assert.True(t, errors.Is(err, ErrAmbiguousNode), "got %v", err)
}

func TestDecodeTree_UnknownKind(t *testing.T) {
	_, err := DecodeTree(strings.NewReader(`{"name": "x", "amount2024": 1, "amount2025": 1, "kind": "grant"}`), FormatJSON)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "grant")
}

func TestDecodeTree_SingleAmountLeaf(t *testing.T) {
	n, err := DecodeTree(strings.NewReader(`{"name": "Toronto", "children": [{"name": "Transit", "amount": 2.5}]}`), FormatJSON)
	require.NoError(t, err)
	require.Len(t, n.Children, 1)

	leaf := n.Children[0]
	assert.Equal(t, NodeLeaf, leaf.Type)
	assert.Equal(t, 2.5, leaf.Amount2024)
	assert.Equal(t, 2.5, leaf.Amount2025)
}

func TestDecodeTree_PartialPairIsEmpty(t *testing.T) {
	n, err := DecodeTree(strings.NewReader(`{"name": "half", "amount2024": 3}`), FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, NodeEmpty, n.Type)
	assert.Equal(t, 0.0, Total(n, false))
}

func TestMarshalJSON_TransformedTree(t *testing.T) {
	out, _ := Transform(wantTree(), Reductions{CategoryHealth: 10})

	data, err := json.Marshal(out)
	require.NoError(t, err)

	var back Node
	require.NoError(t, json.Unmarshal(data, &back))
	if diff := cmp.Diff(out, back); diff != "" {
		t.Errorf("transformed tree changed through json (-want +got):\n%s", diff)
	}
	assert.Contains(t, string(data), `"kind":"transfer"`)
	assert.NotContains(t, string(data), `"kind":"program"`)
}

func TestLoadTree(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "spending.yaml")
	require.NoError(t, os.WriteFile(path, []byte(treeYAML), 0o600))

	n, err := LoadTree(path)
	require.NoError(t, err)
	assert.Equal(t, "Spending", n.Name)
	assert.Len(t, n.Children, 4)

	_, err = LoadTree(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}
