package formatter

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/artpar/blogapi/pkg/jsonapi"
	"gopkg.in/yaml.v3"
)

// YAMLFormatter formats output as YAML. Keys keep their JSON order.
type YAMLFormatter struct{}

// NewYAMLFormatter creates a new YAML formatter.
func NewYAMLFormatter() *YAMLFormatter {
	return &YAMLFormatter{}
}

// Name returns the formatter name.
func (f *YAMLFormatter) Name() string {
	return "yaml"
}

// Description returns the formatter description.
func (f *YAMLFormatter) Description() string {
	return "YAML rendering of the document"
}

// FormatDocument formats a document as YAML.
func (f *YAMLFormatter) FormatDocument(w io.Writer, doc jsonapi.Document, opts FormatOptions) error {
	return f.encode(w, doc)
}

// FormatError formats an error as YAML.
func (f *YAMLFormatter) FormatError(w io.Writer, err error) error {
	return f.encode(w, jsonapi.NewErrorDocument(jsonapi.ErrFromError(err)))
}

// encode goes through JSON so the document's MarshalJSON rules (null
// data, ordered relationships) hold, then re-reads it as a YAML node.
func (f *YAMLFormatter) encode(w io.Writer, data any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	var node yaml.Node
	if err := yaml.Unmarshal(raw, &node); err != nil {
		return err
	}
	blockStyle(&node)

	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	defer encoder.Close()
	return encoder.Encode(&node)
}

// blockStyle drops the flow and quoting styles that JSON input carries.
// The encoder still quotes strings that would otherwise read as another type.
func blockStyle(n *yaml.Node) {
	switch n.Kind {
	case yaml.MappingNode, yaml.SequenceNode:
		n.Style = 0
	case yaml.ScalarNode:
		if n.Tag == "!!str" {
			n.Style = 0
		}
	}
	for _, c := range n.Content {
		blockStyle(c)
	}
}

func init() {
	if err := Register(NewYAMLFormatter()); err != nil {
		fmt.Printf("failed to register yaml formatter: %v\n", err)
	}
}
