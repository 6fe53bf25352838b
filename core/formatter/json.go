package formatter

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/artpar/blogapi/pkg/jsonapi"
)

// JSONFormatter writes the document exactly as it is served.
type JSONFormatter struct{}

// NewJSONFormatter creates a new JSON formatter.
func NewJSONFormatter() *JSONFormatter {
	return &JSONFormatter{}
}

// Name returns the formatter name.
func (f *JSONFormatter) Name() string {
	return "json"
}

// Description returns the formatter description.
func (f *JSONFormatter) Description() string {
	return "JSON:API document"
}

// FormatDocument formats a document as JSON.
func (f *JSONFormatter) FormatDocument(w io.Writer, doc jsonapi.Document, opts FormatOptions) error {
	return f.encode(w, doc, opts.Compact)
}

// FormatError formats an error as a JSON:API error document.
func (f *JSONFormatter) FormatError(w io.Writer, err error) error {
	return f.encode(w, jsonapi.NewErrorDocument(jsonapi.ErrFromError(err)), false)
}

// encode writes JSON to the writer.
func (f *JSONFormatter) encode(w io.Writer, data any, compact bool) error {
	encoder := json.NewEncoder(w)
	if !compact {
		encoder.SetIndent("", "  ")
	}
	return encoder.Encode(data)
}

func init() {
	if err := Register(NewJSONFormatter()); err != nil {
		fmt.Printf("failed to register json formatter: %v\n", err)
	}
}
