package jsonapi

import "encoding/json"

// DocumentBuilder provides a fluent API for building Document objects.
type DocumentBuilder struct {
	doc Document
}

// NewDocument creates a new DocumentBuilder.
func NewDocument() *DocumentBuilder {
	return &DocumentBuilder{
		doc: Document{},
	}
}

// Data sets the primary data of the document.
// Can be a Resource, []Resource, ResourceIdentifier, []ResourceIdentifier, or nil.
func (b *DocumentBuilder) Data(data any) *DocumentBuilder {
	if data == nil {
		return b.DataNull()
	}
	b.doc.Data = data
	b.doc.nullData = false
	return b
}

// DataResource sets a single resource as the primary data.
func (b *DocumentBuilder) DataResource(r Resource) *DocumentBuilder {
	return b.Data(r)
}

// DataCollection sets a collection of resources as the primary data.
// A nil slice is emitted as an empty array.
func (b *DocumentBuilder) DataCollection(resources []Resource) *DocumentBuilder {
	if resources == nil {
		resources = []Resource{}
	}
	return b.Data(resources)
}

// DataNull sets the primary data to null (for empty to-one relationships).
func (b *DocumentBuilder) DataNull() *DocumentBuilder {
	b.doc.Data = nil
	b.doc.nullData = true
	return b
}

// Errors sets the errors array. This is mutually exclusive with Data.
func (b *DocumentBuilder) Errors(errors ...Error) *DocumentBuilder {
	b.doc.Errors = errors
	b.doc.Data = nil // Errors and Data are mutually exclusive
	b.doc.nullData = false
	return b
}

// Links sets the top-level links. The map is copied verbatim.
func (b *DocumentBuilder) Links(links map[string]string) *DocumentBuilder {
	if len(links) == 0 {
		b.doc.Links = nil
		return b
	}
	b.doc.Links = make(Links, len(links))
	for k, v := range links {
		b.doc.Links[k] = v
	}
	return b
}

// Include adds resources to the included section for compound documents.
func (b *DocumentBuilder) Include(resources ...Resource) *DocumentBuilder {
	b.doc.Included = append(b.doc.Included, resources...)
	return b
}

// JSONAPI sets the JSON:API version object.
func (b *DocumentBuilder) JSONAPI() *DocumentBuilder {
	b.doc.JSONAPI = &JSONAPI{Version: Version}
	return b
}

// Build returns the constructed Document.
func (b *DocumentBuilder) Build() Document {
	return b.doc
}

// HasNullData reports whether the primary data is an explicit null.
func (d Document) HasNullData() bool {
	return d.nullData && d.Data == nil
}

// MarshalJSON emits "data": null for documents built with DataNull, which a
// plain omitempty field cannot express.
func (d Document) MarshalJSON() ([]byte, error) {
	type document Document
	if !d.HasNullData() {
		return json.Marshal(document(d))
	}
	return json.Marshal(struct {
		Data json.RawMessage `json:"data"`
		document
	}{
		Data:     json.RawMessage("null"),
		document: document(d),
	})
}

// NewErrorDocument is a convenience function for creating an error document.
func NewErrorDocument(errors ...Error) Document {
	return NewDocument().Errors(errors...).JSONAPI().Build()
}
