package jsonapi

// ResourceBuilder provides a fluent API for building Resource objects.
type ResourceBuilder struct {
	resource Resource
}

// NewResource creates a new ResourceBuilder with the given type and ID.
func NewResource(resourceType, id string) *ResourceBuilder {
	return &ResourceBuilder{
		resource: Resource{
			Type:       resourceType,
			ID:         id,
			Attributes: make(map[string]any),
		},
	}
}

// Attr adds an attribute to the resource.
func (b *ResourceBuilder) Attr(key string, value any) *ResourceBuilder {
	if b.resource.Attributes == nil {
		b.resource.Attributes = make(map[string]any)
	}
	b.resource.Attributes[key] = value
	return b
}

// Attrs adds multiple attributes to the resource.
func (b *ResourceBuilder) Attrs(attrs map[string]any) *ResourceBuilder {
	for k, v := range attrs {
		// Skip id and type as they're top-level fields
		if k == "id" || k == "type" {
			continue
		}
		b.Attr(k, v)
	}
	return b
}

// Relationship adds a relationship to the resource.
func (b *ResourceBuilder) Relationship(name string, rel Relationship) *ResourceBuilder {
	if b.resource.Relationships == nil {
		b.resource.Relationships = NewRelationships()
	}
	b.resource.Relationships.Set(name, rel)
	return b
}

// BelongsTo adds a to-one relationship. An empty relID produces
// {"data": null} with no links.
func (b *ResourceBuilder) BelongsTo(name, relType, relID, self string) *ResourceBuilder {
	if relID == "" {
		return b.Relationship(name, Relationship{Data: nil})
	}
	rel := Relationship{Data: &ResourceIdentifier{Type: relType, ID: relID}}
	if self != "" {
		rel.Links = Links{"self": self}
	}
	return b.Relationship(name, rel)
}

// HasMany adds a to-many relationship. Data is always an array.
func (b *ResourceBuilder) HasMany(name string, identifiers []ResourceIdentifier) *ResourceBuilder {
	if identifiers == nil {
		identifiers = []ResourceIdentifier{}
	}
	return b.Relationship(name, Relationship{
		Data: identifiers,
	})
}

// HasManyIDs is a convenience method for adding a to-many relationship with just IDs.
func (b *ResourceBuilder) HasManyIDs(name, relType string, ids []string) *ResourceBuilder {
	identifiers := make([]ResourceIdentifier, len(ids))
	for i, id := range ids {
		identifiers[i] = ResourceIdentifier{Type: relType, ID: id}
	}
	return b.HasMany(name, identifiers)
}

// Meta adds metadata to the resource.
func (b *ResourceBuilder) Meta(key string, value any) *ResourceBuilder {
	if b.resource.Meta == nil {
		b.resource.Meta = make(Meta)
	}
	b.resource.Meta[key] = value
	return b
}

// Link sets the self link for the resource.
func (b *ResourceBuilder) Link(self string) *ResourceBuilder {
	if self == "" {
		return b
	}
	if b.resource.Links == nil {
		b.resource.Links = make(Links)
	}
	b.resource.Links["self"] = self
	return b
}

// Build returns the constructed Resource.
func (b *ResourceBuilder) Build() Resource {
	return b.resource
}

// Identifier returns the resource linkage for r.
func (r Resource) Identifier() ResourceIdentifier {
	return ResourceIdentifier{Type: r.Type, ID: r.ID}
}

// Key returns the (type, id) pair that identifies r.
func (r Resource) Key() Key {
	return Key{Type: r.Type, ID: r.ID}
}
