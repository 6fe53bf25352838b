package serializer

import "context"

// Model is the capability surface a record exposes to a Serializer.
// Every method may block on I/O and must honor ctx. Relations of one record,
// and records sharing a related handle, are resolved from concurrent
// goroutines, so implementations must be safe for concurrent use.
type Model interface {
	// PrimaryKey returns the record's primary key. A nil key is treated
	// the same as an error: the record cannot be serialized.
	PrimaryKey(ctx context.Context) (any, error)

	// Attributes returns a snapshot of the named fields. Names absent from
	// the returned map serialize as null.
	Attributes(ctx context.Context, names []string) (map[string]any, error)

	// HasOne resolves a to-one relation. A missing related record is
	// reported as (nil, nil).
	HasOne(ctx context.Context, relation string) (Model, error)

	// HasMany resolves a to-many relation in its natural order.
	HasMany(ctx context.Context, relation string) ([]Model, error)
}

// Payload is the primary data handed to Format: a single record or an
// ordered collection. The document's data member mirrors its shape.
type Payload struct {
	records    []Model
	collection bool
}

// One wraps a single record. A nil record produces "data": null.
func One(m Model) Payload {
	if m == nil {
		return Payload{}
	}
	return Payload{records: []Model{m}}
}

// Many wraps an ordered collection. An empty collection produces "data": [].
func Many(ms ...Model) Payload {
	records := make([]Model, len(ms))
	copy(records, ms)
	return Payload{records: records, collection: true}
}

// IsCollection reports whether the payload was built with Many.
func (p Payload) IsCollection() bool {
	return p.collection
}

// Records returns the wrapped records in order.
func (p Payload) Records() []Model {
	return p.records
}
