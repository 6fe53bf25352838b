package app

import (
	"context"
	"fmt"

	"github.com/artpar/blogapi/core/serializer"
	"github.com/artpar/blogapi/domain/blog"
	"github.com/artpar/blogapi/ports"
)

// Record exposes a stored row to the serializer. Relations are loaded from
// the store on demand; nothing is cached between calls.
type Record struct {
	store ports.RecordStore
	row   blog.Row
}

// NewRecord wraps row.
func NewRecord(store ports.RecordStore, row blog.Row) *Record {
	return &Record{store: store, row: row}
}

// Row returns the wrapped row.
func (r *Record) Row() blog.Row {
	return r.row
}

// PrimaryKey returns the row id. Unsaved rows have no key.
func (r *Record) PrimaryKey(ctx context.Context) (any, error) {
	if r.row.ID <= 0 {
		return nil, fmt.Errorf("%s has no id", r.row.Type)
	}
	return r.row.ID, nil
}

// Attributes returns the named visible columns. Hidden columns are never
// returned.
func (r *Record) Attributes(ctx context.Context, names []string) (map[string]any, error) {
	res, ok := r.store.Schema().Resource(r.row.Type)
	if !ok {
		return nil, fmt.Errorf("unknown resource %q", r.row.Type)
	}
	out := make(map[string]any, len(names))
	for _, name := range names {
		col, ok := res.Column(name)
		if !ok || col.Hidden {
			continue
		}
		out[name] = r.row.Fields[name]
	}
	return out, nil
}

// HasOne loads a to-one relation.
func (r *Record) HasOne(ctx context.Context, relation string) (serializer.Model, error) {
	if err := r.checkRelation(relation, true); err != nil {
		return nil, err
	}
	rows, err := r.store.Related(ctx, r.row.Type, r.row.ID, relation)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return NewRecord(r.store, rows[0]), nil
}

// HasMany loads a to-many relation.
func (r *Record) HasMany(ctx context.Context, relation string) ([]serializer.Model, error) {
	if err := r.checkRelation(relation, false); err != nil {
		return nil, err
	}
	rows, err := r.store.Related(ctx, r.row.Type, r.row.ID, relation)
	if err != nil {
		return nil, err
	}
	return records(r.store, rows), nil
}

func (r *Record) checkRelation(relation string, toOne bool) error {
	res, ok := r.store.Schema().Resource(r.row.Type)
	if !ok {
		return fmt.Errorf("unknown resource %q", r.row.Type)
	}
	rel, ok := res.Relation(relation)
	if !ok {
		return fmt.Errorf("%s: unknown relation %q", res.Name, relation)
	}
	if rel.ToOne() != toOne {
		return fmt.Errorf("%s.%s: cardinality mismatch", res.Name, relation)
	}
	return nil
}

func records(store ports.RecordStore, rows []blog.Row) []serializer.Model {
	out := make([]serializer.Model, len(rows))
	for i, row := range rows {
		out[i] = NewRecord(store, row)
	}
	return out
}

var _ serializer.Model = (*Record)(nil)
