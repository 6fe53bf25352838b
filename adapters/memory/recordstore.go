// Package memory provides in-memory implementations of storage ports.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/artpar/blogapi/domain/blog"
	"github.com/artpar/blogapi/ports"
)

// ErrNotFound is returned when a record is not found.
var ErrNotFound = ports.ErrNotFound

// RecordStore is an in-memory implementation of ports.RecordStore.
type RecordStore struct {
	schema blog.Schema

	mu     sync.RWMutex
	rows   map[string]map[int64]blog.Row // model name -> id -> row
	nextID map[string]int64
}

// NewRecordStore creates an empty store for schema.
func NewRecordStore(schema blog.Schema) *RecordStore {
	s := &RecordStore{
		schema: schema,
		rows:   make(map[string]map[int64]blog.Row),
		nextID: make(map[string]int64),
	}
	for _, r := range schema.Resources() {
		s.rows[r.Name] = make(map[int64]blog.Row)
	}
	return s
}

// Schema returns the store's schema.
func (s *RecordStore) Schema() blog.Schema {
	return s.schema
}

// Get returns one row.
func (s *RecordStore) Get(ctx context.Context, resource string, id int64) (blog.Row, error) {
	res, err := s.resource(resource)
	if err != nil {
		return blog.Row{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	row, ok := s.rows[res.Name][id]
	if !ok {
		return blog.Row{}, ErrNotFound
	}
	return row.Clone(), nil
}

// List returns every row ordered by id.
func (s *RecordStore) List(ctx context.Context, resource string) ([]blog.Row, error) {
	res, err := s.resource(resource)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.where(res.Name, func(blog.Row) bool { return true }), nil
}

// Related resolves a relation of the row (resource, id).
func (s *RecordStore) Related(ctx context.Context, resource string, id int64, relation string) ([]blog.Row, error) {
	res, err := s.resource(resource)
	if err != nil {
		return nil, err
	}
	rel, ok := res.Relation(relation)
	if !ok {
		return nil, fmt.Errorf("%s: unknown relation %q", res.Name, relation)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	owner, ok := s.rows[res.Name][id]
	if !ok {
		return nil, ErrNotFound
	}

	switch rel.Kind {
	case blog.BelongsTo:
		fk, ok := owner.Int(rel.ForeignKey)
		if !ok {
			return []blog.Row{}, nil
		}
		target, ok := s.rows[rel.Target][fk]
		if !ok {
			return []blog.Row{}, nil
		}
		return []blog.Row{target.Clone()}, nil

	case blog.HasOne:
		rows := s.where(rel.Target, matchInt(rel.ForeignKey, id))
		if len(rows) > 1 {
			rows = rows[:1]
		}
		return rows, nil

	case blog.HasMany:
		return s.where(rel.Target, matchInt(rel.ForeignKey, id)), nil

	case blog.ManyToMany:
		joins := s.where(rel.Through, matchInt(rel.ForeignKey, id))
		out := make([]blog.Row, 0, len(joins))
		for _, j := range joins {
			tid, ok := j.Int(rel.TargetKey)
			if !ok {
				continue
			}
			if target, ok := s.rows[rel.Target][tid]; ok {
				out = append(out, target.Clone())
			}
		}
		return out, nil
	}
	return nil, fmt.Errorf("%s.%s: unsupported relation kind %q", res.Name, rel.Name, rel.Kind)
}

// Create inserts a row and assigns the next id. A positive "id" field is
// used as given.
func (s *RecordStore) Create(ctx context.Context, resource string, fields map[string]any) (blog.Row, error) {
	res, err := s.resource(resource)
	if err != nil {
		return blog.Row{}, err
	}

	row := blog.Row{Type: res.Name, Fields: make(map[string]any, len(res.Columns))}
	for name, v := range fields {
		if name == "id" {
			continue
		}
		col, ok := res.Column(name)
		if !ok {
			return blog.Row{}, fmt.Errorf("%s: unknown field %q", res.Name, name)
		}
		row.Fields[name] = blog.Normalize(col.Kind, v)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := blog.Normalize(blog.KindInt, fields["id"]).(int64); ok && id > 0 {
		if _, exists := s.rows[res.Name][id]; exists {
			return blog.Row{}, fmt.Errorf("%s %d already exists", res.Name, id)
		}
		row.ID = id
	} else {
		row.ID = s.nextID[res.Name] + 1
	}
	if row.ID > s.nextID[res.Name] {
		s.nextID[res.Name] = row.ID
	}

	s.rows[res.Name][row.ID] = row
	return row.Clone(), nil
}

func (s *RecordStore) resource(name string) (blog.Resource, error) {
	res, ok := s.schema.Resource(name)
	if !ok {
		return blog.Resource{}, fmt.Errorf("unknown resource %q", name)
	}
	return res, nil
}

// where returns matching rows of a model ordered by id. Callers hold mu.
func (s *RecordStore) where(model string, match func(blog.Row) bool) []blog.Row {
	out := []blog.Row{}
	for _, row := range s.rows[model] {
		if match(row) {
			out = append(out, row.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func matchInt(field string, want int64) func(blog.Row) bool {
	return func(r blog.Row) bool {
		v, ok := r.Int(field)
		return ok && v == want
	}
}

var _ ports.RecordStore = (*RecordStore)(nil)
