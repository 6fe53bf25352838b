// Package blog provides the model-layer schema of the demo blog: resources,
// their columns and the relations between them. Everything here is a pure
// value type; stores in adapters/ interpret it.
package blog

import (
	"fmt"
	"strings"
	"unicode"
)

// Kind is the storage kind of a column.
type Kind string

const (
	KindText Kind = "text"
	KindInt  Kind = "int"
	KindBool Kind = "bool"
	KindTime Kind = "time"
)

// Column is one stored field. Name is the model field name (camelCase);
// the SQL column is ColumnName(Name).
type Column struct {
	Name string
	Kind Kind

	// Hidden columns are stored but never exposed as attributes.
	Hidden bool
}

// RelationKind describes how a relation is stored.
type RelationKind string

const (
	// BelongsTo: the owner row carries ForeignKey pointing at the target.
	BelongsTo RelationKind = "belongs_to"
	// HasOne: the target row carries ForeignKey pointing at the owner.
	HasOne RelationKind = "has_one"
	// HasMany: target rows carry ForeignKey pointing at the owner.
	HasMany RelationKind = "has_many"
	// ManyToMany: rows of Through join owner (ForeignKey) and target (TargetKey).
	ManyToMany RelationKind = "many_to_many"
)

// Relation is a named link from one resource to another.
type Relation struct {
	Name       string
	Kind       RelationKind
	Target     string
	ForeignKey string
	Through    string
	TargetKey  string
}

// ToOne reports whether the relation resolves to at most one row.
func (r Relation) ToOne() bool {
	return r.Kind == BelongsTo || r.Kind == HasOne
}

// Resource describes one model: its table, columns and relations.
type Resource struct {
	Name      string
	Table     string
	Columns   []Column
	Relations []Relation
}

// Column returns the named column.
func (r Resource) Column(name string) (Column, bool) {
	for _, c := range r.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// Relation returns the named relation.
func (r Resource) Relation(name string) (Relation, bool) {
	for _, rel := range r.Relations {
		if rel.Name == name {
			return rel, true
		}
	}
	return Relation{}, false
}

// Attributes returns the names of the visible columns in declaration order.
func (r Resource) Attributes() []string {
	var out []string
	for _, c := range r.Columns {
		if !c.Hidden {
			out = append(out, c.Name)
		}
	}
	return out
}

// Schema is an ordered set of resources.
type Schema struct {
	resources []Resource
}

// NewSchema builds a schema and validates that every relation points at a
// known resource through existing columns.
func NewSchema(resources ...Resource) (Schema, error) {
	s := Schema{resources: resources}
	if err := s.validate(); err != nil {
		return Schema{}, err
	}
	return s, nil
}

// Resources returns every resource in declaration order.
func (s Schema) Resources() []Resource {
	out := make([]Resource, len(s.resources))
	copy(out, s.resources)
	return out
}

// Resource finds a resource by model name ("post") or table name ("posts").
func (s Schema) Resource(name string) (Resource, bool) {
	for _, r := range s.resources {
		if r.Name == name || r.Table == name {
			return r, true
		}
	}
	return Resource{}, false
}

func (s Schema) validate() error {
	seen := make(map[string]bool, len(s.resources))
	for _, r := range s.resources {
		if r.Name == "" || r.Table == "" {
			return fmt.Errorf("resource %q: name and table are required", r.Name)
		}
		if seen[r.Name] {
			return fmt.Errorf("resource %q declared twice", r.Name)
		}
		seen[r.Name] = true
	}

	for _, r := range s.resources {
		for _, rel := range r.Relations {
			target, ok := s.Resource(rel.Target)
			if !ok {
				return fmt.Errorf("%s.%s: unknown target %q", r.Name, rel.Name, rel.Target)
			}
			switch rel.Kind {
			case BelongsTo:
				if _, ok := r.Column(rel.ForeignKey); !ok {
					return fmt.Errorf("%s.%s: missing foreign key %q", r.Name, rel.Name, rel.ForeignKey)
				}
			case HasOne, HasMany:
				if _, ok := target.Column(rel.ForeignKey); !ok {
					return fmt.Errorf("%s.%s: target %s missing foreign key %q", r.Name, rel.Name, target.Name, rel.ForeignKey)
				}
			case ManyToMany:
				through, ok := s.Resource(rel.Through)
				if !ok {
					return fmt.Errorf("%s.%s: unknown join resource %q", r.Name, rel.Name, rel.Through)
				}
				for _, key := range []string{rel.ForeignKey, rel.TargetKey} {
					if _, ok := through.Column(key); !ok {
						return fmt.Errorf("%s.%s: join %s missing key %q", r.Name, rel.Name, through.Name, key)
					}
				}
			default:
				return fmt.Errorf("%s.%s: unknown relation kind %q", r.Name, rel.Name, rel.Kind)
			}
		}
	}
	return nil
}

// ColumnName converts a field name to its SQL column name
// ("createdAt" -> "created_at").
func ColumnName(field string) string {
	var b strings.Builder
	for i, r := range field {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
