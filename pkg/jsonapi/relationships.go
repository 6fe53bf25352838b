package jsonapi

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Relationships is the "relationships" member of a resource object.
// Members are emitted in the order they were first set.
type Relationships struct {
	names []string
	rels  map[string]Relationship
}

// NewRelationships creates an empty relationships member.
func NewRelationships() *Relationships {
	return &Relationships{rels: make(map[string]Relationship)}
}

// Set adds or replaces a relationship. Replacing keeps the original position.
func (r *Relationships) Set(name string, rel Relationship) {
	if r.rels == nil {
		r.rels = make(map[string]Relationship)
	}
	if _, exists := r.rels[name]; !exists {
		r.names = append(r.names, name)
	}
	r.rels[name] = rel
}

// Get returns the named relationship.
func (r *Relationships) Get(name string) (Relationship, bool) {
	if r == nil {
		return Relationship{}, false
	}
	rel, ok := r.rels[name]
	return rel, ok
}

// Names returns relationship names in emission order.
func (r *Relationships) Names() []string {
	if r == nil {
		return nil
	}
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

// Len returns the number of relationships.
func (r *Relationships) Len() int {
	if r == nil {
		return 0
	}
	return len(r.names)
}

// MarshalJSON writes the relationships as a JSON object in insertion order.
func (r *Relationships) MarshalJSON() ([]byte, error) {
	if r == nil {
		return []byte("null"), nil
	}

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range r.names {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(r.rels[name])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a relationships object, preserving member order.
func (r *Relationships) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("jsonapi: relationships must be an object, got %v", tok)
	}

	*r = Relationships{rels: make(map[string]Relationship)}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name, _ := tok.(string)

		var raw struct {
			Data  json.RawMessage `json:"data"`
			Links Links           `json:"links,omitempty"`
			Meta  Meta            `json:"meta,omitempty"`
		}
		if err := dec.Decode(&raw); err != nil {
			return err
		}

		rel := Relationship{Links: raw.Links, Meta: raw.Meta}
		switch trimmed := bytes.TrimSpace(raw.Data); {
		case len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")):
			rel.Data = nil
		case trimmed[0] == '[':
			var ids []ResourceIdentifier
			if err := json.Unmarshal(trimmed, &ids); err != nil {
				return err
			}
			if ids == nil {
				ids = []ResourceIdentifier{}
			}
			rel.Data = ids
		default:
			var id ResourceIdentifier
			if err := json.Unmarshal(trimmed, &id); err != nil {
				return err
			}
			rel.Data = &id
		}
		r.Set(name, rel)
	}

	_, err = dec.Token()
	return err
}
