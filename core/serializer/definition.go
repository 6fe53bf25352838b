package serializer

import (
	"fmt"
	"strings"

	"github.com/artpar/blogapi/core/convention"
	"github.com/go-playground/validator/v10"
)

// Definition declares what a Serializer exposes for one model type.
// It is copied on construction and never mutated afterwards.
type Definition struct {
	// Name is the singular model name ("post", "categorization").
	Name string `yaml:"name" validate:"required"`

	// Type is the JSON:API resource type. Derived from Name when empty.
	Type string `yaml:"type,omitempty"`

	// Namespace is inserted between the domain and the resource type in
	// generated links ("admin" -> {domain}/admin/posts/7).
	Namespace string `yaml:"namespace,omitempty"`

	// Attributes lists model field names in emission order.
	Attributes []string `yaml:"attributes" validate:"unique,dive,required"`

	// HasOne lists to-one relation names in declaration order.
	HasOne []string `yaml:"has_one,omitempty" validate:"unique,dive,required"`

	// HasMany lists to-many relation names in declaration order.
	HasMany []string `yaml:"has_many,omitempty" validate:"unique,dive,required"`

	// Targets maps a relation name to the model name it points at when the
	// two differ ("author" -> "user").
	Targets map[string]string `yaml:"targets,omitempty" validate:"dive,keys,required,endkeys,required"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Normalize returns a validated copy of the definition with Type
// derived and Namespace trimmed of surrounding slashes.
func (d Definition) Normalize() (Definition, error) {
	out := d.clone()
	out.Name = strings.TrimSpace(out.Name)
	out.Type = strings.TrimSpace(out.Type)
	out.Namespace = strings.Trim(strings.TrimSpace(out.Namespace), "/")
	if out.Type == "" {
		out.Type = convention.ResourceType(out.Name)
	}

	if err := validate.Struct(out); err != nil {
		return Definition{}, fmt.Errorf("definition %q: %w", d.Name, err)
	}

	keys := make(map[string]string, len(out.Attributes))
	for _, name := range out.Attributes {
		key := convention.Dasherize(name)
		if key == "id" || key == "type" {
			return Definition{}, fmt.Errorf("definition %q: attribute %q is reserved", out.Name, name)
		}
		if prev, ok := keys[key]; ok {
			return Definition{}, fmt.Errorf("definition %q: attributes %q and %q both serialize as %q", out.Name, prev, name, key)
		}
		keys[key] = name
	}

	seen := make(map[string]bool, len(out.HasOne))
	for _, name := range out.HasOne {
		seen[name] = true
	}
	for _, name := range out.HasMany {
		if seen[name] {
			return Definition{}, fmt.Errorf("definition %q: relation %q declared as both has_one and has_many", out.Name, name)
		}
	}
	for rel := range out.Targets {
		if !seen[rel] && !contains(out.HasMany, rel) {
			return Definition{}, fmt.Errorf("definition %q: target for undeclared relation %q", out.Name, rel)
		}
	}

	return out, nil
}

func (d Definition) clone() Definition {
	out := d
	out.Attributes = cloneStrings(d.Attributes)
	out.HasOne = cloneStrings(d.HasOne)
	out.HasMany = cloneStrings(d.HasMany)
	if len(d.Targets) > 0 {
		out.Targets = make(map[string]string, len(d.Targets))
		for k, v := range d.Targets {
			out.Targets[strings.TrimSpace(k)] = strings.TrimSpace(v)
		}
	} else {
		out.Targets = nil
	}
	return out
}

// relationKind classifies a relation name against the definition.
func (d Definition) relationKind(name string) relationKind {
	if contains(d.HasOne, name) {
		return kindHasOne
	}
	if contains(d.HasMany, name) {
		return kindHasMany
	}
	return kindUnknown
}

// target returns the model name a relation points at.
func (d Definition) target(relation string) string {
	if t, ok := d.Targets[relation]; ok && t != "" {
		return t
	}
	return relation
}

type relationKind int

const (
	kindUnknown relationKind = iota
	kindHasOne
	kindHasMany
)

func contains(list []string, name string) bool {
	for _, v := range list {
		if v == name {
			return true
		}
	}
	return false
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(v)
	}
	return out
}
