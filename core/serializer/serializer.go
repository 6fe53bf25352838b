package serializer

import (
	"strings"

	"github.com/artpar/blogapi/core/convention"
)

// Serializer formats records of one model type. It is safe for concurrent
// use; all per-call state lives on the stack of Format.
type Serializer struct {
	def  Definition
	opts options
}

// New validates def and builds a serializer for it.
func New(def Definition, opts ...Option) (*Serializer, error) {
	nd, err := def.Normalize()
	if err != nil {
		return nil, err
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Serializer{def: nd, opts: o}, nil
}

// Definition returns a copy of the serializer's definition.
func (s *Serializer) Definition() Definition {
	return s.def.clone()
}

// Type returns the JSON:API resource type.
func (s *Serializer) Type() string {
	return s.def.Type
}

// Name returns the singular model name.
func (s *Serializer) Name() string {
	return s.def.Name
}

// Namespace returns the link namespace, without surrounding slashes.
func (s *Serializer) Namespace() string {
	return s.def.Namespace
}

// related returns the serializer for a relation's target. When none is
// registered a bare serializer is used that emits type and id only.
func (s *Serializer) related(relation string) *Serializer {
	target := s.def.target(relation)
	if rs, ok := s.opts.registry.Lookup(target); ok {
		return rs
	}
	name := convention.Singularize(target)
	return &Serializer{
		def: Definition{
			Name:      name,
			Type:      convention.ResourceType(name),
			Namespace: s.def.Namespace,
		},
		opts: s.opts,
	}
}

// link builds {domain}/{namespace/}{type}/{id} using this serializer's
// namespace.
func (s *Serializer) link(domain, resourceType, id string) string {
	var b strings.Builder
	b.WriteString(domain)
	b.WriteByte('/')
	if s.def.Namespace != "" {
		b.WriteString(s.def.Namespace)
		b.WriteByte('/')
	}
	b.WriteString(resourceType)
	b.WriteByte('/')
	b.WriteString(id)
	return b.String()
}

func trimDomain(domain string) string {
	return strings.TrimRight(strings.TrimSpace(domain), "/")
}
