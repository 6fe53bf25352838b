package serializer

import (
	"fmt"
	"sync"

	"github.com/artpar/blogapi/core/convention"
)

// Registry maps model names, aliases and resource types to the serializer
// responsible for them. Nested serializers for relation targets are looked
// up here instead of being hard-wired into definitions.
type Registry struct {
	mu     sync.RWMutex
	byName map[string]*Serializer
	byType map[string]*Serializer
	order  []*Serializer
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byName: make(map[string]*Serializer),
		byType: make(map[string]*Serializer),
	}
}

// Register adds s under its model name, its resource type and any extra
// aliases. Registering a second serializer for the same type fails.
func (r *Registry) Register(s *Serializer, aliases ...string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byType[s.def.Type]; exists {
		return fmt.Errorf("serializer for type %q already registered", s.def.Type)
	}
	names := append([]string{s.def.Name}, aliases...)
	for _, name := range names {
		if other, exists := r.byName[name]; exists && other != s {
			return fmt.Errorf("serializer name %q already registered for type %q", name, other.def.Type)
		}
	}

	r.byType[s.def.Type] = s
	for _, name := range names {
		r.byName[name] = s
	}
	r.order = append(r.order, s)
	return nil
}

// Lookup finds a serializer by model name, alias or resource type. A plural
// relation name ("tags") falls back to its singular model name.
func (r *Registry) Lookup(name string) (*Serializer, bool) {
	if r == nil {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	if s, ok := r.byName[name]; ok {
		return s, true
	}
	if s, ok := r.byType[name]; ok {
		return s, true
	}
	if s, ok := r.byName[convention.Singularize(name)]; ok {
		return s, true
	}
	if s, ok := r.byType[convention.ResourceType(name)]; ok {
		return s, true
	}
	return nil, false
}

// All returns the registered serializers in registration order.
func (r *Registry) All() []*Serializer {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Serializer, len(r.order))
	copy(out, r.order)
	return out
}
