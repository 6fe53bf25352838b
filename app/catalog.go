// Package app wires stored rows to the serializer: records as models,
// the catalog of serializer definitions, and demo fixtures.
package app

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"strconv"

	"github.com/artpar/blogapi/core/serializer"
	"github.com/artpar/blogapi/domain/blog"
	"github.com/artpar/blogapi/pkg/jsonapi"
	"github.com/artpar/blogapi/ports"
	"github.com/rs/zerolog"
)

//go:embed definitions/*.yaml
var definitionsFS embed.FS

var (
	// ErrUnknownResource is returned for a resource type with no serializer.
	ErrUnknownResource = errors.New("unknown resource type")

	// ErrUnknownRelation is returned for a relation the serializer does not
	// declare.
	ErrUnknownRelation = errors.New("unknown relation")
)

// CatalogConfig configures every serializer in a catalog.
type CatalogConfig struct {
	// Namespace applies to definitions that do not set their own.
	Namespace      string
	IncludePrimary bool
	Concurrency    int
	SelfLinks      bool

	// DefinitionsDir holds YAML definitions that replace embedded ones
	// with the same name. Empty means embedded only.
	DefinitionsDir string
}

// Catalog holds one serializer per resource, checked against the store's
// schema, and answers document queries.
type Catalog struct {
	store    ports.RecordStore
	registry *serializer.Registry
	logger   zerolog.Logger
}

// NewCatalog loads definitions and builds the serializer registry.
func NewCatalog(store ports.RecordStore, cfg CatalogConfig, logger zerolog.Logger, observer serializer.Observer) (*Catalog, error) {
	defs, err := loadDefinitions(cfg.DefinitionsDir)
	if err != nil {
		return nil, err
	}

	reg := serializer.NewRegistry()
	opts := []serializer.Option{
		serializer.WithRegistry(reg),
		serializer.WithLogger(logger.With().Str("component", "serializer").Logger()),
		serializer.WithObserver(observer),
		serializer.WithConcurrency(cfg.Concurrency),
		serializer.WithSelfLinks(cfg.SelfLinks),
		serializer.WithIncludePrimary(cfg.IncludePrimary),
	}

	schema := store.Schema()
	for _, def := range defs {
		if def.Namespace == "" {
			def.Namespace = cfg.Namespace
		}
		if err := checkDefinition(schema, def); err != nil {
			return nil, err
		}
		s, err := serializer.New(def, opts...)
		if err != nil {
			return nil, err
		}
		if err := reg.Register(s); err != nil {
			return nil, err
		}
	}

	logger.Debug().Int("serializers", len(defs)).Msg("serializer catalog loaded")
	return &Catalog{store: store, registry: reg, logger: logger}, nil
}

func loadDefinitions(dir string) ([]serializer.Definition, error) {
	defs, err := serializer.ParseFS(definitionsFS, "definitions")
	if err != nil {
		return nil, fmt.Errorf("embedded definitions: %w", err)
	}
	if dir == "" {
		return defs, nil
	}

	overrides, err := serializer.ParseDir(dir)
	if err != nil {
		return nil, fmt.Errorf("definitions dir: %w", err)
	}
	index := make(map[string]int, len(defs))
	for i, d := range defs {
		index[d.Name] = i
	}
	for _, d := range overrides {
		if i, ok := index[d.Name]; ok {
			defs[i] = d
			continue
		}
		index[d.Name] = len(defs)
		defs = append(defs, d)
	}
	return defs, nil
}

// checkDefinition verifies a definition against the model schema: visible
// columns only, relations with matching cardinality.
func checkDefinition(schema blog.Schema, def serializer.Definition) error {
	res, ok := schema.Resource(def.Name)
	if !ok {
		return fmt.Errorf("definition %q: no such resource in schema", def.Name)
	}
	for _, attr := range def.Attributes {
		col, ok := res.Column(attr)
		if !ok || col.Hidden {
			return fmt.Errorf("definition %q: attribute %q is not a visible column", def.Name, attr)
		}
	}
	for _, name := range def.HasOne {
		if rel, ok := res.Relation(name); !ok || !rel.ToOne() {
			return fmt.Errorf("definition %q: %q is not a to-one relation", def.Name, name)
		}
	}
	for _, name := range def.HasMany {
		if rel, ok := res.Relation(name); !ok || rel.ToOne() {
			return fmt.Errorf("definition %q: %q is not a to-many relation", def.Name, name)
		}
	}
	return nil
}

// Registry returns the serializer registry.
func (c *Catalog) Registry() *serializer.Registry {
	return c.registry
}

// Store returns the underlying record store.
func (c *Catalog) Store() ports.RecordStore {
	return c.store
}

// Serializer returns the serializer for a resource type or model name.
func (c *Catalog) Serializer(resource string) (*serializer.Serializer, error) {
	s, ok := c.registry.Lookup(resource)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownResource, resource)
	}
	return s, nil
}

// Query selects what a document holds: a collection (ID empty), one
// record, or the records related to one record (Relation set).
type Query struct {
	Resource string
	ID       string
	Relation string
	Include  []string
	Domain   string
	Links    map[string]string
}

// Document loads the records selected by q and formats them.
func (c *Catalog) Document(ctx context.Context, q Query) (jsonapi.Document, error) {
	s, payload, err := c.load(ctx, q)
	if err != nil {
		return jsonapi.Document{}, err
	}
	return s.Format(ctx, serializer.Request{
		Data:    payload,
		Domain:  q.Domain,
		Include: q.Include,
		Links:   q.Links,
	})
}

func (c *Catalog) load(ctx context.Context, q Query) (*serializer.Serializer, serializer.Payload, error) {
	s, err := c.Serializer(q.Resource)
	if err != nil {
		return nil, serializer.Payload{}, err
	}
	if q.ID == "" {
		rows, err := c.store.List(ctx, s.Name())
		if err != nil {
			return nil, serializer.Payload{}, err
		}
		return s, serializer.Many(records(c.store, rows)...), nil
	}

	id, err := strconv.ParseInt(q.ID, 10, 64)
	if err != nil || id <= 0 {
		return nil, serializer.Payload{}, fmt.Errorf("%s %q: %w", s.Type(), q.ID, ports.ErrNotFound)
	}
	row, err := c.store.Get(ctx, s.Name(), id)
	if err != nil {
		return nil, serializer.Payload{}, err
	}
	if q.Relation == "" {
		return s, serializer.One(NewRecord(c.store, row)), nil
	}

	def := s.Definition()
	toOne := contains(def.HasOne, q.Relation)
	if !toOne && !contains(def.HasMany, q.Relation) {
		return nil, serializer.Payload{}, fmt.Errorf("%w: %s.%s", ErrUnknownRelation, s.Type(), q.Relation)
	}
	res, _ := c.store.Schema().Resource(s.Name())
	rel, _ := res.Relation(q.Relation)
	target, err := c.Serializer(rel.Target)
	if err != nil {
		return nil, serializer.Payload{}, err
	}

	rec := NewRecord(c.store, row)
	if toOne {
		m, err := rec.HasOne(ctx, q.Relation)
		if err != nil {
			return nil, serializer.Payload{}, err
		}
		return target, serializer.One(m), nil
	}
	ms, err := rec.HasMany(ctx, q.Relation)
	if err != nil {
		return nil, serializer.Payload{}, err
	}
	return target, serializer.Many(ms...), nil
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
