package serializer

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/artpar/blogapi/core/convention"
	"github.com/artpar/blogapi/pkg/jsonapi"
	"golang.org/x/sync/errgroup"
)

// record is a formatted resource together with the related records resolved
// while building its linkage. The inclusion walk reuses them instead of
// resolving each relation a second time.
type record struct {
	resource jsonapi.Resource
	related  map[string][]Model
}

// Resource formats a single record into a resource object.
func (s *Serializer) Resource(ctx context.Context, m Model, domain string) (jsonapi.Resource, error) {
	rec, err := s.format(ctx, m, trimDomain(domain))
	if err != nil {
		return jsonapi.Resource{}, err
	}
	return rec.resource, nil
}

// Resources formats records into resource objects, preserving order.
func (s *Serializer) Resources(ctx context.Context, ms []Model, domain string) ([]jsonapi.Resource, error) {
	recs, err := s.formatAll(ctx, ms, trimDomain(domain))
	if err != nil {
		return nil, err
	}
	out := make([]jsonapi.Resource, len(recs))
	for i, rec := range recs {
		out[i] = rec.resource
	}
	return out, nil
}

// formatAll formats ms concurrently. Results are written back by index.
func (s *Serializer) formatAll(ctx context.Context, ms []Model, domain string) ([]record, error) {
	out := make([]record, len(ms))
	g, gctx := errgroup.WithContext(ctx)
	if s.opts.concurrency > 0 {
		g.SetLimit(s.opts.concurrency)
	}
	for i, m := range ms {
		g.Go(func() error {
			rec, err := s.format(gctx, m, domain)
			if err != nil {
				return err
			}
			out[i] = rec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Serializer) format(ctx context.Context, m Model, domain string) (record, error) {
	if err := ctx.Err(); err != nil {
		return record{}, err
	}
	id, err := s.primaryKey(ctx, m)
	if err != nil {
		return record{}, err
	}

	values, err := m.Attributes(ctx, s.def.Attributes)
	if err != nil {
		return record{}, fmt.Errorf("%s %s: read attributes: %w", s.def.Type, id, err)
	}

	attrs := make(map[string]any, len(s.def.Attributes))
	for _, name := range s.def.Attributes {
		attrs[convention.Dasherize(name)] = values[name]
	}
	b := jsonapi.NewResource(s.def.Type, id).Attrs(attrs)

	related, err := s.relationships(ctx, b, m, id, domain)
	if err != nil {
		return record{}, err
	}

	if s.opts.selfLinks {
		b.Link(s.link(domain, s.def.Type, id))
	}
	return record{resource: b.Build(), related: related}, nil
}

// relationships resolves every declared relation concurrently and sets them
// on b in declaration order: has-one first, then has-many.
func (s *Serializer) relationships(ctx context.Context, b *jsonapi.ResourceBuilder, m Model, id, domain string) (map[string][]Model, error) {
	names := make([]string, 0, len(s.def.HasOne)+len(s.def.HasMany))
	names = append(names, s.def.HasOne...)
	names = append(names, s.def.HasMany...)
	if len(names) == 0 {
		return nil, nil
	}

	type slot struct {
		models []Model
		ids    []string
	}
	slots := make([]slot, len(names))

	g, gctx := errgroup.WithContext(ctx)
	if s.opts.concurrency > 0 {
		g.SetLimit(s.opts.concurrency)
	}
	for i, name := range names {
		hasOne := i < len(s.def.HasOne)
		g.Go(func() error {
			target := s.related(name)
			models, err := s.resolve(gctx, m, id, name, hasOne)
			if err != nil {
				return err
			}
			ids := make([]string, len(models))
			for j, rm := range models {
				rid, err := target.primaryKey(gctx, rm)
				if err != nil {
					return err
				}
				ids[j] = rid
			}
			slots[i] = slot{models: models, ids: ids}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	related := make(map[string][]Model, len(names))
	for i, name := range names {
		target := s.related(name)
		related[name] = slots[i].models
		if i < len(s.def.HasOne) {
			var rid, self string
			if len(slots[i].ids) > 0 {
				rid = slots[i].ids[0]
				self = s.link(domain, target.def.Type, rid)
			}
			b.BelongsTo(name, target.def.Type, rid, self)
			continue
		}
		b.HasManyIDs(name, target.def.Type, slots[i].ids)
	}
	return related, nil
}

// resolve runs one relation accessor. A has-one result is returned as a
// zero- or one-element slice.
func (s *Serializer) resolve(ctx context.Context, m Model, id, relation string, hasOne bool) ([]Model, error) {
	start := time.Now()
	var (
		models []Model
		err    error
	)
	if hasOne {
		var rm Model
		rm, err = m.HasOne(ctx, relation)
		if err == nil && rm != nil {
			models = []Model{rm}
		}
	} else {
		models, err = m.HasMany(ctx, relation)
	}
	s.opts.observer.RelationResolved(s.def.Type, relation, time.Since(start), err)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &RelationError{Type: s.def.Type, ID: id, Relation: relation, Err: err}
	}
	if models == nil {
		models = []Model{}
	}
	return models, nil
}

func (s *Serializer) primaryKey(ctx context.Context, m Model) (string, error) {
	if m == nil {
		return "", &MissingPrimaryKeyError{Type: s.def.Type}
	}
	key, err := m.PrimaryKey(ctx)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return "", &MissingPrimaryKeyError{Type: s.def.Type, Err: err}
	}
	id := stringifyKey(key)
	if id == "" {
		return "", &MissingPrimaryKeyError{Type: s.def.Type}
	}
	return id, nil
}

// stringifyKey renders a primary key as its string form. Nil renders empty.
func stringifyKey(key any) string {
	switch v := key.(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	case int:
		return strconv.Itoa(v)
	case int8:
		return strconv.FormatInt(int64(v), 10)
	case int16:
		return strconv.FormatInt(int64(v), 10)
	case int32:
		return strconv.FormatInt(int64(v), 10)
	case int64:
		return strconv.FormatInt(v, 10)
	case uint:
		return strconv.FormatUint(uint64(v), 10)
	case uint8:
		return strconv.FormatUint(uint64(v), 10)
	case uint16:
		return strconv.FormatUint(uint64(v), 10)
	case uint32:
		return strconv.FormatUint(uint64(v), 10)
	case uint64:
		return strconv.FormatUint(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}
