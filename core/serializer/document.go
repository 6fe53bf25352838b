package serializer

import (
	"context"
	"time"

	"github.com/artpar/blogapi/pkg/jsonapi"
)

// Request is the input to Format.
type Request struct {
	// Data is the primary data: One(record) or Many(records...).
	Data Payload

	// Domain is the base URL used for links. A trailing slash is ignored.
	Domain string

	// Include lists inclusion paths. Dotted paths ("comments.user") walk
	// nested relations.
	Include []string

	// Links is copied verbatim into the top-level links member.
	Links map[string]string
}

// Format builds a compound document for req. Any failure, including
// cancellation of ctx, returns a zero Document and the error; partial
// documents are never returned.
func (s *Serializer) Format(ctx context.Context, req Request) (doc jsonapi.Document, err error) {
	start := time.Now()
	defer func() {
		s.opts.observer.FormatDone(s.def.Type, time.Since(start), len(doc.Included), err)
	}()

	if err := ctx.Err(); err != nil {
		return jsonapi.Document{}, err
	}

	domain := trimDomain(req.Domain)
	recs, err := s.formatAll(ctx, req.Data.Records(), domain)
	if err != nil {
		return jsonapi.Document{}, err
	}

	b := jsonapi.NewDocument().JSONAPI().Links(req.Links)
	switch {
	case req.Data.IsCollection():
		resources := make([]jsonapi.Resource, len(recs))
		for i, rec := range recs {
			resources[i] = rec.resource
		}
		b.DataCollection(resources)
	case len(recs) == 0:
		b.DataNull()
	default:
		b.DataResource(recs[0].resource)
	}

	if nodes := parseIncludes(req.Include); len(nodes) > 0 && len(recs) > 0 {
		set := newIncludedSet()
		if !s.opts.includePrimary {
			for _, rec := range recs {
				set.exclude(rec.resource.Key())
			}
		}
		if err := s.walk(ctx, recs, nodes, domain, set); err != nil {
			return jsonapi.Document{}, err
		}
		if len(set.items) > 0 {
			b.Include(set.items...)
		}
	}

	if err := ctx.Err(); err != nil {
		return jsonapi.Document{}, err
	}
	return b.Build(), nil
}
