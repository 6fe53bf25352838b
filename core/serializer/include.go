package serializer

import (
	"context"
	"strings"

	"github.com/artpar/blogapi/pkg/jsonapi"
)

// includeNode is one segment of the merged inclusion path tree.
type includeNode struct {
	name     string
	children []*includeNode
}

func (n *includeNode) child(name string) *includeNode {
	for _, c := range n.children {
		if c.name == name {
			return c
		}
	}
	c := &includeNode{name: name}
	n.children = append(n.children, c)
	return c
}

// parseIncludes merges dotted paths into a tree. Sibling order follows first
// appearance; blank paths and blank segments are dropped.
func parseIncludes(paths []string) []*includeNode {
	root := &includeNode{}
	for _, p := range paths {
		node := root
		for _, seg := range strings.Split(p, ".") {
			seg = strings.TrimSpace(seg)
			if seg == "" {
				break
			}
			node = node.child(seg)
		}
	}
	return root.children
}

// includedSet collects resource objects keyed by (type, id). The first
// insertion of a key wins; later ones are dropped.
type includedSet struct {
	seen  map[jsonapi.Key]bool
	items []jsonapi.Resource
}

func newIncludedSet() *includedSet {
	return &includedSet{seen: make(map[jsonapi.Key]bool)}
}

// exclude marks a key as present without emitting it.
func (s *includedSet) exclude(k jsonapi.Key) {
	s.seen[k] = true
}

func (s *includedSet) add(r jsonapi.Resource) bool {
	k := r.Key()
	if s.seen[k] {
		return false
	}
	s.seen[k] = true
	s.items = append(s.items, r)
	return true
}

// walk resolves each node against parents, formats the related records with
// the target serializer and merges them into set, then descends. Merging
// happens on this goroutine after every fan-out has finished.
func (s *Serializer) walk(ctx context.Context, parents []record, nodes []*includeNode, domain string, set *includedSet) error {
	for _, node := range nodes {
		if s.def.relationKind(node.name) == kindUnknown {
			s.opts.logger.Debug().
				Str("type", s.def.Type).
				Str("include", node.name).
				Msg("ignoring unknown inclusion path")
			continue
		}

		var models []Model
		for _, p := range parents {
			models = append(models, p.related[node.name]...)
		}
		if len(models) == 0 {
			continue
		}

		target := s.related(node.name)
		recs, err := target.formatAll(ctx, models, domain)
		if err != nil {
			return err
		}

		next := make([]record, 0, len(recs))
		visited := make(map[jsonapi.Key]bool, len(recs))
		for _, rec := range recs {
			set.add(rec.resource)
			k := rec.resource.Key()
			if visited[k] {
				continue
			}
			visited[k] = true
			next = append(next, rec)
		}

		if len(node.children) > 0 {
			if err := target.walk(ctx, next, node.children, domain, set); err != nil {
				return err
			}
		}
	}
	return nil
}
