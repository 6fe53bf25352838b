package blog

import "time"

// Row is one stored record. Fields are keyed by model field name; the id
// is kept apart from them.
type Row struct {
	Type   string
	ID     int64
	Fields map[string]any
}

// Get returns a field value, or nil when absent.
func (r Row) Get(name string) any {
	if name == "id" {
		return r.ID
	}
	return r.Fields[name]
}

// Int returns an integer field. Missing or non-integer values yield false.
func (r Row) Int(name string) (int64, bool) {
	switch v := r.Get(name).(type) {
	case int64:
		return v, true
	case int:
		return int64(v), true
	default:
		return 0, false
	}
}

// Clone returns a copy whose Fields map can be modified freely.
func (r Row) Clone() Row {
	out := Row{Type: r.Type, ID: r.ID, Fields: make(map[string]any, len(r.Fields))}
	for k, v := range r.Fields {
		out.Fields[k] = v
	}
	return out
}

// Normalize coerces a raw field value to the column's kind. Unknown shapes
// are returned unchanged.
func Normalize(kind Kind, v any) any {
	if v == nil {
		return nil
	}
	switch kind {
	case KindBool:
		switch b := v.(type) {
		case bool:
			return b
		case int64:
			return b != 0
		case int:
			return b != 0
		}
	case KindInt:
		switch n := v.(type) {
		case int64:
			return n
		case int:
			return int64(n)
		case float64:
			return int64(n)
		}
	case KindTime:
		if b, ok := v.([]byte); ok {
			v = string(b)
		}
		switch t := v.(type) {
		case time.Time:
			return t.UTC()
		case string:
			for _, layout := range []string{time.RFC3339Nano, "2006-01-02 15:04:05.999999999-07:00", "2006-01-02 15:04:05"} {
				if parsed, err := time.Parse(layout, t); err == nil {
					return parsed.UTC()
				}
			}
		}
	case KindText:
		if b, ok := v.([]byte); ok {
			return string(b)
		}
	}
	return v
}

// Default returns the demo blog schema. Posts belong to a user, own at most one image,
// carry comments and are tagged through categorizations.
func Default() Schema {
	s, err := NewSchema(
		Resource{
			Name:  "user",
			Table: "users",
			Columns: []Column{
				{Name: "name", Kind: KindText},
				{Name: "email", Kind: KindText},
				{Name: "passwordDigest", Kind: KindText, Hidden: true},
				{Name: "createdAt", Kind: KindTime},
			},
			Relations: []Relation{
				{Name: "posts", Kind: HasMany, Target: "post", ForeignKey: "userId"},
				{Name: "comments", Kind: HasMany, Target: "comment", ForeignKey: "userId"},
			},
		},
		Resource{
			Name:  "post",
			Table: "posts",
			Columns: []Column{
				{Name: "title", Kind: KindText},
				{Name: "body", Kind: KindText},
				{Name: "isPublic", Kind: KindBool},
				{Name: "createdAt", Kind: KindTime},
				{Name: "updatedAt", Kind: KindTime},
				{Name: "userId", Kind: KindInt},
			},
			Relations: []Relation{
				{Name: "user", Kind: BelongsTo, Target: "user", ForeignKey: "userId"},
				{Name: "image", Kind: HasOne, Target: "image", ForeignKey: "postId"},
				{Name: "tags", Kind: ManyToMany, Target: "tag", Through: "categorization", ForeignKey: "postId", TargetKey: "tagId"},
				{Name: "comments", Kind: HasMany, Target: "comment", ForeignKey: "postId"},
				{Name: "categorizations", Kind: HasMany, Target: "categorization", ForeignKey: "postId"},
			},
		},
		Resource{
			Name:  "image",
			Table: "images",
			Columns: []Column{
				{Name: "url", Kind: KindText},
				{Name: "postId", Kind: KindInt},
			},
			Relations: []Relation{
				{Name: "post", Kind: BelongsTo, Target: "post", ForeignKey: "postId"},
			},
		},
		Resource{
			Name:  "tag",
			Table: "tags",
			Columns: []Column{
				{Name: "name", Kind: KindText},
			},
			Relations: []Relation{
				{Name: "posts", Kind: ManyToMany, Target: "post", Through: "categorization", ForeignKey: "tagId", TargetKey: "postId"},
				{Name: "categorizations", Kind: HasMany, Target: "categorization", ForeignKey: "tagId"},
			},
		},
		Resource{
			Name:  "comment",
			Table: "comments",
			Columns: []Column{
				{Name: "body", Kind: KindText},
				{Name: "createdAt", Kind: KindTime},
				{Name: "postId", Kind: KindInt},
				{Name: "userId", Kind: KindInt},
			},
			Relations: []Relation{
				{Name: "post", Kind: BelongsTo, Target: "post", ForeignKey: "postId"},
				{Name: "user", Kind: BelongsTo, Target: "user", ForeignKey: "userId"},
			},
		},
		Resource{
			Name:  "categorization",
			Table: "categorizations",
			Columns: []Column{
				{Name: "postId", Kind: KindInt},
				{Name: "tagId", Kind: KindInt},
			},
			Relations: []Relation{
				{Name: "post", Kind: BelongsTo, Target: "post", ForeignKey: "postId"},
				{Name: "tag", Kind: BelongsTo, Target: "tag", ForeignKey: "tagId"},
			},
		},
	)
	if err != nil {
		panic(err)
	}
	return s
}
