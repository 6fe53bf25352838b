package serializer

import (
	"context"
	"time"
)

// fakeModel is an in-memory Model. Relations are resolved after an optional
// delay so tests can scramble completion order.
type fakeModel struct {
	pk     any
	pkErr  error
	attrs  map[string]any
	one    map[string]*fakeModel
	many   map[string][]*fakeModel
	relErr map[string]error
	delay  time.Duration

	// delays overrides delay per relation name.
	delays map[string]time.Duration
}

func newFake(pk any, attrs map[string]any) *fakeModel {
	return &fakeModel{
		pk:     pk,
		attrs:  attrs,
		one:    make(map[string]*fakeModel),
		many:   make(map[string][]*fakeModel),
		relErr: make(map[string]error),
	}
}

func (m *fakeModel) wait(ctx context.Context, relation string) error {
	d, ok := m.delays[relation]
	if !ok {
		d = m.delay
	}
	if d == 0 {
		return ctx.Err()
	}
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *fakeModel) PrimaryKey(ctx context.Context) (any, error) {
	if m.pkErr != nil {
		return nil, m.pkErr
	}
	return m.pk, nil
}

func (m *fakeModel) Attributes(ctx context.Context, names []string) (map[string]any, error) {
	out := make(map[string]any, len(names))
	for _, name := range names {
		if v, ok := m.attrs[name]; ok {
			out[name] = v
		}
	}
	return out, nil
}

func (m *fakeModel) HasOne(ctx context.Context, relation string) (Model, error) {
	if err := m.wait(ctx, relation); err != nil {
		return nil, err
	}
	if err := m.relErr[relation]; err != nil {
		return nil, err
	}
	rm := m.one[relation]
	if rm == nil {
		return nil, nil
	}
	return rm, nil
}

func (m *fakeModel) HasMany(ctx context.Context, relation string) ([]Model, error) {
	if err := m.wait(ctx, relation); err != nil {
		return nil, err
	}
	if err := m.relErr[relation]; err != nil {
		return nil, err
	}
	related := m.many[relation]
	out := make([]Model, len(related))
	for i, rm := range related {
		out[i] = rm
	}
	return out, nil
}

func blogDefinitions() []Definition {
	return []Definition{
		{
			Name:       "post",
			Attributes: []string{"title", "body", "isPublic", "createdAt"},
			HasOne:     []string{"user", "image"},
			HasMany:    []string{"tags", "comments"},
		},
		{
			Name:       "user",
			Attributes: []string{"name"},
			HasMany:    []string{"posts"},
		},
		{
			Name:       "image",
			Attributes: []string{"url"},
			HasOne:     []string{"post"},
		},
		{
			Name:       "tag",
			Attributes: []string{"name"},
		},
		{
			Name:       "comment",
			Attributes: []string{"body"},
			HasOne:     []string{"user", "post"},
		},
	}
}

// blogFixture is post 7 with one user, one image, three tags and three
// comments. Comment 11 is by the post's author, 12 and 13 by user 2.
type blogFixture struct {
	post     *fakeModel
	author   *fakeModel
	other    *fakeModel
	image    *fakeModel
	tags     []*fakeModel
	comments []*fakeModel
}

var createdAt = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func newBlogFixture() *blogFixture {
	f := &blogFixture{
		post: newFake(int64(7), map[string]any{
			"title":     "Hello",
			"body":      "First post",
			"isPublic":  true,
			"createdAt": createdAt,
		}),
		author: newFake(int64(1), map[string]any{"name": "Ada"}),
		other:  newFake(int64(2), map[string]any{"name": "Grace"}),
		image:  newFake(int64(3), map[string]any{"url": "http://localhost:4000/img/3.png"}),
	}
	for i, name := range []string{"go", "api", "json"} {
		f.tags = append(f.tags, newFake(int64(i+1), map[string]any{"name": name}))
	}
	for i := 0; i < 3; i++ {
		c := newFake(int64(11+i), map[string]any{"body": "comment"})
		c.one["post"] = f.post
		if i == 0 {
			c.one["user"] = f.author
		} else {
			c.one["user"] = f.other
		}
		f.comments = append(f.comments, c)
	}

	f.post.one["user"] = f.author
	f.post.one["image"] = f.image
	f.post.many["tags"] = f.tags
	f.post.many["comments"] = f.comments
	f.image.one["post"] = f.post
	f.author.many["posts"] = []*fakeModel{f.post}
	return f
}
