package serializer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/artpar/blogapi/pkg/jsonapi"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const domain = "http://localhost:4000"

func newBlogRegistry(t *testing.T, opts ...Option) *Registry {
	t.Helper()
	reg := NewRegistry()
	opts = append([]Option{WithRegistry(reg)}, opts...)
	for _, def := range blogDefinitions() {
		s, err := New(def, opts...)
		require.NoError(t, err)
		require.NoError(t, reg.Register(s))
	}
	return reg
}

func lookup(t *testing.T, reg *Registry, name string) *Serializer {
	t.Helper()
	s, ok := reg.Lookup(name)
	require.True(t, ok, "serializer %q not registered", name)
	return s
}

func keys(resources []jsonapi.Resource) []jsonapi.Key {
	out := make([]jsonapi.Key, len(resources))
	for i, r := range resources {
		out[i] = r.Key()
	}
	return out
}

func toMap(t *testing.T, doc jsonapi.Document) map[string]any {
	t.Helper()
	raw, err := json.Marshal(doc)
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

func TestFormat_PostWithoutInclude(t *testing.T) {
	f := newBlogFixture()
	s := lookup(t, newBlogRegistry(t), "post")

	doc, err := s.Format(context.Background(), Request{
		Data:   One(f.post),
		Domain: domain,
		Links:  map[string]string{"self": domain + "/posts/7"},
	})
	require.NoError(t, err)

	require.NotNil(t, doc.JSONAPI)
	assert.Equal(t, "1.0", doc.JSONAPI.Version)
	assert.Equal(t, jsonapi.Links{"self": domain + "/posts/7"}, doc.Links)
	assert.Nil(t, doc.Included)

	res, ok := doc.Data.(jsonapi.Resource)
	require.True(t, ok, "data should be a single resource, got %T", doc.Data)
	assert.Equal(t, "7", res.ID)
	assert.Equal(t, "posts", res.Type)
	assert.Equal(t, map[string]any{
		"title":      "Hello",
		"body":       "First post",
		"is-public":  true,
		"created-at": createdAt,
	}, res.Attributes)

	assert.Equal(t, []string{"user", "image", "tags", "comments"}, res.Relationships.Names())

	tags, _ := res.Relationships.Get("tags")
	want := []jsonapi.ResourceIdentifier{
		{Type: "tags", ID: "1"},
		{Type: "tags", ID: "2"},
		{Type: "tags", ID: "3"},
	}
	if diff := cmp.Diff(want, tags.Data); diff != "" {
		t.Errorf("tags linkage mismatch (-want +got):\n%s", diff)
	}

	image, _ := res.Relationships.Get("image")
	assert.Equal(t, &jsonapi.ResourceIdentifier{Type: "images", ID: "3"}, image.Data)
	assert.Equal(t, jsonapi.Links{"self": domain + "/images/3"}, image.Links)

	user, _ := res.Relationships.Get("user")
	assert.Equal(t, &jsonapi.ResourceIdentifier{Type: "users", ID: "1"}, user.Data)

	m := toMap(t, doc)
	assert.NotContains(t, m, "included")
	assert.Equal(t, map[string]any{"version": "1.0"}, m["jsonapi"])
}

func TestFormat_RelationOrderIndependentOfCompletion(t *testing.T) {
	f := newBlogFixture()
	// Reverse of declaration order: user resolves last, tags first.
	f.post.delays = map[string]time.Duration{
		"user":     30 * time.Millisecond,
		"image":    20 * time.Millisecond,
		"comments": 10 * time.Millisecond,
		"tags":     0,
	}
	s := lookup(t, newBlogRegistry(t), "post")

	doc, err := s.Format(context.Background(), Request{Data: One(f.post), Domain: domain})
	require.NoError(t, err)

	res := doc.Data.(jsonapi.Resource)
	assert.Equal(t, []string{"user", "image", "tags", "comments"}, res.Relationships.Names())

	user, _ := res.Relationships.Get("user")
	assert.Equal(t, &jsonapi.ResourceIdentifier{Type: "users", ID: "1"}, user.Data)
	comments, _ := res.Relationships.Get("comments")
	assert.Len(t, comments.Data, 3)

	raw, err := json.Marshal(res.Relationships)
	require.NoError(t, err)
	order := []string{`"user"`, `"image"`, `"tags"`, `"comments"`}
	last := -1
	for _, key := range order {
		i := strings.Index(string(raw), key)
		require.Greater(t, i, last, "relationship %s out of order in %s", key, raw)
		last = i
	}
}

func TestFormat_IncludeImage(t *testing.T) {
	f := newBlogFixture()
	s := lookup(t, newBlogRegistry(t), "post")

	doc, err := s.Format(context.Background(), Request{
		Data:    One(f.post),
		Domain:  domain,
		Include: []string{"image"},
	})
	require.NoError(t, err)

	require.Len(t, doc.Included, 1)
	img := doc.Included[0]
	assert.Equal(t, "images", img.Type)
	assert.Equal(t, "3", img.ID)
	assert.Equal(t, "http://localhost:4000/img/3.png", img.Attributes["url"])

	post, _ := img.Relationships.Get("post")
	assert.Equal(t, &jsonapi.ResourceIdentifier{Type: "posts", ID: "7"}, post.Data)
}

func TestFormat_HasOneAbsent(t *testing.T) {
	f := newBlogFixture()
	delete(f.post.one, "image")
	s := lookup(t, newBlogRegistry(t), "post")

	doc, err := s.Format(context.Background(), Request{Data: One(f.post), Domain: domain, Include: []string{"image"}})
	require.NoError(t, err)

	res := doc.Data.(jsonapi.Resource)
	image, ok := res.Relationships.Get("image")
	require.True(t, ok)
	assert.Nil(t, image.Data)
	assert.Nil(t, image.Links)
	assert.Nil(t, doc.Included, "absent has-one yields nothing to include")

	rels := toMap(t, doc)["data"].(map[string]any)["relationships"].(map[string]any)
	assert.Equal(t, map[string]any{"data": nil}, rels["image"])
}

func TestFormat_HasManyEmpty(t *testing.T) {
	f := newBlogFixture()
	f.post.many["tags"] = nil
	s := lookup(t, newBlogRegistry(t), "post")

	doc, err := s.Format(context.Background(), Request{Data: One(f.post), Domain: domain})
	require.NoError(t, err)

	tags, _ := doc.Data.(jsonapi.Resource).Relationships.Get("tags")
	assert.Equal(t, []jsonapi.ResourceIdentifier{}, tags.Data)

	rels := toMap(t, doc)["data"].(map[string]any)["relationships"].(map[string]any)
	assert.Equal(t, map[string]any{"data": []any{}}, rels["tags"])
}

func TestFormat_NullAndEmptyData(t *testing.T) {
	s := lookup(t, newBlogRegistry(t), "post")

	t.Run("one nil is null", func(t *testing.T) {
		doc, err := s.Format(context.Background(), Request{Data: One(nil), Domain: domain, Include: []string{"user"}})
		require.NoError(t, err)
		assert.True(t, doc.HasNullData())
		m := toMap(t, doc)
		assert.Contains(t, m, "data")
		assert.Nil(t, m["data"])
		assert.NotContains(t, m, "included")
	})

	t.Run("empty collection is an array", func(t *testing.T) {
		doc, err := s.Format(context.Background(), Request{Data: Many(), Domain: domain})
		require.NoError(t, err)
		assert.Equal(t, []jsonapi.Resource{}, doc.Data)
		assert.Equal(t, []any{}, toMap(t, doc)["data"])
	})
}

func TestFormat_CollectionOrder(t *testing.T) {
	s := lookup(t, newBlogRegistry(t), "post")
	rng := rand.New(rand.NewSource(1))

	const n = 25
	models := make([]Model, n)
	want := make([]jsonapi.Key, n)
	for i := 0; i < n; i++ {
		p := newFake(i+100, map[string]any{"title": fmt.Sprintf("post %d", i)})
		p.delay = time.Duration(rng.Intn(5)) * time.Millisecond
		p.one["user"] = newFake(i, map[string]any{"name": "u"})
		models[i] = p
		want[i] = jsonapi.Key{Type: "posts", ID: fmt.Sprint(i + 100)}
	}

	doc, err := s.Format(context.Background(), Request{Data: Many(models...), Domain: domain, Include: []string{"user"}})
	require.NoError(t, err)

	data, ok := doc.Data.([]jsonapi.Resource)
	require.True(t, ok)
	if diff := cmp.Diff(want, keys(data)); diff != "" {
		t.Errorf("collection order mismatch (-want +got):\n%s", diff)
	}

	wantUsers := make([]jsonapi.Key, n)
	for i := 0; i < n; i++ {
		wantUsers[i] = jsonapi.Key{Type: "users", ID: fmt.Sprint(i)}
	}
	if diff := cmp.Diff(wantUsers, keys(doc.Included)); diff != "" {
		t.Errorf("included order mismatch (-want +got):\n%s", diff)
	}
}

func TestFormat_DeduplicatesIncluded(t *testing.T) {
	f := newBlogFixture()
	second := newFake(int64(8), map[string]any{"title": "Second"})
	second.one["user"] = f.author
	second.many["tags"] = f.tags[:2]

	s := lookup(t, newBlogRegistry(t), "post")
	doc, err := s.Format(context.Background(), Request{
		Data:    Many(f.post, second),
		Domain:  domain,
		Include: []string{"user", "tags", "user"},
	})
	require.NoError(t, err)

	want := []jsonapi.Key{
		{Type: "users", ID: "1"},
		{Type: "tags", ID: "1"},
		{Type: "tags", ID: "2"},
		{Type: "tags", ID: "3"},
	}
	if diff := cmp.Diff(want, keys(doc.Included)); diff != "" {
		t.Errorf("included mismatch (-want +got):\n%s", diff)
	}
}

func TestFormat_NestedInclude(t *testing.T) {
	f := newBlogFixture()
	s := lookup(t, newBlogRegistry(t), "post")

	doc, err := s.Format(context.Background(), Request{
		Data:    One(f.post),
		Domain:  domain,
		Include: []string{"user", "comments.user", "comments"},
	})
	require.NoError(t, err)

	want := []jsonapi.Key{
		{Type: "users", ID: "1"},
		{Type: "comments", ID: "11"},
		{Type: "comments", ID: "12"},
		{Type: "comments", ID: "13"},
		{Type: "users", ID: "2"},
	}
	if diff := cmp.Diff(want, keys(doc.Included)); diff != "" {
		t.Errorf("included mismatch (-want +got):\n%s", diff)
	}
}

func TestFormat_PrimaryExclusion(t *testing.T) {
	f := newBlogFixture()

	t.Run("excluded by default", func(t *testing.T) {
		s := lookup(t, newBlogRegistry(t), "user")
		doc, err := s.Format(context.Background(), Request{
			Data:    One(f.author),
			Domain:  domain,
			Include: []string{"posts.user"},
		})
		require.NoError(t, err)
		assert.Equal(t, []jsonapi.Key{{Type: "posts", ID: "7"}}, keys(doc.Included))
	})

	t.Run("kept with include primary", func(t *testing.T) {
		s := lookup(t, newBlogRegistry(t, WithIncludePrimary(true)), "user")
		doc, err := s.Format(context.Background(), Request{
			Data:    One(f.author),
			Domain:  domain,
			Include: []string{"posts.user"},
		})
		require.NoError(t, err)
		assert.Equal(t, []jsonapi.Key{
			{Type: "posts", ID: "7"},
			{Type: "users", ID: "1"},
		}, keys(doc.Included))
	})
}

func TestFormat_UnknownIncludeIgnored(t *testing.T) {
	f := newBlogFixture()
	s := lookup(t, newBlogRegistry(t), "post")

	doc, err := s.Format(context.Background(), Request{
		Data:    One(f.post),
		Domain:  domain,
		Include: []string{"nope", "image.nope", " ", ""},
	})
	require.NoError(t, err)
	assert.Equal(t, []jsonapi.Key{{Type: "images", ID: "3"}}, keys(doc.Included))
}

func TestFormat_Namespace(t *testing.T) {
	f := newBlogFixture()
	s, err := New(Definition{
		Name:       "post",
		Namespace:  "/admin/",
		Attributes: []string{"title"},
		HasOne:     []string{"user"},
	}, WithSelfLinks(true))
	require.NoError(t, err)

	doc, err := s.Format(context.Background(), Request{Data: One(f.post), Domain: domain + "/"})
	require.NoError(t, err)

	res := doc.Data.(jsonapi.Resource)
	user, _ := res.Relationships.Get("user")
	assert.Equal(t, jsonapi.Links{"self": "http://localhost:4000/admin/users/1"}, user.Links)
	assert.Equal(t, jsonapi.Links{"self": "http://localhost:4000/admin/posts/7"}, res.Links)
}

func TestFormat_StringifiesKeys(t *testing.T) {
	tests := []struct {
		key  any
		want string
	}{
		{int64(7), "7"},
		{7, "7"},
		{uint8(9), "9"},
		{"abc", "abc"},
		{[]byte("xyz"), "xyz"},
		{float64(2), "2"},
		{time.Duration(5), "5ns"},
	}

	s, err := New(Definition{Name: "tag"})
	require.NoError(t, err)
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			res, err := s.Resource(context.Background(), newFake(tt.key, nil), domain)
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.ID)
		})
	}
}

func TestFormat_Errors(t *testing.T) {
	t.Run("primary key error", func(t *testing.T) {
		f := newBlogFixture()
		f.post.pkErr = errors.New("no key")
		s := lookup(t, newBlogRegistry(t), "post")

		doc, err := s.Format(context.Background(), Request{Data: One(f.post), Domain: domain})
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrMissingPrimaryKey)
		var pkErr *MissingPrimaryKeyError
		require.ErrorAs(t, err, &pkErr)
		assert.Equal(t, "posts", pkErr.Type)
		assert.Nil(t, doc.Data)
		assert.Nil(t, doc.JSONAPI)
	})

	t.Run("nil primary key", func(t *testing.T) {
		s := lookup(t, newBlogRegistry(t), "tag")
		_, err := s.Format(context.Background(), Request{Data: Many(newFake(nil, nil)), Domain: domain})
		assert.ErrorIs(t, err, ErrMissingPrimaryKey)
	})

	t.Run("related primary key error", func(t *testing.T) {
		f := newBlogFixture()
		f.tags[1].pkErr = errors.New("broken")
		s := lookup(t, newBlogRegistry(t), "post")

		_, err := s.Format(context.Background(), Request{Data: One(f.post), Domain: domain})
		var pkErr *MissingPrimaryKeyError
		require.ErrorAs(t, err, &pkErr)
		assert.Equal(t, "tags", pkErr.Type)
	})

	t.Run("relation error", func(t *testing.T) {
		f := newBlogFixture()
		cause := errors.New("db down")
		f.post.relErr["comments"] = cause
		s := lookup(t, newBlogRegistry(t), "post")

		doc, err := s.Format(context.Background(), Request{Data: One(f.post), Domain: domain})
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrUnresolvableRelation)
		assert.ErrorIs(t, err, cause)
		var relErr *RelationError
		require.ErrorAs(t, err, &relErr)
		assert.Equal(t, "comments", relErr.Relation)
		assert.Equal(t, "7", relErr.ID)
		assert.Nil(t, doc.Data)
	})

	t.Run("relation error during include", func(t *testing.T) {
		f := newBlogFixture()
		f.comments[2].relErr["user"] = errors.New("db down")
		s := lookup(t, newBlogRegistry(t), "post")

		doc, err := s.Format(context.Background(), Request{Data: One(f.post), Domain: domain, Include: []string{"comments"}})
		assert.ErrorIs(t, err, ErrUnresolvableRelation)
		assert.Nil(t, doc.Included)
	})
}

func TestFormat_Cancelled(t *testing.T) {
	f := newBlogFixture()
	s := lookup(t, newBlogRegistry(t), "post")

	t.Run("before start", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		doc, err := s.Format(ctx, Request{Data: One(f.post), Domain: domain})
		assert.ErrorIs(t, err, context.Canceled)
		assert.Nil(t, doc.Data)
	})

	t.Run("during resolution", func(t *testing.T) {
		f.post.delay = time.Second
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()
		_, err := s.Format(ctx, Request{Data: One(f.post), Domain: domain})
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})
}

func TestFormat_Concurrency(t *testing.T) {
	f := newBlogFixture()
	for _, c := range f.comments {
		c.delay = time.Millisecond
	}
	s := lookup(t, newBlogRegistry(t, WithConcurrency(1)), "post")

	doc, err := s.Format(context.Background(), Request{Data: One(f.post), Domain: domain, Include: []string{"comments.user"}})
	require.NoError(t, err)
	assert.Len(t, doc.Included, 5)
}

type recordingObserver struct {
	mu        sync.Mutex
	formats   []string
	included  []int
	relations []string
}

func (o *recordingObserver) FormatDone(resourceType string, _ time.Duration, included int, _ error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.formats = append(o.formats, resourceType)
	o.included = append(o.included, included)
}

func (o *recordingObserver) RelationResolved(resourceType, relation string, _ time.Duration, _ error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.relations = append(o.relations, resourceType+"."+relation)
}

func TestFormat_Observer(t *testing.T) {
	f := newBlogFixture()
	obs := &recordingObserver{}
	s := lookup(t, newBlogRegistry(t, WithObserver(obs)), "post")

	_, err := s.Format(context.Background(), Request{Data: One(f.post), Domain: domain, Include: []string{"image"}})
	require.NoError(t, err)

	assert.Equal(t, []string{"posts"}, obs.formats)
	assert.Equal(t, []int{1}, obs.included)
	assert.ElementsMatch(t, []string{
		"posts.user", "posts.image", "posts.tags", "posts.comments",
		"images.post",
	}, obs.relations)
}

func TestSerializer_UnregisteredTarget(t *testing.T) {
	f := newBlogFixture()
	s, err := New(Definition{
		Name:    "post",
		HasOne:  []string{"author"},
		Targets: map[string]string{"author": "user"},
	})
	require.NoError(t, err)
	f.post.one["author"] = f.author

	doc, err := s.Format(context.Background(), Request{Data: One(f.post), Domain: domain, Include: []string{"author"}})
	require.NoError(t, err)

	author, _ := doc.Data.(jsonapi.Resource).Relationships.Get("author")
	assert.Equal(t, &jsonapi.ResourceIdentifier{Type: "users", ID: "1"}, author.Data)
	require.Len(t, doc.Included, 1)
	assert.Equal(t, jsonapi.Key{Type: "users", ID: "1"}, doc.Included[0].Key())
	assert.Empty(t, doc.Included[0].Attributes)
}
