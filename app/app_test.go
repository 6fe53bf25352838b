package app_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/artpar/blogapi/adapters/clock"
	"github.com/artpar/blogapi/adapters/hasher"
	"github.com/artpar/blogapi/adapters/memory"
	"github.com/artpar/blogapi/app"
	"github.com/artpar/blogapi/domain/blog"
	"github.com/artpar/blogapi/pkg/jsonapi"
	"github.com/artpar/blogapi/ports"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const domain = "http://localhost:4000"

var start = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func seededStore(t *testing.T) *memory.RecordStore {
	t.Helper()
	store := memory.NewRecordStore(blog.Default())
	_, err := app.NewSeeder(store, hasher.Plain{}, clock.NewStepping(start, time.Minute)).Seed(context.Background())
	require.NoError(t, err)
	return store
}

func newCatalog(t *testing.T, cfg app.CatalogConfig) *app.Catalog {
	t.Helper()
	c, err := app.NewCatalog(seededStore(t), cfg, zerolog.Nop(), nil)
	require.NoError(t, err)
	return c
}

func keys(rs []jsonapi.Resource) []jsonapi.Key {
	out := make([]jsonapi.Key, len(rs))
	for i, r := range rs {
		out[i] = r.Key()
	}
	return out
}

func TestCatalog_Serializers(t *testing.T) {
	c := newCatalog(t, app.CatalogConfig{})

	var types []string
	for _, s := range c.Registry().All() {
		types = append(types, s.Type())
	}
	assert.ElementsMatch(t, []string{"users", "posts", "images", "tags", "comments", "categorizations"}, types)

	_, err := c.Serializer("widgets")
	assert.ErrorIs(t, err, app.ErrUnknownResource)
}

func TestCatalog_PostDocument(t *testing.T) {
	c := newCatalog(t, app.CatalogConfig{})

	doc, err := c.Document(context.Background(), app.Query{
		Resource: "posts",
		ID:       "7",
		Domain:   domain,
		Links:    map[string]string{"self": domain + "/posts/7"},
	})
	require.NoError(t, err)

	res := doc.Data.(jsonapi.Resource)
	assert.Equal(t, "7", res.ID)
	assert.Equal(t, "posts", res.Type)
	assert.Equal(t, true, res.Attributes["is-public"])
	assert.Equal(t, start.Add(2*time.Minute), res.Attributes["created-at"])
	assert.Nil(t, doc.Included)

	tags, _ := res.Relationships.Get("tags")
	assert.Len(t, tags.Data, 3)
	image, _ := res.Relationships.Get("image")
	assert.Equal(t, &jsonapi.ResourceIdentifier{Type: "images", ID: "1"}, image.Data)
	assert.Equal(t, jsonapi.Links{"self": domain + "/images/1"}, image.Links)
}

func TestCatalog_IncludeImage(t *testing.T) {
	c := newCatalog(t, app.CatalogConfig{})

	doc, err := c.Document(context.Background(), app.Query{Resource: "post", ID: "7", Domain: domain, Include: []string{"image"}})
	require.NoError(t, err)

	require.Len(t, doc.Included, 1)
	assert.Equal(t, "images", doc.Included[0].Type)
	assert.Equal(t, "https://images.example.com/compound.png", doc.Included[0].Attributes["url"])
}

func TestCatalog_PasswordDigestNeverSerialized(t *testing.T) {
	c := newCatalog(t, app.CatalogConfig{})

	doc, err := c.Document(context.Background(), app.Query{Resource: "posts", ID: "7", Domain: domain, Include: []string{"user"}})
	require.NoError(t, err)

	require.Len(t, doc.Included, 1)
	user := doc.Included[0]
	assert.Equal(t, "Ada Lovelace", user.Attributes["name"])
	assert.NotContains(t, user.Attributes, "password-digest")
	assert.NotContains(t, user.Attributes, "passwordDigest")
}

func TestCatalog_CollectionDedup(t *testing.T) {
	c := newCatalog(t, app.CatalogConfig{})

	doc, err := c.Document(context.Background(), app.Query{Resource: "posts", Domain: domain, Include: []string{"user", "tags"}})
	require.NoError(t, err)

	data := doc.Data.([]jsonapi.Resource)
	assert.Equal(t, []jsonapi.Key{{Type: "posts", ID: "7"}, {Type: "posts", ID: "8"}}, keys(data))
	assert.Equal(t, []jsonapi.Key{
		{Type: "users", ID: "1"},
		{Type: "users", ID: "2"},
		{Type: "tags", ID: "1"},
		{Type: "tags", ID: "2"},
		{Type: "tags", ID: "3"},
	}, keys(doc.Included))
}

func TestCatalog_NestedInclude(t *testing.T) {
	c := newCatalog(t, app.CatalogConfig{})

	doc, err := c.Document(context.Background(), app.Query{Resource: "posts", ID: "7", Domain: domain, Include: []string{"comments.user"}})
	require.NoError(t, err)

	assert.Equal(t, []jsonapi.Key{
		{Type: "comments", ID: "1"},
		{Type: "comments", ID: "2"},
		{Type: "comments", ID: "3"},
		{Type: "users", ID: "1"},
		{Type: "users", ID: "2"},
	}, keys(doc.Included))
}

func TestCatalog_Related(t *testing.T) {
	c := newCatalog(t, app.CatalogConfig{})
	ctx := context.Background()

	t.Run("to-one", func(t *testing.T) {
		doc, err := c.Document(ctx, app.Query{Resource: "posts", ID: "7", Relation: "image", Domain: domain})
		require.NoError(t, err)
		res := doc.Data.(jsonapi.Resource)
		assert.Equal(t, jsonapi.Key{Type: "images", ID: "1"}, res.Key())
	})

	t.Run("to-one absent", func(t *testing.T) {
		doc, err := c.Document(ctx, app.Query{Resource: "posts", ID: "8", Relation: "image", Domain: domain})
		require.NoError(t, err)
		assert.True(t, doc.HasNullData())
	})

	t.Run("to-many", func(t *testing.T) {
		doc, err := c.Document(ctx, app.Query{Resource: "posts", ID: "7", Relation: "tags", Domain: domain})
		require.NoError(t, err)
		assert.Len(t, doc.Data.([]jsonapi.Resource), 3)
	})

	t.Run("many-to-many inverse", func(t *testing.T) {
		doc, err := c.Document(ctx, app.Query{Resource: "tags", ID: "2", Relation: "posts", Domain: domain})
		require.NoError(t, err)
		assert.Equal(t, []jsonapi.Key{{Type: "posts", ID: "7"}, {Type: "posts", ID: "8"}}, keys(doc.Data.([]jsonapi.Resource)))
	})

	t.Run("undeclared relation", func(t *testing.T) {
		_, err := c.Document(ctx, app.Query{Resource: "tags", ID: "2", Relation: "categorizations", Domain: domain})
		assert.ErrorIs(t, err, app.ErrUnknownRelation)
	})
}

func TestCatalog_Errors(t *testing.T) {
	c := newCatalog(t, app.CatalogConfig{})
	ctx := context.Background()

	_, err := c.Document(ctx, app.Query{Resource: "widgets"})
	assert.ErrorIs(t, err, app.ErrUnknownResource)

	for _, id := range []string{"99", "abc", "-1"} {
		_, err := c.Document(ctx, app.Query{Resource: "posts", ID: id})
		assert.ErrorIs(t, err, ports.ErrNotFound, id)
	}
}

func TestCatalog_Namespace(t *testing.T) {
	c := newCatalog(t, app.CatalogConfig{Namespace: "admin", SelfLinks: true})

	doc, err := c.Document(context.Background(), app.Query{Resource: "posts", ID: "7", Domain: domain})
	require.NoError(t, err)

	res := doc.Data.(jsonapi.Resource)
	assert.Equal(t, jsonapi.Links{"self": domain + "/admin/posts/7"}, res.Links)
	user, _ := res.Relationships.Get("user")
	assert.Equal(t, jsonapi.Links{"self": domain + "/admin/users/1"}, user.Links)
}

func TestCatalog_IncludePrimary(t *testing.T) {
	ctx := context.Background()
	q := app.Query{Resource: "posts", ID: "7", Domain: domain, Include: []string{"image.post"}}

	doc, err := newCatalog(t, app.CatalogConfig{}).Document(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, []jsonapi.Key{{Type: "images", ID: "1"}}, keys(doc.Included))

	doc, err = newCatalog(t, app.CatalogConfig{IncludePrimary: true}).Document(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, []jsonapi.Key{{Type: "images", ID: "1"}, {Type: "posts", ID: "7"}}, keys(doc.Included))
}

func TestCatalog_DefinitionsDir(t *testing.T) {
	store := seededStore(t)

	t.Run("override", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "post.yaml"), []byte("name: post\nattributes: [title]\nhas_one: [user]\n"), 0o644))

		c, err := app.NewCatalog(store, app.CatalogConfig{DefinitionsDir: dir}, zerolog.Nop(), nil)
		require.NoError(t, err)

		doc, err := c.Document(context.Background(), app.Query{Resource: "posts", ID: "7", Domain: domain})
		require.NoError(t, err)
		res := doc.Data.(jsonapi.Resource)
		assert.Equal(t, map[string]any{"title": "Compound documents"}, res.Attributes)
		assert.Equal(t, []string{"user"}, res.Relationships.Names())
	})

	invalid := map[string]string{
		"hidden attribute": "name: user\nattributes: [passwordDigest]\n",
		"unknown resource": "name: widget\n",
		"wrong cardinality": "name: post\nhas_one: [tags]\n",
		"unknown relation": "name: post\nhas_many: [likes]\n",
	}
	for name, content := range invalid {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.yaml"), []byte(content), 0o644))
			_, err := app.NewCatalog(store, app.CatalogConfig{DefinitionsDir: dir}, zerolog.Nop(), nil)
			assert.Error(t, err)
		})
	}

	t.Run("missing dir", func(t *testing.T) {
		_, err := app.NewCatalog(store, app.CatalogConfig{DefinitionsDir: filepath.Join(t.TempDir(), "nope")}, zerolog.Nop(), nil)
		assert.Error(t, err)
	})
}

func TestSeeder(t *testing.T) {
	store := memory.NewRecordStore(blog.Default())
	seeder := app.NewSeeder(store, hasher.Plain{}, clock.NewStepping(start, time.Minute))
	ctx := context.Background()

	f, err := seeder.Seed(ctx)
	require.NoError(t, err)
	assert.Len(t, f.Users, 2)
	assert.Len(t, f.Tags, 3)
	assert.Len(t, f.Comments, 3)
	assert.Equal(t, int64(app.FixturePostID), f.Posts[0].ID)
	assert.Equal(t, "plain:analytical-engine", f.Users[0].Fields["passwordDigest"])

	_, err = seeder.Seed(ctx)
	assert.True(t, errors.Is(err, app.ErrAlreadySeeded))
}

func TestRecord(t *testing.T) {
	store := seededStore(t)
	ctx := context.Background()

	row, err := store.Get(ctx, "post", 7)
	require.NoError(t, err)
	rec := app.NewRecord(store, row)

	pk, err := rec.PrimaryKey(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(7), pk)

	_, err = rec.HasOne(ctx, "tags")
	assert.Error(t, err, "to-many relation through HasOne")
	_, err = rec.HasMany(ctx, "user")
	assert.Error(t, err, "to-one relation through HasMany")
	_, err = rec.HasMany(ctx, "likes")
	assert.Error(t, err)

	_, err = app.NewRecord(store, blog.Row{Type: "post"}).PrimaryKey(ctx)
	assert.Error(t, err)

	user, _ := store.Get(ctx, "user", 1)
	attrs, err := app.NewRecord(store, user).Attributes(ctx, []string{"name", "passwordDigest", "missing"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"name": "Ada Lovelace"}, attrs)
}
