package serializer

import (
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefinition_Normalize(t *testing.T) {
	t.Run("derives type", func(t *testing.T) {
		tests := []struct {
			name string
			want string
		}{
			{"categorization", "categorizations"},
			{"post", "posts"},
			{"blogPost", "blog-posts"},
			{"person", "people"},
			{"news", "news"},
		}
		for _, tt := range tests {
			d, err := Definition{Name: tt.name}.Normalize()
			require.NoError(t, err)
			assert.Equal(t, tt.want, d.Type, tt.name)
		}
	})

	t.Run("explicit type wins", func(t *testing.T) {
		d, err := Definition{Name: "person", Type: "persons"}.Normalize()
		require.NoError(t, err)
		assert.Equal(t, "persons", d.Type)
	})

	t.Run("trims namespace", func(t *testing.T) {
		d, err := Definition{Name: "post", Namespace: " /api/v1/ "}.Normalize()
		require.NoError(t, err)
		assert.Equal(t, "api/v1", d.Namespace)
	})

	t.Run("copies lists", func(t *testing.T) {
		attrs := []string{"title"}
		d, err := Definition{Name: "post", Attributes: attrs}.Normalize()
		require.NoError(t, err)
		attrs[0] = "changed"
		assert.Equal(t, []string{"title"}, d.Attributes)
	})

	invalid := []struct {
		name string
		def  Definition
	}{
		{"missing name", Definition{Attributes: []string{"title"}}},
		{"duplicate attribute", Definition{Name: "post", Attributes: []string{"title", "title"}}},
		{"blank attribute", Definition{Name: "post", Attributes: []string{" "}}},
		{"attributes with same key", Definition{Name: "post", Attributes: []string{"isPublic", "is_public"}}},
		{"attribute named id", Definition{Name: "post", Attributes: []string{"id"}}},
		{"attribute named type", Definition{Name: "post", Attributes: []string{"Type"}}},
		{"relation in both lists", Definition{Name: "post", HasOne: []string{"user"}, HasMany: []string{"user"}}},
		{"target for undeclared relation", Definition{Name: "post", Targets: map[string]string{"author": "user"}}},
		{"blank target", Definition{Name: "post", HasOne: []string{"author"}, Targets: map[string]string{"author": ""}}},
	}
	for _, tt := range invalid {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.def.Normalize()
			assert.Error(t, err)
		})
	}
}

func TestDefinition_NormalizeKeyCollision(t *testing.T) {
	_, err := Definition{Name: "post", Attributes: []string{"title", "createdAt", "created_at"}}.Normalize()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"created-at"`)

	_, err = New(Definition{Name: "post", Attributes: []string{"isPublic", "is-public"}})
	assert.Error(t, err)
}

func TestSerializer_DefinitionIsCopy(t *testing.T) {
	s, err := New(Definition{Name: "post", Attributes: []string{"title"}})
	require.NoError(t, err)

	d := s.Definition()
	d.Attributes[0] = "changed"
	assert.Equal(t, []string{"title"}, s.Definition().Attributes)
	assert.Equal(t, "posts", s.Type())
	assert.Equal(t, "post", s.Name())
}

func TestRegistry(t *testing.T) {
	reg := NewRegistry()
	post, err := New(Definition{Name: "post"})
	require.NoError(t, err)
	person, err := New(Definition{Name: "person"})
	require.NoError(t, err)

	require.NoError(t, reg.Register(post))
	require.NoError(t, reg.Register(person, "author"))

	for _, name := range []string{"post", "posts", "person", "people", "author"} {
		_, ok := reg.Lookup(name)
		assert.True(t, ok, name)
	}
	_, ok := reg.Lookup("comment")
	assert.False(t, ok)

	dup, err := New(Definition{Name: "post"})
	require.NoError(t, err)
	assert.Error(t, reg.Register(dup))

	other, err := New(Definition{Name: "user"})
	require.NoError(t, err)
	assert.Error(t, reg.Register(other, "author"))

	all := reg.All()
	require.Len(t, all, 2)
	assert.Equal(t, "posts", all[0].Type())
	assert.Equal(t, "people", all[1].Type())

	var nilReg *Registry
	_, ok = nilReg.Lookup("post")
	assert.False(t, ok)
}

const postsYAML = `
serializers:
  - name: post
    attributes: [title, isPublic]
    has_one: [author]
    has_many: [tags]
    targets:
      author: user
  - name: tag
    namespace: admin
    attributes: [name]
`

func TestParse(t *testing.T) {
	defs, err := Parse([]byte(postsYAML))
	require.NoError(t, err)
	require.Len(t, defs, 2)

	assert.Equal(t, Definition{
		Name:       "post",
		Type:       "posts",
		Attributes: []string{"title", "isPublic"},
		HasOne:     []string{"author"},
		HasMany:    []string{"tags"},
		Targets:    map[string]string{"author": "user"},
	}, defs[0])
	assert.Equal(t, "admin", defs[1].Namespace)

	t.Run("single definition", func(t *testing.T) {
		defs, err := Parse([]byte("name: image\nattributes: [url]\n"))
		require.NoError(t, err)
		require.Len(t, defs, 1)
		assert.Equal(t, "images", defs[0].Type)
	})

	t.Run("invalid yaml", func(t *testing.T) {
		_, err := Parse([]byte("serializers: [:"))
		assert.Error(t, err)
	})

	t.Run("invalid definition", func(t *testing.T) {
		_, err := Parse([]byte("serializers:\n  - attributes: [title]\n"))
		assert.Error(t, err)
	})
}

func TestParseFS(t *testing.T) {
	fsys := fstest.MapFS{
		"defs/b.yaml":     {Data: []byte("name: tag\n")},
		"defs/a.yml":      {Data: []byte(postsYAML)},
		"defs/readme.txt": {Data: []byte("ignored")},
	}

	defs, err := ParseFS(fsys, "defs")
	require.NoError(t, err)

	var names []string
	for _, d := range defs {
		names = append(names, d.Name)
	}
	assert.Equal(t, []string{"post", "tag", "tag"}, names)
}

func TestParseDirAndFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "posts.yaml")
	require.NoError(t, os.WriteFile(path, []byte(postsYAML), 0o644))

	defs, err := ParseDir(dir)
	require.NoError(t, err)
	assert.Len(t, defs, 2)

	defs, err = ParseFile(path)
	require.NoError(t, err)
	assert.Len(t, defs, 2)

	_, err = ParseFile(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}
