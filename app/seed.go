package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/artpar/blogapi/domain/blog"
	"github.com/artpar/blogapi/ports"
)

// ErrAlreadySeeded is returned when the fixture post already exists.
var ErrAlreadySeeded = errors.New("fixture already seeded")

// FixturePostID is the id of the fixture's main post.
const FixturePostID = 7

// Fixture summarizes what Seed created.
type Fixture struct {
	Users      []blog.Row
	Posts      []blog.Row
	Image      blog.Row
	Tags       []blog.Row
	Comments   []blog.Row
	Categories []blog.Row
}

// Seeder inserts the demo fixture: post 7 by Ada with one image, three tags
// and three comments (one by Ada, two by Grace), plus post 8 by Grace that
// shares a tag with post 7.
type Seeder struct {
	store  ports.RecordStore
	hasher ports.Hasher
	clock  ports.Clock
}

// NewSeeder creates a seeder.
func NewSeeder(store ports.RecordStore, hasher ports.Hasher, clock ports.Clock) *Seeder {
	return &Seeder{store: store, hasher: hasher, clock: clock}
}

// Seed inserts the fixture. It fails with ErrAlreadySeeded when post 7
// exists.
func (s *Seeder) Seed(ctx context.Context) (Fixture, error) {
	var f Fixture

	if _, err := s.store.Get(ctx, "post", FixturePostID); err == nil {
		return f, ErrAlreadySeeded
	} else if !errors.Is(err, ports.ErrNotFound) {
		return f, err
	}

	users := []struct{ name, email, password string }{
		{"Ada Lovelace", "ada@example.com", "analytical-engine"},
		{"Grace Hopper", "grace@example.com", "cobol-forever"},
	}
	for _, u := range users {
		digest, err := s.hasher.Digest(u.password)
		if err != nil {
			return f, fmt.Errorf("digest password: %w", err)
		}
		row, err := s.create(ctx, "user", map[string]any{
			"name":           u.name,
			"email":          u.email,
			"passwordDigest": digest,
			"createdAt":      s.clock.Now(),
		})
		if err != nil {
			return f, err
		}
		f.Users = append(f.Users, row)
	}
	ada, grace := f.Users[0], f.Users[1]

	posts := []map[string]any{
		{"id": FixturePostID, "title": "Compound documents", "body": "Side-loading related resources.", "isPublic": true, "userId": ada.ID},
		{"id": FixturePostID + 1, "title": "Draft notes", "body": "Not ready yet.", "isPublic": false, "userId": grace.ID},
	}
	for _, fields := range posts {
		now := s.clock.Now()
		fields["createdAt"] = now
		fields["updatedAt"] = now
		row, err := s.create(ctx, "post", fields)
		if err != nil {
			return f, err
		}
		f.Posts = append(f.Posts, row)
	}
	post, draft := f.Posts[0], f.Posts[1]

	img, err := s.create(ctx, "image", map[string]any{"url": "https://images.example.com/compound.png", "postId": post.ID})
	if err != nil {
		return f, err
	}
	f.Image = img

	for _, name := range []string{"jsonapi", "go", "serialization"} {
		tag, err := s.create(ctx, "tag", map[string]any{"name": name})
		if err != nil {
			return f, err
		}
		f.Tags = append(f.Tags, tag)
	}

	links := [][2]int64{
		{post.ID, f.Tags[0].ID},
		{post.ID, f.Tags[1].ID},
		{post.ID, f.Tags[2].ID},
		{draft.ID, f.Tags[1].ID},
	}
	for _, l := range links {
		row, err := s.create(ctx, "categorization", map[string]any{"postId": l[0], "tagId": l[1]})
		if err != nil {
			return f, err
		}
		f.Categories = append(f.Categories, row)
	}

	comments := []struct {
		body   string
		userID int64
	}{
		{"Thanks for reading!", ada.ID},
		{"Does this handle nested includes?", grace.ID},
		{"Dedup by type and id, nice.", grace.ID},
	}
	for _, c := range comments {
		row, err := s.create(ctx, "comment", map[string]any{
			"body":      c.body,
			"createdAt": s.clock.Now(),
			"postId":    post.ID,
			"userId":    c.userID,
		})
		if err != nil {
			return f, err
		}
		f.Comments = append(f.Comments, row)
	}

	return f, nil
}

func (s *Seeder) create(ctx context.Context, resource string, fields map[string]any) (blog.Row, error) {
	row, err := s.store.Create(ctx, resource, fields)
	if err != nil {
		return blog.Row{}, fmt.Errorf("seed %s: %w", resource, err)
	}
	return row, nil
}
