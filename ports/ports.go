// Package ports defines interfaces (contracts) between layers.
// Implementations live in adapters/.
package ports

import (
	"context"
	"errors"
	"time"

	"github.com/artpar/blogapi/domain/blog"
)

// ErrNotFound is returned by stores when a record does not exist.
var ErrNotFound = errors.New("not found")

// -----------------------------------------------------------------------------
// Infrastructure Ports
// -----------------------------------------------------------------------------

// Clock abstracts time for testability.
type Clock interface {
	Now() time.Time
}

// IDGenerator generates unique identifiers (error object ids).
type IDGenerator interface {
	New() string
}

// Hasher produces one-way password digests.
type Hasher interface {
	// Digest hashes plaintext.
	Digest(plaintext string) (string, error)

	// Matches reports whether plaintext hashes to digest.
	Matches(digest, plaintext string) bool
}

// -----------------------------------------------------------------------------
// Data Store Ports
// -----------------------------------------------------------------------------

// RecordStore reads and writes rows of the resources described by a
// blog.Schema. Resource arguments accept a model name or table name.
type RecordStore interface {
	// Get returns one row, or ErrNotFound.
	Get(ctx context.Context, resource string, id int64) (blog.Row, error)

	// List returns every row of a resource ordered by id.
	List(ctx context.Context, resource string) ([]blog.Row, error)

	// Related resolves a relation of the row (resource, id). To-one
	// relations yield zero or one row; to-many relations are ordered by id,
	// many-to-many by join row id.
	Related(ctx context.Context, resource string, id int64, relation string) ([]blog.Row, error)

	// Create inserts a row and returns it with its assigned id.
	Create(ctx context.Context, resource string, fields map[string]any) (blog.Row, error)

	// Schema returns the schema the store was opened with.
	Schema() blog.Schema
}
