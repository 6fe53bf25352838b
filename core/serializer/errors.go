package serializer

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingPrimaryKey is matched by every MissingPrimaryKeyError.
	ErrMissingPrimaryKey = errors.New("missing primary key")

	// ErrUnresolvableRelation is matched by every RelationError.
	ErrUnresolvableRelation = errors.New("unresolvable relation")
)

// MissingPrimaryKeyError reports a record whose primary key could not be
// read. It aborts the whole Format call.
type MissingPrimaryKeyError struct {
	Type string
	Err  error
}

func (e *MissingPrimaryKeyError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: missing primary key: %v", e.Type, e.Err)
	}
	return fmt.Sprintf("%s: missing primary key", e.Type)
}

func (e *MissingPrimaryKeyError) Is(target error) bool {
	return target == ErrMissingPrimaryKey
}

func (e *MissingPrimaryKeyError) Unwrap() error {
	return e.Err
}

// RelationError reports a declared relation whose resolution failed in the
// model layer.
type RelationError struct {
	Type     string
	ID       string
	Relation string
	Err      error
}

func (e *RelationError) Error() string {
	return fmt.Sprintf("%s %s: resolve relation %q: %v", e.Type, e.ID, e.Relation, e.Err)
}

func (e *RelationError) Is(target error) bool {
	return target == ErrUnresolvableRelation
}

func (e *RelationError) Unwrap() error {
	return e.Err
}
