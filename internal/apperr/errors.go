// Package apperr defines the error taxonomy shared across Quire.
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound              = errors.New("not found")
	ErrSchema                = errors.New("schema error")
	ErrDuplicateSlug         = errors.New("duplicate slug")
	ErrDependencyUnavailable = errors.New("dependency unavailable")
)

// SchemaError reports a malformed or incomplete frontmatter field.
type SchemaError struct {
	Path   string
	Field  string
	Reason string
}

func (e *SchemaError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s: field %q: %s", ErrSchema, e.Field, e.Reason)
	}
	return fmt.Sprintf("%s: %s: field %q: %s", ErrSchema, e.Path, e.Field, e.Reason)
}

func (e *SchemaError) Unwrap() error { return ErrSchema }

// DuplicateSlugError reports two documents resolving to the same slug.
// First and Second are source paths when known.
type DuplicateSlugError struct {
	Slug   string
	First  string
	Second string
}

func (e *DuplicateSlugError) Error() string {
	if e.First == "" && e.Second == "" {
		return fmt.Sprintf("%s: %q", ErrDuplicateSlug, e.Slug)
	}
	return fmt.Sprintf("%s: %q used by %s and %s", ErrDuplicateSlug, e.Slug, e.First, e.Second)
}

func (e *DuplicateSlugError) Unwrap() error { return ErrDuplicateSlug }

// DependencyUnavailableError reports a failed lookup against an external store.
type DependencyUnavailableError struct {
	Dependency string
	Err        error
}

func (e *DependencyUnavailableError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrDependencyUnavailable, e.Dependency, e.Err)
}

// Is matches ErrDependencyUnavailable; the wrapped cause stays reachable via Unwrap.
func (e *DependencyUnavailableError) Is(target error) bool {
	return target == ErrDependencyUnavailable
}

func (e *DependencyUnavailableError) Unwrap() error { return e.Err }
