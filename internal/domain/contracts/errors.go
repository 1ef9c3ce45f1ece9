package contracts

import (
	"errors"
	"fmt"
)

var (
	ErrMalformedIdentity = errors.New("malformed contract identity")
	ErrSlugCollision     = errors.New("contract slug collision")
)

// MalformedIdentityError is returned when a canonical name cannot be mapped
// back to a nested source path.
type MalformedIdentityError struct {
	Name string
}

func (e *MalformedIdentityError) Error() string {
	return fmt.Sprintf("%s: %q needs at least 2 %q-separated segments", ErrMalformedIdentity, e.Name, Separator)
}

func (e *MalformedIdentityError) Unwrap() error { return ErrMalformedIdentity }

// SlugCollisionError is returned when two canonical names collapse to the
// same slug within one listing.
type SlugCollisionError struct {
	Slug   string
	First  string
	Second string
}

func (e *SlugCollisionError) Error() string {
	return fmt.Sprintf("%s: %q and %q both map to %q", ErrSlugCollision, e.First, e.Second, e.Slug)
}

func (e *SlugCollisionError) Unwrap() error { return ErrSlugCollision }
