package auth

import "errors"

var (
	// ErrOrgMismatch indicates a resource belongs to a different organisation.
	ErrOrgMismatch = errors.New("org mismatch")
	// ErrNotFound indicates the resource does not exist.
	ErrNotFound = errors.New("resource not found")
)
