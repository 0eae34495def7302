// Package repository implements the persistence contract over MySQL.
// Sentinel errors defined here let handlers translate failures into
// HTTP responses without inspecting SQL details.
package repository

import "errors"

// ErrNotFound is returned when a requested row does not exist.
// Handlers translate it into HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrTooManyImages enforces the creation-time cap of three images per
// request.  The cap lives in the store, not in the schema.
var ErrTooManyImages = errors.New("a request may carry at most 3 images")
