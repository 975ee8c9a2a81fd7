// Package loader defines the byte-source abstraction used by resload.
//
// A Loader turns a resource path into its full contents. Implementations may
// block for as long as the backing I/O takes; they report failure as an error
// value and must never panic across the call boundary.
//
// Error contract: a missing resource MUST produce an error that satisfies
// errors.Is(err, ErrNotFound). Every other error is treated as a failed read
// of a resource that exists.
package loader

import (
	"context"
	"errors"
	"io/fs"
)

var (
	// ErrNotFound reports a resource that does not exist or cannot be opened.
	// It is fs.ErrNotExist so that filesystem errors match without wrapping.
	ErrNotFound = fs.ErrNotExist

	// ErrInvalidPath reports a path that cannot be resolved against a root
	// (absolute, empty, or escaping it via "..").
	ErrInvalidPath = errors.New("loader: invalid resource path")

	// ErrNoRoute is returned by Mux when no backend handles a path.
	ErrNoRoute = errors.New("loader: no backend for path")
)

// Loader reads a resource in full.
// Must be safe for concurrent use.
type Loader interface {
	Load(ctx context.Context, path string) ([]byte, error)
}

// Func adapts a plain function to Loader.
type Func func(ctx context.Context, path string) ([]byte, error)

func (f Func) Load(ctx context.Context, path string) ([]byte, error) { return f(ctx, path) }
