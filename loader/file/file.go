// Package file is the filesystem-backed Loader: resource paths are
// slash-separated and resolved relative to a root directory.
package file

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/unkn0wn-root/resload/loader"
)

type Loader struct {
	root string
}

var _ loader.Loader = (*Loader)(nil)

// New returns a Loader rooted at root. The directory is not checked here;
// a missing root surfaces as NotFound on every load.
func New(root string) *Loader {
	return &Loader{root: root}
}

// Root returns the directory paths are resolved against.
func (l *Loader) Root() string { return l.root }

// Load opens root/path and reads it in full. Any failure to open maps to
// loader.ErrNotFound; a failure after the file was opened is returned as is.
func (l *Loader) Load(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rel := filepath.FromSlash(path)
	if !filepath.IsLocal(rel) {
		return nil, fmt.Errorf("%w: %q", loader.ErrInvalidPath, path)
	}

	f, err := os.Open(filepath.Join(l.root, rel))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", loader.ErrNotFound, path, err)
	}
	defer f.Close()

	b, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return b, nil
}
