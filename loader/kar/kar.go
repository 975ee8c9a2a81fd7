// Package kar serves resources out of a kar archive.
package kar

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/unkn0wn-root/resload/archive/kar"
	"github.com/unkn0wn-root/resload/loader"
)

type Loader struct {
	a *kar.Archive
}

var _ loader.Loader = (*Loader)(nil)

func New(a *kar.Archive) *Loader { return &Loader{a: a} }

// Load returns the entry named path. Missing entries satisfy
// loader.ErrNotFound; a damaged entry is a plain read error.
func (l *Loader) Load(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !fs.ValidPath(path) {
		return nil, fmt.Errorf("%w: %q", loader.ErrInvalidPath, path)
	}
	b, err := l.a.ReadAll(path)
	if err != nil {
		if errors.Is(err, loader.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("kar loader: %w", err)
	}
	return b, nil
}
