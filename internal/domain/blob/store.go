package blob

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("blob not found")

// Store keeps photo bytes. Upload returns the public reference persisted in
// record items; Delete and Open accept that reference.
type Store interface {
	Upload(ctx context.Context, path string, data []byte, contentType string) (ref string, err error)
	Delete(ctx context.Context, ref string) error
	Open(ctx context.Context, ref string) (data []byte, contentType string, err error)
}
