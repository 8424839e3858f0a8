package storage

import (
	"context"
	"errors"
	"io"
)

// ErrStorageUnavailable indicates no storage backend is configured.
var ErrStorageUnavailable = errors.New("upload storage unavailable")

// Storage persists uploaded binaries and returns the location they can be
// fetched from. Implementations are swappable: local disk by default, S3 when
// configured.
type Storage interface {
	Save(ctx context.Context, name string, r io.Reader) (string, error)
}
