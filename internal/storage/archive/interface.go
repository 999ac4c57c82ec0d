// internal/storage/archive/interface.go
package archive

import (
	"context"
	"fmt"
)

// Storage defines the interface for result and cache storage backends.
// Paths are slash separated and relative to the backend root.
type Storage interface {
	// Write stores data at the given path
	Write(ctx context.Context, path string, data []byte) error

	// Read retrieves data from the given path. A missing path yields an
	// error matching core.ErrNoData.
	Read(ctx context.Context, path string) ([]byte, error)

	// List returns all paths matching the prefix
	List(ctx context.Context, prefix string) ([]string, error)

	// Delete removes the data at the given path
	Delete(ctx context.Context, path string) error

	// Exists checks if data exists at the given path
	Exists(ctx context.Context, path string) (bool, error)
}

// Options selects and configures a backend.
type Options struct {
	Type string // "localfs" or "s3"
	Path string
	S3   S3Config
}

// Open builds the backend named by opts.Type.
func Open(opts Options) (Storage, error) {
	switch opts.Type {
	case "", "localfs":
		return NewLocalFS(opts.Path)
	case "s3":
		return NewS3(opts.S3)
	default:
		return nil, fmt.Errorf("unknown storage type: %s", opts.Type)
	}
}
