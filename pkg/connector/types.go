// Package connector resolves storage connectors into readable and writable
// data sources.
package connector

import (
	"context"
	"io"
)

// Source describes a logical data source behind a storage connector. For
// filesystem-backed connectors Path is a directory or object prefix; for
// JDBC connectors it is a table name.
type Source struct {
	Path string `json:"path"`
}

// Provider is a file-oriented storage backend resolved from a connector.
type Provider interface {
	// Name returns the provider name.
	Name() string

	// OpenRead opens a single object or file for reading.
	OpenRead(ctx context.Context, path string) (io.ReadCloser, error)

	// OpenWrite creates or replaces a single object or file. The returned
	// writer must be closed to commit the data.
	OpenWrite(ctx context.Context, path string) (io.WriteCloser, error)

	// List returns the data file paths under a prefix, sorted.
	List(ctx context.Context, prefix string) ([]string, error)

	// Remove deletes everything under a prefix. Removing a prefix that
	// does not exist is not an error.
	Remove(ctx context.Context, prefix string) error
}
