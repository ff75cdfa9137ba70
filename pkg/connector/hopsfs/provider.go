// Package hopsfs provides a filesystem implementation of the storage
// provider, covering HopsFS mounts and plain local paths.
package hopsfs

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
)

// Provider implements connector.Provider over the local filesystem.
type Provider struct{}

// New creates a filesystem provider.
func New() *Provider { return &Provider{} }

// Name returns the provider name.
func (p *Provider) Name() string { return "hopsfs" }

// OpenRead opens a file for reading.
func (p *Provider) OpenRead(_ context.Context, path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	return f, nil
}

// OpenWrite creates or replaces a file, creating parent directories.
func (p *Provider) OpenWrite(_ context.Context, path string) (io.WriteCloser, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("creating directory for %s: %w", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", path, err)
	}
	return f, nil
}

// List returns the regular files under a prefix, sorted.
func (p *Provider) List(_ context.Context, prefix string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(prefix, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			files = append(files, path)
		}
		return nil
	})
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", prefix, err)
	}
	sort.Strings(files)
	return files, nil
}

// Remove deletes everything under a prefix.
func (p *Provider) Remove(_ context.Context, prefix string) error {
	if err := os.RemoveAll(prefix); err != nil {
		return fmt.Errorf("removing %s: %w", prefix, err)
	}
	return nil
}
