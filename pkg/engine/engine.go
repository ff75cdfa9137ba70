// Package engine defines the bulk data engine contract used to materialize
// training datasets.
package engine

import (
	"context"

	"github.com/fsworks/featurestore-go/pkg/featurestore"
	"github.com/fsworks/featurestore-go/pkg/formats"
	"github.com/fsworks/featurestore-go/pkg/query"
)

// SaveMode controls what happens to existing data at the destination.
type SaveMode string

// Save modes.
const (
	// ModeOverwrite replaces any existing data at the destination.
	ModeOverwrite SaveMode = "overwrite"
	// ModeAppend adds data alongside existing files.
	ModeAppend SaveMode = "append"
)

// Engine materializes feature queries into training dataset storage.
// Implementations are synchronous; any parallelism is internal.
type Engine interface {
	// Name returns the engine name.
	Name() string

	// WriteOptions computes effective write options for a format.
	WriteOptions(user map[string]string, format featurestore.DataFormat) map[string]string

	// ReadOptions computes effective read options for a format.
	ReadOptions(user map[string]string, format featurestore.DataFormat) map[string]string

	// Write materializes the query's result set to the dataset's assigned
	// location. The dataset descriptor must already carry its
	// server-assigned location and storage connector.
	Write(ctx context.Context, td *featurestore.TrainingDataset, q *query.Query, extra map[string]string, options map[string]string, mode SaveMode) error
}

// Options provides the shared option computation. Engines embed it.
type Options struct{}

// WriteOptions computes effective write options for a format.
func (Options) WriteOptions(user map[string]string, format featurestore.DataFormat) map[string]string {
	return formats.WriteOptions(format, user)
}

// ReadOptions computes effective read options for a format.
func (Options) ReadOptions(user map[string]string, format featurestore.DataFormat) map[string]string {
	return formats.ReadOptions(format, user)
}
