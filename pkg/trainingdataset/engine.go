// Package trainingdataset orchestrates training dataset creation, reads and
// deletion across the metadata service, a data engine and storage
// connectors.
package trainingdataset

import (
	"context"
	"log/slog"

	"github.com/fsworks/featurestore-go/pkg/connector"
	"github.com/fsworks/featurestore-go/pkg/dataframe"
	"github.com/fsworks/featurestore-go/pkg/engine"
	"github.com/fsworks/featurestore-go/pkg/featurestore"
	"github.com/fsworks/featurestore-go/pkg/metadata"
	"github.com/fsworks/featurestore-go/pkg/query"
)

// Engine is the training dataset facade. The metadata client owns version
// allocation and locations, the data engine moves the bulk data, the
// connector utils resolve storage for reads.
type Engine struct {
	meta  metadata.Client
	data  engine.Engine
	utils *connector.Utils
	log   *slog.Logger
}

// New creates a training dataset engine.
func New(meta metadata.Client, data engine.Engine, utils *connector.Utils, logger *slog.Logger) (*Engine, error) {
	if meta == nil {
		return nil, featurestore.NewError(featurestore.CodeValidation, "metadata client is required")
	}
	if data == nil {
		return nil, featurestore.NewError(featurestore.CodeValidation, "data engine is required")
	}
	if utils == nil {
		utils = connector.NewUtils()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{meta: meta, data: data, utils: utils, log: logger}, nil
}

// Save registers the dataset with the metadata service, mirrors the
// server-assigned version, location, id and storage connector onto td, then
// materializes the query's result set at the assigned location with
// overwrite semantics. Metadata registration failures leave td untouched
// and trigger no write.
func (e *Engine) Save(ctx context.Context, td *featurestore.TrainingDataset, q *query.Query, userWriteOptions map[string]string, labels []string) error {
	if td == nil {
		return featurestore.NewError(featurestore.CodeValidation, "training dataset is required")
	}
	if q == nil {
		return featurestore.NewError(featurestore.CodeValidation, "query is required")
	}

	candidate := *td
	if len(labels) > 0 {
		candidate.Labels = labels
	}
	if err := candidate.Validate(); err != nil {
		return err
	}

	created, err := e.meta.CreateTrainingDataset(ctx, candidate)
	if err != nil {
		return err
	}
	if td.Version == 0 {
		e.log.Info("no version provided for training dataset, using server-assigned version",
			"name", td.Name,
			"version", created.Version)
	}

	*td = featurestore.ApplyServerPatch(candidate, *created)

	options := e.data.WriteOptions(userWriteOptions, td.DataFormat)
	return e.data.Write(ctx, td, q, nil, options, engine.ModeOverwrite)
}

// Read opens the dataset's materialized data for streaming. A non-empty
// split reads that split's prefix, otherwise the whole dataset under its
// name. Data is read lazily from storage on every call.
func (e *Engine) Read(ctx context.Context, td *featurestore.TrainingDataset, split string, userReadOptions map[string]string) (dataframe.RowReader, error) {
	if td == nil {
		return nil, featurestore.NewError(featurestore.CodeValidation, "training dataset is required")
	}
	if td.Location == "" {
		return nil, featurestore.NewError(featurestore.CodeValidation, "training dataset has no location; save it first")
	}

	sub := split
	if sub == "" {
		sub = td.Name
	}
	path := featurestore.JoinPath(td.Location, sub)
	options := e.data.ReadOptions(userReadOptions, td.DataFormat)
	return e.utils.Read(ctx, td.StorageConnector, connector.Source{Path: path}, td.DataFormat, options)
}

// Get fetches a dataset descriptor by name. Version 0 resolves the latest.
func (e *Engine) Get(ctx context.Context, name string, version int) (*featurestore.TrainingDataset, error) {
	if name == "" {
		return nil, featurestore.NewError(featurestore.CodeValidation, "training dataset name is required")
	}
	return e.meta.GetTrainingDataset(ctx, name, version)
}

// Delete removes the dataset's metadata record and its data.
func (e *Engine) Delete(ctx context.Context, td *featurestore.TrainingDataset) error {
	if td == nil || td.ID == 0 {
		return featurestore.NewError(featurestore.CodeValidation, "training dataset id is required")
	}
	err := e.meta.DeleteTrainingDataset(ctx, td.ID)
	if err != nil {
		return err
	}
	e.log.Info("deleted training dataset", "name", td.Name, "version", td.Version, "id", td.ID)
	return nil
}
