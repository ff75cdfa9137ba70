// Package local provides an in-process data engine that materializes
// training datasets from the offline feature store.
package local

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/fsworks/featurestore-go/pkg/connector"
	"github.com/fsworks/featurestore-go/pkg/connector/jdbc"
	"github.com/fsworks/featurestore-go/pkg/dataframe"
	"github.com/fsworks/featurestore-go/pkg/engine"
	"github.com/fsworks/featurestore-go/pkg/featurestore"
	"github.com/fsworks/featurestore-go/pkg/formats"
	"github.com/fsworks/featurestore-go/pkg/query"
)

// Engine executes feature queries against the offline store and writes the
// result set through a storage connector.
type Engine struct {
	engine.Options

	db    *sql.DB
	utils *connector.Utils
	log   *slog.Logger
}

// New creates a local engine. db is the offline feature store connection.
func New(db *sql.DB, utils *connector.Utils, logger *slog.Logger) (*Engine, error) {
	if db == nil {
		return nil, featurestore.NewError(featurestore.CodeValidation, "offline store connection is required")
	}
	if utils == nil {
		utils = connector.NewUtils()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{db: db, utils: utils, log: logger}, nil
}

// Name returns the engine name.
func (e *Engine) Name() string { return "local" }

// Write materializes the query result to the dataset's location. With splits
// defined, rows are assigned to splits by seeded random sampling and each
// split lands under its own prefix; otherwise everything lands under the
// dataset name.
func (e *Engine) Write(ctx context.Context, td *featurestore.TrainingDataset, q *query.Query, _ map[string]string, options map[string]string, mode engine.SaveMode) error {
	sqlStr, args, err := q.ToSQL()
	if err != nil {
		return err
	}
	if td.Location == "" {
		return featurestore.NewError(featurestore.CodeValidation, "training dataset has no location; save it first")
	}

	rows, err := e.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return featurestore.WrapError(featurestore.CodeValidation, "resolving query against offline store", err)
	}
	reader, err := jdbc.NewRowsReader(rows)
	if err != nil {
		return featurestore.WrapError(featurestore.CodeValidation, "reading query result", err)
	}
	frame, err := dataframe.ReadAll(reader)
	if err != nil {
		return fmt.Errorf("draining query result: %w", err)
	}

	provider, err := e.utils.Resolve(ctx, td.StorageConnector)
	if err != nil {
		return err
	}
	encoder, err := formats.NewEncoder(td.DataFormat, options)
	if err != nil {
		return err
	}
	ext := formats.Extension(td.DataFormat, options)

	parts := partition(td, frame)
	for _, part := range parts {
		prefix := featurestore.JoinPath(td.Location, part.name)
		if mode == engine.ModeOverwrite {
			if err := provider.Remove(ctx, prefix); err != nil {
				return err
			}
		}
		path := featurestore.JoinPath(prefix, "part-00000"+ext)
		w, err := provider.OpenWrite(ctx, path)
		if err != nil {
			return err
		}
		if err := encoder.Encode(w, frame.Columns, part.rows); err != nil {
			_ = w.Close()
			return fmt.Errorf("encoding %s: %w", path, err)
		}
		if err := w.Close(); err != nil {
			return fmt.Errorf("committing %s: %w", path, err)
		}
		e.log.Info("materialized training dataset partition",
			"name", td.Name,
			"version", td.Version,
			"partition", part.name,
			"rows", len(part.rows),
			"path", path)
	}
	return nil
}

type part struct {
	name string
	rows [][]any
}

// partition assigns rows to splits by seeded random sampling over the
// cumulative split percentages. Without splits the whole frame lands under
// the dataset name.
func partition(td *featurestore.TrainingDataset, frame *dataframe.Frame) []part {
	if len(td.Splits) == 0 {
		return []part{{name: td.Name, rows: frame.Rows}}
	}

	cumulative := make([]float64, len(td.Splits))
	total := 0.0
	for i, s := range td.Splits {
		total += s.Percentage
		cumulative[i] = total
	}

	parts := make([]part, len(td.Splits))
	for i, s := range td.Splits {
		parts[i].name = s.Name
	}

	rng := rand.New(rand.NewSource(td.Seed)) // #nosec G404 -- split sampling, not crypto
	for _, row := range frame.Rows {
		x := rng.Float64() * total
		idx := len(parts) - 1
		for i, c := range cumulative {
			if x < c {
				idx = i
				break
			}
		}
		parts[idx].rows = append(parts[idx].rows, row)
	}
	return parts
}

// Verify interface compliance.
var _ engine.Engine = (*Engine)(nil)
