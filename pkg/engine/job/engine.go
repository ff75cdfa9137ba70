// Package job provides a data engine that delegates training dataset
// materialization to the platform's job service.
package job

import (
	"context"
	"log/slog"
	"time"

	"github.com/fsworks/featurestore-go/pkg/engine"
	"github.com/fsworks/featurestore-go/pkg/featurestore"
	"github.com/fsworks/featurestore-go/pkg/metadata"
	"github.com/fsworks/featurestore-go/pkg/query"
)

const defaultPollInterval = 3 * time.Second

// Engine submits a server-side materialization job and waits for it to
// reach a terminal state.
type Engine struct {
	engine.Options

	meta metadata.Client
	poll time.Duration
	log  *slog.Logger
}

// New creates a job engine. meta submits and polls materialization jobs.
func New(meta metadata.Client, logger *slog.Logger) (*Engine, error) {
	if meta == nil {
		return nil, featurestore.NewError(featurestore.CodeValidation, "metadata client is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{meta: meta, poll: defaultPollInterval, log: logger}, nil
}

// SetPollInterval overrides how often the engine polls job state.
func (e *Engine) SetPollInterval(d time.Duration) {
	if d > 0 {
		e.poll = d
	}
}

// Name returns the engine name.
func (e *Engine) Name() string { return "job" }

// Write submits a materialization job for the dataset and blocks until the
// execution reaches a terminal state. A terminal state other than FINISHED
// is reported as a job failure.
func (e *Engine) Write(ctx context.Context, td *featurestore.TrainingDataset, q *query.Query, _ map[string]string, options map[string]string, mode engine.SaveMode) error {
	sqlStr, args, err := q.ToSQL()
	if err != nil {
		return err
	}
	conf := metadata.JobConf{
		Query:        sqlStr,
		QueryArgs:    args,
		Overwrite:    mode == engine.ModeOverwrite,
		WriteOptions: options,
	}

	exec, err := e.meta.ComputeTrainingDataset(ctx, td.ID, conf)
	if err != nil {
		return err
	}
	e.log.Info("submitted materialization job",
		"name", td.Name,
		"version", td.Version,
		"job", exec.JobName,
		"execution", exec.ID)

	exec, err = e.await(ctx, exec)
	if err != nil {
		return err
	}
	if !exec.Succeeded() {
		return featurestore.NewError(featurestore.CodeJobFailed,
			"materialization job "+exec.JobName+" ended in state "+exec.State)
	}
	e.log.Info("materialization job finished",
		"name", td.Name,
		"version", td.Version,
		"job", exec.JobName,
		"execution", exec.ID)
	return nil
}

// await polls the execution until it is terminal or the context ends.
func (e *Engine) await(ctx context.Context, exec *metadata.Execution) (*metadata.Execution, error) {
	if exec.Terminal() {
		return exec, nil
	}

	ticker := time.NewTicker(e.poll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, featurestore.WrapError(featurestore.CodeJobFailed,
				"waiting for materialization job "+exec.JobName, ctx.Err())
		case <-ticker.C:
		}

		cur, err := e.meta.GetExecution(ctx, exec.JobName, exec.ID)
		if err != nil {
			return nil, err
		}
		if cur.State != exec.State {
			e.log.Debug("materialization job state changed",
				"job", cur.JobName,
				"execution", cur.ID,
				"state", cur.State,
				"progress", cur.Progress)
		}
		if cur.Terminal() {
			return cur, nil
		}
		exec = cur
	}
}

// Verify interface compliance.
var _ engine.Engine = (*Engine)(nil)
