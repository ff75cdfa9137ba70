// Package metadata provides the REST client for the feature store metadata
// service.
package metadata

import (
	"context"

	"github.com/fsworks/featurestore-go/pkg/featurestore"
)

// Client is the metadata service contract used by the SDK. The server owns
// version allocation, dataset locations and storage connector resolution.
type Client interface {
	// CreateTrainingDataset registers a training dataset and returns the
	// authoritative descriptor with server-assigned version, location, id
	// and storage connector.
	CreateTrainingDataset(ctx context.Context, td featurestore.TrainingDataset) (*featurestore.TrainingDataset, error)

	// GetTrainingDataset fetches a dataset by name and version. Version 0
	// means the latest version.
	GetTrainingDataset(ctx context.Context, name string, version int) (*featurestore.TrainingDataset, error)

	// DeleteTrainingDataset removes the metadata record and its data.
	DeleteTrainingDataset(ctx context.Context, id int) error

	// ComputeTrainingDataset submits a server-side materialization job.
	ComputeTrainingDataset(ctx context.Context, id int, conf JobConf) (*Execution, error)

	// GetExecution polls the state of a materialization job execution.
	GetExecution(ctx context.Context, jobName string, executionID int64) (*Execution, error)

	// Ping probes the metadata service.
	Ping(ctx context.Context) error
}

// JobConf configures a server-side training dataset materialization job.
type JobConf struct {
	Query        string            `json:"query"`
	QueryArgs    []any             `json:"queryArgs,omitempty"`
	Overwrite    bool              `json:"overwrite"`
	WriteOptions map[string]string `json:"writeOptions,omitempty"`
}

// Execution states reported by the job service.
const (
	StateInitializing = "INITIALIZING"
	StateRunning      = "RUNNING"
	StateFinished     = "FINISHED"
	StateFailed       = "FAILED"
	StateKilled       = "KILLED"
)

// Execution is one run of a materialization job.
type Execution struct {
	ID       int64  `json:"id"`
	JobName  string `json:"jobName"`
	State    string `json:"state"`
	Progress string `json:"progress,omitempty"`
}

// Terminal reports whether the execution has reached a final state.
func (e *Execution) Terminal() bool {
	switch e.State {
	case StateFinished, StateFailed, StateKilled:
		return true
	}
	return false
}

// Succeeded reports whether the execution finished successfully.
func (e *Execution) Succeeded() bool { return e.State == StateFinished }
