// Package featurestore defines the core descriptors shared across the SDK.
//
//nolint:revive // package contains related DTO types
package featurestore

import "fmt"

// DataFormat identifies the on-disk format of a training dataset.
type DataFormat string

// Supported data formats.
const (
	FormatCSV  DataFormat = "csv"
	FormatTSV  DataFormat = "tsv"
	FormatJSON DataFormat = "json"
)

// Valid reports whether the format is one the SDK can materialize.
func (f DataFormat) Valid() bool {
	switch f {
	case FormatCSV, FormatTSV, FormatJSON:
		return true
	}
	return false
}

// ConnectorType identifies the storage system behind a connector.
type ConnectorType string

// Supported connector types.
const (
	ConnectorHopsFS ConnectorType = "HOPSFS"
	ConnectorS3     ConnectorType = "S3"
	ConnectorJDBC   ConnectorType = "JDBC"
)

// StorageConnector is a configured reference to an external storage system.
// Access parameters are type-specific; unused fields stay empty.
type StorageConnector struct {
	ID     int           `json:"id,omitempty"`
	Name   string        `json:"name"`
	Type   ConnectorType `json:"storageConnectorType"`
	Bucket string        `json:"bucket,omitempty"`
	Region string        `json:"region,omitempty"`

	// S3 credentials.
	AccessKey string `json:"accessKey,omitempty"`
	SecretKey string `json:"secretKey,omitempty"`
	Endpoint  string `json:"endpoint,omitempty"`

	// JDBC connection.
	ConnectionString string            `json:"connectionString,omitempty"`
	Arguments        map[string]string `json:"arguments,omitempty"`
}

// Split is a named subset of a training dataset, e.g. train/test/validation.
type Split struct {
	Name       string  `json:"name"`
	Percentage float64 `json:"percentage"`
}

// TrainingDataset is a named, versioned snapshot of feature data prepared for
// model training. Version, location, id and storage connector are
// authoritative only after a successful create call; before that they are
// client-supplied hints (version 0 means "let the server assign one").
type TrainingDataset struct {
	ID               int               `json:"id,omitempty"`
	Name             string            `json:"name"`
	Version          int               `json:"version,omitempty"`
	Description      string            `json:"description,omitempty"`
	DataFormat       DataFormat        `json:"dataFormat"`
	Location         string            `json:"location,omitempty"`
	StorageConnector *StorageConnector `json:"storageConnector,omitempty"`
	Splits           []Split           `json:"splits,omitempty"`
	Labels           []string          `json:"label,omitempty"`
	Seed             int64             `json:"seed,omitempty"`
	FeatureStoreID   int               `json:"featurestoreId,omitempty"`
}

// Validate checks the client-side preconditions for registering the dataset.
func (td *TrainingDataset) Validate() error {
	if td.Name == "" {
		return NewError(CodeValidation, "training dataset name is required")
	}
	if !td.DataFormat.Valid() {
		return NewError(CodeValidation, fmt.Sprintf("unsupported data format %q", td.DataFormat))
	}
	if td.Version < 0 {
		return NewError(CodeValidation, "training dataset version cannot be negative")
	}
	var total float64
	for _, s := range td.Splits {
		if s.Name == "" {
			return NewError(CodeValidation, "split name is required")
		}
		if s.Percentage <= 0 || s.Percentage >= 1 {
			return NewError(CodeValidation, fmt.Sprintf("split %q percentage must be in (0, 1)", s.Name))
		}
		total += s.Percentage
	}
	if len(td.Splits) > 0 && (total < 0.999 || total > 1.001) {
		return NewError(CodeValidation, "split percentages must sum to 1")
	}
	return nil
}
