// Package formats provides data-format codecs and effective option
// computation for training dataset reads and writes.
package formats

import (
	"github.com/fsworks/featurestore-go/pkg/featurestore"
)

// Option keys understood by the codecs.
const (
	OptionHeader      = "header"
	OptionDelimiter   = "delimiter"
	OptionCompression = "compression"
)

// CompressionGzip is the only supported compression codec.
const CompressionGzip = "gzip"

func defaults(format featurestore.DataFormat) map[string]string {
	switch format {
	case featurestore.FormatCSV:
		return map[string]string{OptionHeader: "true", OptionDelimiter: ","}
	case featurestore.FormatTSV:
		return map[string]string{OptionHeader: "true", OptionDelimiter: "\t"}
	default:
		return map[string]string{}
	}
}

func merge(format featurestore.DataFormat, user map[string]string) map[string]string {
	opts := defaults(format)
	for k, v := range user {
		opts[k] = v
	}
	return opts
}

// WriteOptions computes the effective write options for a format: the format
// defaults overlaid with the caller's options, caller values winning.
func WriteOptions(format featurestore.DataFormat, user map[string]string) map[string]string {
	return merge(format, user)
}

// ReadOptions computes the effective read options for a format, with the same
// precedence as WriteOptions.
func ReadOptions(format featurestore.DataFormat, user map[string]string) map[string]string {
	return merge(format, user)
}

// Extension returns the file extension for data written in the given format
// with the given effective options.
func Extension(format featurestore.DataFormat, options map[string]string) string {
	ext := "." + string(format)
	if options[OptionCompression] == CompressionGzip {
		ext += ".gz"
	}
	return ext
}
