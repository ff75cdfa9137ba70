// Package dataframe provides the tabular result types returned by reads.
package dataframe

import "io"

// Frame is a fully materialized tabular result.
type Frame struct {
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
	Count   int      `json:"count"`
}

// RowReader streams rows of a tabular result. Implementations are lazy:
// underlying storage is consumed as Next is called.
type RowReader interface {
	// Columns returns the column names, in order.
	Columns() []string

	// Next returns the next row, or io.EOF when exhausted.
	Next() ([]any, error)

	// Close releases underlying resources.
	Close() error
}

// ReadAll drains a RowReader into a Frame and closes it.
func ReadAll(r RowReader) (*Frame, error) {
	defer func() { _ = r.Close() }()

	frame := &Frame{Columns: r.Columns()}
	for {
		row, err := r.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		frame.Rows = append(frame.Rows, row)
	}
	frame.Count = len(frame.Rows)
	return frame, nil
}

// SliceReader adapts an in-memory frame to the RowReader interface.
type SliceReader struct {
	columns []string
	rows    [][]any
	pos     int
}

// NewSliceReader creates a RowReader over in-memory rows.
func NewSliceReader(columns []string, rows [][]any) *SliceReader {
	return &SliceReader{columns: columns, rows: rows}
}

// Columns returns the column names.
func (s *SliceReader) Columns() []string { return s.columns }

// Next returns the next row, or io.EOF when exhausted.
func (s *SliceReader) Next() ([]any, error) {
	if s.pos >= len(s.rows) {
		return nil, io.EOF
	}
	row := s.rows[s.pos]
	s.pos++
	return row, nil
}

// Close is a no-op for in-memory readers.
func (s *SliceReader) Close() error { return nil }

// Verify interface compliance.
var _ RowReader = (*SliceReader)(nil)
