// Package jdbc reads external SQL tables referenced by JDBC storage
// connectors.
package jdbc

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"regexp"

	// postgres driver for JDBC-style connectors
	_ "github.com/lib/pq"

	"github.com/fsworks/featurestore-go/pkg/dataframe"
	"github.com/fsworks/featurestore-go/pkg/featurestore"
)

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.]*$`)

// Open connects to the database behind a JDBC connector.
func Open(conn *featurestore.StorageConnector) (*sql.DB, error) {
	if conn.ConnectionString == "" {
		return nil, featurestore.NewError(featurestore.CodeValidation,
			fmt.Sprintf("jdbc connector %q has no connection string", conn.Name))
	}
	driver := conn.Arguments["driver"]
	if driver == "" {
		driver = "postgres"
	}
	db, err := sql.Open(driver, conn.ConnectionString)
	if err != nil {
		return nil, fmt.Errorf("opening jdbc connection: %w", err)
	}
	return db, nil
}

// ReadTable streams a table snapshot as rows. The table name must be a plain
// identifier; it is interpolated into the statement, not parameterized.
func ReadTable(ctx context.Context, db *sql.DB, table string) (dataframe.RowReader, error) {
	if !identPattern.MatchString(table) {
		return nil, featurestore.NewError(featurestore.CodeValidation,
			fmt.Sprintf("invalid table name %q", table))
	}
	rows, err := db.QueryContext(ctx, "SELECT * FROM "+table) // #nosec G202 -- table validated above
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", table, err)
	}
	return NewRowsReader(rows)
}

// RowsReader adapts *sql.Rows to the RowReader interface.
type RowsReader struct {
	rows    *sql.Rows
	columns []string
}

// NewRowsReader wraps a result set. It takes ownership of rows.
func NewRowsReader(rows *sql.Rows) (*RowsReader, error) {
	columns, err := rows.Columns()
	if err != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("reading columns: %w", err)
	}
	return &RowsReader{rows: rows, columns: columns}, nil
}

// Columns returns the column names.
func (r *RowsReader) Columns() []string { return r.columns }

// Next returns the next row, or io.EOF when exhausted.
func (r *RowsReader) Next() ([]any, error) {
	if !r.rows.Next() {
		if err := r.rows.Err(); err != nil {
			return nil, fmt.Errorf("scanning rows: %w", err)
		}
		return nil, io.EOF
	}
	values := make([]any, len(r.columns))
	ptrs := make([]any, len(r.columns))
	for i := range values {
		ptrs[i] = &values[i]
	}
	if err := r.rows.Scan(ptrs...); err != nil {
		return nil, fmt.Errorf("scanning row: %w", err)
	}
	for i, v := range values {
		if b, ok := v.([]byte); ok {
			values[i] = string(b)
		}
	}
	return values, nil
}

// Close releases the result set.
func (r *RowsReader) Close() error { return r.rows.Close() }

// Verify interface compliance.
var _ dataframe.RowReader = (*RowsReader)(nil)
