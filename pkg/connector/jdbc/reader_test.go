package jdbc

import (
	"context"
	"io"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/fsworks/featurestore-go/pkg/featurestore"
)

func TestOpenValidation(t *testing.T) {
	_, err := Open(&featurestore.StorageConnector{Name: "warehouse", Type: featurestore.ConnectorJDBC})
	if !featurestore.IsFeatureStoreError(err) {
		t.Errorf("expected domain error for missing connection string, got %v", err)
	}
}

func TestReadTable(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer func() { _ = db.Close() }()

	mock.ExpectQuery(`SELECT \* FROM features\.customers_1`).
		WillReturnRows(sqlmock.NewRows([]string{"customer_id", "age"}).
			AddRow("c-1", 31).
			AddRow("c-2", 58))

	reader, err := ReadTable(context.Background(), db, "features.customers_1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer func() { _ = reader.Close() }()

	if got := reader.Columns(); len(got) != 2 || got[0] != "customer_id" {
		t.Errorf("unexpected columns %v", got)
	}

	row, err := reader.Next()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if row[0] != "c-1" {
		t.Errorf("expected c-1, got %v", row[0])
	}
	if _, err := reader.Next(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := reader.Next(); err != io.EOF {
		t.Errorf("expected io.EOF, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestReadTableRejectsBadIdentifier(t *testing.T) {
	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer func() { _ = db.Close() }()

	_, err = ReadTable(context.Background(), db, "customers; DROP TABLE users")
	if !featurestore.IsFeatureStoreError(err) {
		t.Errorf("expected domain error for invalid identifier, got %v", err)
	}
}

func TestRowsReaderByteSlicesBecomeStrings(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer func() { _ = db.Close() }()

	mock.ExpectQuery("SELECT").
		WillReturnRows(sqlmock.NewRows([]string{"v"}).AddRow([]byte("raw")))

	reader, err := ReadTable(context.Background(), db, "t")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer func() { _ = reader.Close() }()

	row, err := reader.Next()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := row[0].(string); !ok {
		t.Errorf("expected string, got %T", row[0])
	}
}
