package dataframe

import (
	"io"
	"testing"
)

func TestSliceReader(t *testing.T) {
	r := NewSliceReader([]string{"id", "amount"}, [][]any{
		{1, 10.5},
		{2, 20.0},
	})

	if len(r.Columns()) != 2 {
		t.Fatalf("expected 2 columns, got %d", len(r.Columns()))
	}

	row, err := r.Next()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if row[0] != 1 {
		t.Errorf("expected first row id 1, got %v", row[0])
	}

	if _, err := r.Next(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := r.Next(); err != io.EOF {
		t.Errorf("expected io.EOF after last row, got %v", err)
	}
	if err := r.Close(); err != nil {
		t.Errorf("unexpected close error: %v", err)
	}
}

func TestReadAll(t *testing.T) {
	r := NewSliceReader([]string{"a"}, [][]any{{"x"}, {"y"}, {"z"}})

	frame, err := ReadAll(r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if frame.Count != 3 {
		t.Errorf("expected count 3, got %d", frame.Count)
	}
	if frame.Rows[2][0] != "z" {
		t.Errorf("expected last row z, got %v", frame.Rows[2][0])
	}
}

func TestReadAllEmpty(t *testing.T) {
	frame, err := ReadAll(NewSliceReader([]string{"a", "b"}, nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if frame.Count != 0 {
		t.Errorf("expected empty frame, got %d rows", frame.Count)
	}
	if len(frame.Columns) != 2 {
		t.Errorf("columns must survive an empty read, got %v", frame.Columns)
	}
}
