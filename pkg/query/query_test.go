package query

import (
	"strings"
	"testing"

	"github.com/fsworks/featurestore-go/pkg/featurestore"
)

func TestToSQLSimple(t *testing.T) {
	q := New("fs_fraud", FeatureGroup{Name: "transactions", Version: 1},
		"tx_id", "amount", "merchant")

	sqlStr, args, err := q.ToSQL()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "SELECT fg0.tx_id, fg0.amount, fg0.merchant FROM fs_fraud.transactions_1 AS fg0"
	if sqlStr != want {
		t.Errorf("got %q, want %q", sqlStr, want)
	}
	if len(args) != 0 {
		t.Errorf("expected no args, got %v", args)
	}
}

func TestToSQLJoin(t *testing.T) {
	q := New("fs_fraud", FeatureGroup{Name: "transactions", Version: 1}, "tx_id", "amount").
		Join(FeatureGroup{Name: "customers", Version: 2}, []string{"customer_id"}, "age", "segment")

	sqlStr, _, err := q.ToSQL()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(sqlStr, "JOIN fs_fraud.customers_2 AS fg1 ON fg0.customer_id = fg1.customer_id") {
		t.Errorf("missing join clause in %q", sqlStr)
	}
	if !strings.Contains(sqlStr, "fg1.age, fg1.segment") {
		t.Errorf("joined features missing from selection: %q", sqlStr)
	}
}

func TestToSQLCompositeJoinKeys(t *testing.T) {
	q := New("fs_iot", FeatureGroup{Name: "readings", Version: 1}, "value").
		Join(FeatureGroup{Name: "devices", Version: 1}, []string{"device_id", "site_id"}, "model")

	sqlStr, _, err := q.ToSQL()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(sqlStr, "fg0.device_id = fg1.device_id AND fg0.site_id = fg1.site_id") {
		t.Errorf("composite key join missing: %q", sqlStr)
	}
}

func TestToSQLFilters(t *testing.T) {
	q := New("fs_fraud", FeatureGroup{Name: "transactions", Version: 1}, "tx_id").
		Filter("amount", OpGt, 100).
		Filter("merchant", OpLike, "acme%")

	sqlStr, args, err := q.ToSQL()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(sqlStr, "fg0.amount > $1") {
		t.Errorf("expected dollar placeholder filter, got %q", sqlStr)
	}
	if !strings.Contains(sqlStr, "fg0.merchant LIKE $2") {
		t.Errorf("expected LIKE filter, got %q", sqlStr)
	}
	if len(args) != 2 || args[0] != 100 || args[1] != "acme%" {
		t.Errorf("unexpected args %v", args)
	}
}

func TestToSQLValidation(t *testing.T) {
	tests := []struct {
		name string
		q    *Query
	}{
		{name: "nil query", q: nil},
		{name: "missing root", q: New("fs", FeatureGroup{}, "a")},
		{name: "no features", q: New("fs", FeatureGroup{Name: "fg", Version: 1})},
		{
			name: "join without keys",
			q: New("fs", FeatureGroup{Name: "fg", Version: 1}, "a").
				Join(FeatureGroup{Name: "other", Version: 1}, nil, "b"),
		},
		{
			name: "bad operator",
			q: New("fs", FeatureGroup{Name: "fg", Version: 1}, "a").
				Filter("a", Operator("IN"), 1),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := tt.q.ToSQL()
			if err == nil {
				t.Fatal("expected error")
			}
			if !featurestore.IsFeatureStoreError(err) {
				t.Errorf("expected domain error, got %T", err)
			}
		})
	}
}
