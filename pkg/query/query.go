// Package query builds the logical feature queries materialized into
// training datasets.
package query

import (
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/fsworks/featurestore-go/pkg/featurestore"
)

// psq is the offline-store statement builder with dollar placeholders.
var psq = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// FeatureGroup identifies a versioned feature group in the offline store.
// Offline tables follow the `{schema}.{name}_{version}` convention.
type FeatureGroup struct {
	Name    string
	Version int
}

func (fg FeatureGroup) table(schema string) string {
	return fmt.Sprintf("%s.%s_%d", schema, fg.Name, fg.Version)
}

// Operator is a filter comparison operator.
type Operator string

// Supported filter operators.
const (
	OpEq   Operator = "="
	OpNe   Operator = "!="
	OpGt   Operator = ">"
	OpGe   Operator = ">="
	OpLt   Operator = "<"
	OpLe   Operator = "<="
	OpLike Operator = "LIKE"
)

// Filter restricts the rows selected from a feature group.
type Filter struct {
	Feature string
	Op      Operator
	Value   any
}

type join struct {
	group    FeatureGroup
	on       []string
	features []string
}

// Query is the logical description of the feature data to materialize. It is
// opaque to the training dataset facade; the data engine resolves it.
type Query struct {
	schema   string
	root     FeatureGroup
	features []string
	joins    []join
	filters  []Filter
}

// New starts a query selecting features from a root feature group. The
// schema is the feature store's offline database schema.
func New(schema string, root FeatureGroup, features ...string) *Query {
	return &Query{schema: schema, root: root, features: features}
}

// Join inner-joins another feature group on the given key columns and adds
// its features to the selection. Returns the query for chaining.
func (q *Query) Join(group FeatureGroup, on []string, features ...string) *Query {
	q.joins = append(q.joins, join{group: group, on: on, features: features})
	return q
}

// Filter adds a row filter on a feature of the root group.
func (q *Query) Filter(feature string, op Operator, value any) *Query {
	q.filters = append(q.filters, Filter{Feature: feature, Op: op, Value: value})
	return q
}

// ToSQL renders the logical query for the offline store.
func (q *Query) ToSQL() (string, []any, error) {
	if q == nil {
		return "", nil, featurestore.NewError(featurestore.CodeValidation, "query is nil")
	}
	if q.root.Name == "" {
		return "", nil, featurestore.NewError(featurestore.CodeValidation, "query root feature group is required")
	}
	if len(q.features) == 0 {
		return "", nil, featurestore.NewError(featurestore.CodeValidation, "query selects no features")
	}

	cols := make([]string, 0, len(q.features))
	for _, f := range q.features {
		cols = append(cols, "fg0."+f)
	}
	for i, j := range q.joins {
		alias := fmt.Sprintf("fg%d", i+1)
		for _, f := range j.features {
			cols = append(cols, alias+"."+f)
		}
	}

	builder := psq.Select(cols...).From(q.root.table(q.schema) + " AS fg0")

	for i, j := range q.joins {
		if len(j.on) == 0 {
			return "", nil, featurestore.NewError(featurestore.CodeValidation,
				fmt.Sprintf("join with %s has no key columns", j.group.Name))
		}
		alias := fmt.Sprintf("fg%d", i+1)
		cond := ""
		for k, key := range j.on {
			if k > 0 {
				cond += " AND "
			}
			cond += fmt.Sprintf("fg0.%s = %s.%s", key, alias, key)
		}
		builder = builder.Join(fmt.Sprintf("%s AS %s ON %s", j.group.table(q.schema), alias, cond))
	}

	for _, f := range q.filters {
		col := "fg0." + f.Feature
		switch f.Op {
		case OpEq:
			builder = builder.Where(sq.Eq{col: f.Value})
		case OpNe:
			builder = builder.Where(sq.NotEq{col: f.Value})
		case OpGt:
			builder = builder.Where(sq.Gt{col: f.Value})
		case OpGe:
			builder = builder.Where(sq.GtOrEq{col: f.Value})
		case OpLt:
			builder = builder.Where(sq.Lt{col: f.Value})
		case OpLe:
			builder = builder.Where(sq.LtOrEq{col: f.Value})
		case OpLike:
			builder = builder.Where(sq.Like{col: f.Value})
		default:
			return "", nil, featurestore.NewError(featurestore.CodeValidation,
				fmt.Sprintf("unsupported filter operator %q", f.Op))
		}
	}

	sqlStr, args, err := builder.ToSql()
	if err != nil {
		return "", nil, featurestore.WrapError(featurestore.CodeValidation, "rendering query", err)
	}
	return sqlStr, args, nil
}
