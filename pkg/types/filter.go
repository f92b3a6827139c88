package types

import (
	"fmt"
	"strconv"
)

// Row is a single stored record keyed by column name.
type Row map[string]any

// String returns the column value as a string, or "" when absent or nil.
func (r Row) String(col string) string {
	switch v := r[col].(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	default:
		return fmt.Sprint(v)
	}
}

// Int returns the column value as an int64, or 0 when absent or not numeric.
func (r Row) Int(col string) int64 {
	switch v := r[col].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case int32:
		return int64(v)
	case float64:
		return int64(v)
	case bool:
		if v {
			return 1
		}
		return 0
	case string:
		n, _ := strconv.ParseInt(v, 10, 64)
		return n
	default:
		return 0
	}
}

// Bool returns the column value interpreted as a SQLite boolean.
func (r Row) Bool(col string) bool {
	if b, ok := r[col].(bool); ok {
		return b
	}
	return r.Int(col) != 0
}

// Filter selects rows. Keys are column names; a plain value means equality
// (nil means IS NULL) and a Cond applies a comparison operator.
type Filter map[string]any

// Filter operators.
const (
	OpEq   = "eq"
	OpNe   = "ne"
	OpGt   = "gt"
	OpGte  = "gte"
	OpLt   = "lt"
	OpLte  = "lte"
	OpLike = "like"
	OpIn   = "in"

	OpBetween = "between"
)

// Cond is a comparison applied to one column.
type Cond struct {
	Op    string
	Value any
}

// Ne matches values different from v.
func Ne(v any) Cond { return Cond{Op: OpNe, Value: v} }

// Gt matches values greater than v.
func Gt(v any) Cond { return Cond{Op: OpGt, Value: v} }

// Gte matches values greater than or equal to v.
func Gte(v any) Cond { return Cond{Op: OpGte, Value: v} }

// Lt matches values less than v.
func Lt(v any) Cond { return Cond{Op: OpLt, Value: v} }

// Lte matches values less than or equal to v.
func Lte(v any) Cond { return Cond{Op: OpLte, Value: v} }

// Like matches values against a SQL LIKE pattern.
func Like(pattern string) Cond { return Cond{Op: OpLike, Value: pattern} }

// In matches values contained in vs.
func In[T any](vs ...T) Cond {
	values := make([]any, len(vs))
	for i, v := range vs {
		values[i] = v
	}
	return Cond{Op: OpIn, Value: values}
}

// Between matches values in the closed range [lo, hi].
func Between(lo, hi any) Cond { return Cond{Op: OpBetween, Value: []any{lo, hi}} }

// OrderBy sorts query results by one column.
type OrderBy struct {
	Column string
	Desc   bool
}

// Asc orders by column ascending.
func Asc(column string) OrderBy { return OrderBy{Column: column} }

// Desc orders by column descending.
func Desc(column string) OrderBy { return OrderBy{Column: column, Desc: true} }
