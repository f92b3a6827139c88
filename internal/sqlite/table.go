package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/mesh-intelligence/worldstate/pkg/types"
)

// querier is the part of *sql.DB and *sql.Tx the table accessor needs.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// tables implements generic CRUD over the registered tables for one
// connection or transaction.
type tables struct {
	q   querier
	now func() time.Time
}

func (t tables) stamp() int64 {
	return t.now().UnixMilli()
}

func (t tables) get(ctx context.Context, table string, filter types.Filter) (types.Row, error) {
	rows, err := t.getAll(ctx, table, filter, nil, 1)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, types.ErrNotFound
	}
	return rows[0], nil
}

func (t tables) getAll(ctx context.Context, table string, filter types.Filter, order []types.OrderBy, limit int) ([]types.Row, error) {
	if !knownTable(table) {
		return nil, types.ErrTableNotFound
	}
	where, args, err := buildWhere(table, filter)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf("SELECT %s FROM %s%s", joinColumns(quoteAll(tableColumns[table])), quoteIdent(table), where)

	if len(order) > 0 {
		parts := make([]string, 0, len(order))
		for _, o := range order {
			if !knownColumn(table, o.Column) {
				return nil, fmt.Errorf("%w: unknown order column %q", types.ErrInvalidFilter, o.Column)
			}
			dir := "ASC"
			if o.Desc {
				dir = "DESC"
			}
			parts = append(parts, quoteIdent(o.Column)+" "+dir)
		}
		// rowid breaks ties in the direction of the last key, so descending
		// orders list later inserts first.
		tie := "ASC"
		if order[len(order)-1].Desc {
			tie = "DESC"
		}
		query += " ORDER BY " + strings.Join(parts, ", ") + ", rowid " + tie
	} else {
		query += " ORDER BY rowid ASC"
	}
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	return t.raw(ctx, query, args...)
}

func (t tables) insert(ctx context.Context, table string, row types.Row) (string, error) {
	if !knownTable(table) {
		return "", types.ErrTableNotFound
	}
	data := make(types.Row, len(row)+3)
	for k, v := range row {
		data[k] = v
	}
	id := data.String(types.ColumnID)
	if id == "" {
		id = newUUID()
	}
	now := t.stamp()
	data[types.ColumnID] = id
	data[types.ColumnCreatedAt] = now
	data[types.ColumnUpdatedAt] = now

	if err := t.insertRow(ctx, table, data); err != nil {
		return "", err
	}
	return id, nil
}

func (t tables) insertRow(ctx context.Context, table string, data types.Row) error {
	cols := make([]string, 0, len(data))
	for col := range data {
		if !knownColumn(table, col) {
			return fmt.Errorf("%w: unknown column %q in table %s", types.ErrInvalidData, col, table)
		}
		cols = append(cols, col)
	}
	sort.Strings(cols)

	placeholders := make([]string, len(cols))
	args := make([]any, len(cols))
	for i, col := range cols {
		placeholders[i] = "?"
		v, err := encodeValue(data[col])
		if err != nil {
			return fmt.Errorf("encoding %s.%s: %w", table, col, err)
		}
		args[i] = v
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		quoteIdent(table), joinColumns(quoteAll(cols)), joinColumns(placeholders))
	if _, err := t.q.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("inserting into %s: %w", table, classify(err))
	}
	return nil
}

func (t tables) update(ctx context.Context, table string, filter types.Filter, row types.Row) (int64, error) {
	if !knownTable(table) {
		return 0, types.ErrTableNotFound
	}

	cols := make([]string, 0, len(row)+1)
	for col := range row {
		if col == types.ColumnID || col == types.ColumnCreatedAt || col == types.ColumnUpdatedAt {
			continue
		}
		if !knownColumn(table, col) {
			return 0, fmt.Errorf("%w: unknown column %q in table %s", types.ErrInvalidData, col, table)
		}
		cols = append(cols, col)
	}
	sort.Strings(cols)

	sets := make([]string, 0, len(cols)+1)
	args := make([]any, 0, len(cols)+1)
	for _, col := range cols {
		v, err := encodeValue(row[col])
		if err != nil {
			return 0, fmt.Errorf("encoding %s.%s: %w", table, col, err)
		}
		sets = append(sets, quoteIdent(col)+" = ?")
		args = append(args, v)
	}
	sets = append(sets, quoteIdent(types.ColumnUpdatedAt)+" = ?")
	args = append(args, t.stamp())

	where, whereArgs, err := buildWhere(table, filter)
	if err != nil {
		return 0, err
	}
	args = append(args, whereArgs...)

	query := fmt.Sprintf("UPDATE %s SET %s%s", quoteIdent(table), strings.Join(sets, ", "), where)
	return t.exec(ctx, query, args...)
}

func (t tables) delete(ctx context.Context, table string, filter types.Filter) (int64, error) {
	if !knownTable(table) {
		return 0, types.ErrTableNotFound
	}
	where, args, err := buildWhere(table, filter)
	if err != nil {
		return 0, err
	}
	return t.exec(ctx, fmt.Sprintf("DELETE FROM %s%s", quoteIdent(table), where), args...)
}

// importRows inserts rows as they are. Fields that are not columns of the
// table are ignored so dumps from older or newer schemas still load.
func (t tables) importRows(ctx context.Context, table string, rows []types.Row) error {
	if !knownTable(table) {
		return types.ErrTableNotFound
	}
	for _, row := range rows {
		data := make(types.Row, len(row))
		for col, v := range row {
			if !knownColumn(table, col) {
				continue
			}
			data[col] = normalizeNumber(v)
		}
		if data.String(types.ColumnID) == "" {
			return fmt.Errorf("%w: imported %s row has no id", types.ErrInvalidData, table)
		}
		if err := t.insertRow(ctx, table, data); err != nil {
			return err
		}
	}
	return nil
}

func (t tables) raw(ctx context.Context, query string, args ...any) ([]types.Row, error) {
	rows, err := t.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query: %w", classify(err))
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("reading columns: %w", err)
	}

	var out []types.Row
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		row := make(types.Row, len(cols))
		for i, col := range cols {
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
				continue
			}
			row[col] = values[i]
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rows: %w", err)
	}
	return out, nil
}

func (t tables) exec(ctx context.Context, query string, args ...any) (int64, error) {
	result, err := t.q.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("exec: %w", classify(err))
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("getting rows affected: %w", err)
	}
	return affected, nil
}

// buildWhere renders filter as a WHERE clause. Keys are sorted so the same
// filter always produces the same statement.
func buildWhere(table string, filter types.Filter) (string, []any, error) {
	if len(filter) == 0 {
		return "", nil, nil
	}
	keys := make([]string, 0, len(filter))
	for k := range filter {
		if !knownColumn(table, k) {
			return "", nil, fmt.Errorf("%w: unknown column %q in table %s", types.ErrInvalidFilter, k, table)
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	conditions := make([]string, 0, len(keys))
	var args []any
	for _, col := range keys {
		cond, condArgs, err := renderCondition(quoteIdent(col), filter[col])
		if err != nil {
			return "", nil, fmt.Errorf("filter on %s: %w", col, err)
		}
		conditions = append(conditions, cond)
		args = append(args, condArgs...)
	}
	return " WHERE " + strings.Join(conditions, " AND "), args, nil
}

func renderCondition(col string, value any) (string, []any, error) {
	c, ok := value.(types.Cond)
	if !ok {
		c = types.Cond{Op: types.OpEq, Value: value}
	}

	if c.Op == types.OpIn {
		values, ok := c.Value.([]any)
		if !ok {
			return "", nil, types.ErrInvalidFilter
		}
		if len(values) == 0 {
			return "0 = 1", nil, nil
		}
		placeholders := make([]string, len(values))
		args := make([]any, len(values))
		for i, v := range values {
			placeholders[i] = "?"
			args[i] = encodeScalar(v)
		}
		return col + " IN (" + strings.Join(placeholders, ", ") + ")", args, nil
	}

	if c.Op == types.OpBetween {
		bounds, ok := c.Value.([]any)
		if !ok || len(bounds) != 2 {
			return "", nil, types.ErrInvalidFilter
		}
		return col + " BETWEEN ? AND ?", []any{encodeScalar(bounds[0]), encodeScalar(bounds[1])}, nil
	}

	if c.Value == nil {
		switch c.Op {
		case types.OpEq:
			return col + " IS NULL", nil, nil
		case types.OpNe:
			return col + " IS NOT NULL", nil, nil
		default:
			return "", nil, types.ErrInvalidFilter
		}
	}

	var op string
	switch c.Op {
	case types.OpEq:
		op = "="
	case types.OpNe:
		op = "<>"
	case types.OpGt:
		op = ">"
	case types.OpGte:
		op = ">="
	case types.OpLt:
		op = "<"
	case types.OpLte:
		op = "<="
	case types.OpLike:
		op = "LIKE"
	default:
		return "", nil, fmt.Errorf("%w: unknown operator %q", types.ErrInvalidFilter, c.Op)
	}
	return col + " " + op + " ?", []any{encodeScalar(c.Value)}, nil
}

// encodeValue converts a Go value to a driver value. Maps, slices and
// structs are stored as JSON text.
func encodeValue(v any) (any, error) {
	switch val := v.(type) {
	case nil:
		return nil, nil
	case string, int64, float64, []byte:
		return val, nil
	case bool:
		if val {
			return int64(1), nil
		}
		return int64(0), nil
	case int:
		return int64(val), nil
	case int32:
		return int64(val), nil
	case float32:
		return float64(val), nil
	case json.Number:
		return normalizeNumber(val), nil
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return nil, err
		}
		return string(b), nil
	}
}

func encodeScalar(v any) any {
	enc, err := encodeValue(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return enc
}

// normalizeNumber turns JSON-decoded numbers back into integers where they
// are whole, so round-tripped rows compare equal to the originals.
func normalizeNumber(v any) any {
	switch n := v.(type) {
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i
		}
		if f, err := n.Float64(); err == nil {
			return f
		}
		return n.String()
	case float64:
		if n == float64(int64(n)) {
			return int64(n)
		}
		return n
	default:
		return v
	}
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func quoteAll(names []string) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = quoteIdent(n)
	}
	return out
}

// joinColumns joins column names with commas.
func joinColumns(cols []string) string {
	return strings.Join(cols, ", ")
}
