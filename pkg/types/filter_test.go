package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRowAccessors(t *testing.T) {
	row := Row{
		"name":      "Alice",
		"affection": int64(60),
		"ratio":     float64(3),
		"equipped":  int64(1),
		"flag":      true,
		"blob":      []byte("raw"),
		"missing":   nil,
		"digits":    "42",
	}

	assert.Equal(t, "Alice", row.String("name"))
	assert.Equal(t, "raw", row.String("blob"))
	assert.Equal(t, "", row.String("missing"))
	assert.Equal(t, "", row.String("absent"))
	assert.Equal(t, "60", row.String("affection"))

	assert.Equal(t, int64(60), row.Int("affection"))
	assert.Equal(t, int64(3), row.Int("ratio"))
	assert.Equal(t, int64(42), row.Int("digits"))
	assert.Equal(t, int64(0), row.Int("name"))

	assert.True(t, row.Bool("equipped"))
	assert.True(t, row.Bool("flag"))
	assert.False(t, row.Bool("absent"))
}

func TestConditionHelpers(t *testing.T) {
	assert.Equal(t, Cond{Op: OpGt, Value: 3}, Gt(3))
	assert.Equal(t, Cond{Op: OpGte, Value: 3}, Gte(3))
	assert.Equal(t, Cond{Op: OpLt, Value: 3}, Lt(3))
	assert.Equal(t, Cond{Op: OpLte, Value: 3}, Lte(3))
	assert.Equal(t, Cond{Op: OpNe, Value: "x"}, Ne("x"))
	assert.Equal(t, Cond{Op: OpLike, Value: "%a%"}, Like("%a%"))
	assert.Equal(t, Cond{Op: OpIn, Value: []any{"a", "b"}}, In("a", "b"))
	assert.Equal(t, Cond{Op: OpBetween, Value: []any{1, 9}}, Between(1, 9))
	assert.Equal(t, OrderBy{Column: "timestamp"}, Asc("timestamp"))
	assert.Equal(t, OrderBy{Column: "timestamp", Desc: true}, Desc("timestamp"))
}
