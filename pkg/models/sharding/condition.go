package sharding

import (
	"fmt"
	"strings"

	"github.com/pg-sharding/shardplan/pkg/models/planerror"
)

// Column is a column bound to the logic table that owns it.
type Column struct {
	Name  string `json:"name" yaml:"name"`
	Table string `json:"table" yaml:"table"`
}

func (c Column) String() string {
	return c.Table + "." + c.Name
}

// Equal compares both the column name and the owning table.
func (c Column) Equal(other Column, caseSensitive bool) bool {
	if caseSensitive {
		return c.Name == other.Name && c.Table == other.Table
	}
	return strings.EqualFold(c.Name, other.Name) && strings.EqualFold(c.Table, other.Table)
}

type Operator string

const (
	OperatorEqual   = Operator("=")
	OperatorIn      = Operator("IN")
	OperatorBetween = Operator("BETWEEN")
)

// CheckArity validates the number of values carried by a predicate with this operator.
func (o Operator) CheckArity(n int) error {
	switch Operator(strings.ToUpper(string(o))) {
	case OperatorEqual:
		if n != 1 {
			return planerror.Newf(planerror.SHARDPLAN_MALFORMED_PREDICATE, "%s expects exactly 1 value, got %d", o, n)
		}
	case OperatorIn:
		if n < 1 {
			return planerror.Newf(planerror.SHARDPLAN_MALFORMED_PREDICATE, "%s expects at least 1 value", o)
		}
	case OperatorBetween:
		if n != 2 {
			return planerror.Newf(planerror.SHARDPLAN_MALFORMED_PREDICATE, "%s expects exactly 2 values, got %d", o, n)
		}
	default:
		return planerror.Newf(planerror.SHARDPLAN_MALFORMED_PREDICATE, "unsupported sharding operator %q", string(o))
	}
	return nil
}

// Normalize upper-cases the operator so "in" and "IN" are the same thing.
func (o Operator) Normalize() Operator {
	return Operator(strings.ToUpper(string(o)))
}

type ValueKind int

const (
	ValueLiteral = ValueKind(iota)
	ValueParam
	ValueOpaque
)

// ConditionValue is a literal, a positional parameter resolved later
// against bound parameters, or an expression the router cannot evaluate.
type ConditionValue struct {
	Kind    ValueKind `json:"kind"`
	Literal any       `json:"literal,omitempty"`
	Param   int       `json:"param,omitempty"`
}

func LiteralValue(v any) ConditionValue {
	return ConditionValue{Kind: ValueLiteral, Literal: v}
}

func ParamValue(idx int) ConditionValue {
	return ConditionValue{Kind: ValueParam, Param: idx}
}

func OpaqueValue() ConditionValue {
	return ConditionValue{Kind: ValueOpaque}
}

// Resolve returns the concrete value. Parameters are 0-based indexes into params.
func (v ConditionValue) Resolve(params []any) (any, error) {
	switch v.Kind {
	case ValueLiteral:
		return v.Literal, nil
	case ValueParam:
		if v.Param < 0 || v.Param >= len(params) {
			return nil, planerror.Newf(planerror.SHARDPLAN_PARAMETER, "parameter $%d is not bound (%d given)", v.Param+1, len(params))
		}
		return params[v.Param], nil
	default:
		return nil, fmt.Errorf("opaque value cannot be resolved")
	}
}

type Condition struct {
	Column   Column           `json:"column"`
	Operator Operator         `json:"operator"`
	Values   []ConditionValue `json:"values"`
}

// IsOpaque reports whether some value cannot be evaluated; such a condition
// keeps its place in the AND group but routes to every target of its column.
func (c Condition) IsOpaque() bool {
	for _, v := range c.Values {
		if v.Kind == ValueOpaque {
			return true
		}
	}
	return false
}

// ShardingValue resolves the condition against bound parameters.
// ok is false for opaque conditions.
func (c Condition) ShardingValue(params []any) (ShardingValue, bool, error) {
	if c.IsOpaque() {
		return ShardingValue{}, false, nil
	}
	if err := c.Operator.CheckArity(len(c.Values)); err != nil {
		return ShardingValue{}, false, err
	}
	in := c.Operator.Normalize() == OperatorIn
	resolved := make([]any, 0, len(c.Values))
	for _, v := range c.Values {
		r, err := v.Resolve(params)
		if err != nil {
			return ShardingValue{}, false, err
		}
		if r == nil {
			/* NULL matches nothing, so an IN list just loses that item */
			if in {
				continue
			}
			/* col = NULL never matches, col = $1 bound to NULL routes anywhere */
			return ShardingValue{}, false, nil
		}
		resolved = append(resolved, r)
	}
	if len(resolved) == 0 {
		return ShardingValue{}, false, nil
	}
	if c.Operator.Normalize() == OperatorBetween {
		return ShardingValue{Column: c.Column, Range: &Range{Begin: resolved[0], End: resolved[1]}}, true, nil
	}
	return ShardingValue{Column: c.Column, List: resolved}, true, nil
}

// AndCondition is a set of conjoined conditions, at most one per column.
type AndCondition struct {
	Conditions []Condition `json:"conditions"`
}

func (a *AndCondition) Add(c Condition, caseSensitive bool) error {
	for _, existing := range a.Conditions {
		if existing.Column.Equal(c.Column, caseSensitive) {
			return planerror.Newf(planerror.SHARDPLAN_DUPLICATE_COLUMN, "column %s appears more than once in one AND group", c.Column)
		}
	}
	a.Conditions = append(a.Conditions, c)
	return nil
}

// Find returns the condition on column name of one of the given tables.
func (a AndCondition) Find(name string, tables []string, caseSensitive bool) (Condition, bool) {
	for _, table := range tables {
		want := Column{Name: name, Table: table}
		for _, c := range a.Conditions {
			if c.Column.Equal(want, caseSensitive) {
				return c, true
			}
		}
	}
	return Condition{}, false
}

// OrCondition is the ordered list of top-level OR groups.
// An empty OrCondition means no usable sharding predicate.
type OrCondition struct {
	AndConditions []AndCondition `json:"and_conditions"`
}

func (o OrCondition) IsEmpty() bool {
	return len(o.AndConditions) == 0
}
