package statement

import (
	"os"
	"strings"

	"github.com/pg-sharding/shardplan/pkg/models/sharding"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

type Kind string

const (
	Select = Kind("select")
	Insert = Kind("insert")
	Update = Kind("update")
	Delete = Kind("delete")
	DDL    = Kind("ddl")
	TCL    = Kind("tcl")
	DAL    = Kind("dal")
	DCL    = Kind("dcl")
	Cursor = Kind("cursor")
)

// IsDML covers data manipulation, queries and cursor statements,
// which are routed by table classification.
func (k Kind) IsDML() bool {
	switch k {
	case Select, Insert, Update, Delete, Cursor:
		return true
	}
	return false
}

// IsRead reports whether the statement only reads rows.
func (k Kind) IsRead() bool {
	return k == Select || k == Cursor
}

type TableRef struct {
	Name  string `json:"name" yaml:"name"`
	Alias string `json:"alias,omitempty" yaml:"alias"`
}

type ColumnRef struct {
	Owner string `json:"owner,omitempty" yaml:"owner"`
	Name  string `json:"name" yaml:"name"`
}

type ExprKind int

const (
	ExprLiteral = ExprKind(iota)
	ExprParam
	ExprColumn
	ExprOpaque
)

// Expr is the right-hand side of a predicate or an INSERT value.
// Exactly one of Param, Column and Opaque is set, otherwise it is a literal.
type Expr struct {
	Literal any        `json:"literal,omitempty" yaml:"literal"`
	Param   *int       `json:"param,omitempty" yaml:"param"`
	Column  *ColumnRef `json:"column,omitempty" yaml:"column"`
	Opaque  string     `json:"opaque,omitempty" yaml:"opaque"`
}

func (e Expr) Kind() ExprKind {
	switch {
	case e.Column != nil:
		return ExprColumn
	case e.Param != nil:
		return ExprParam
	case e.Opaque != "":
		return ExprOpaque
	default:
		return ExprLiteral
	}
}

func Lit(v any) Expr {
	return Expr{Literal: v}
}

func Param(idx int) Expr {
	return Expr{Param: &idx}
}

func Col(owner, name string) Expr {
	return Expr{Column: &ColumnRef{Owner: owner, Name: name}}
}

func Opaque(text string) Expr {
	return Expr{Opaque: text}
}

type Predicate struct {
	Column   ColumnRef         `json:"column" yaml:"column"`
	Operator sharding.Operator `json:"operator" yaml:"operator"`
	Values   []Expr            `json:"values" yaml:"values"`
}

// PredicateGroup is one conjunction of a WHERE clause in disjunctive normal form.
type PredicateGroup []Predicate

type InsertValues struct {
	Columns []string `json:"columns" yaml:"columns"`
	Rows    [][]Expr `json:"rows" yaml:"rows"`
}

type Direction string

const (
	Asc  = Direction("asc")
	Desc = Direction("desc")
)

type NullsOrder string

const (
	NullsDefault = NullsOrder("")
	NullsFirst   = NullsOrder("first")
	NullsLast    = NullsOrder("last")
)

// OrderByItem addresses a result column either by 1-based Index or by Name.
type OrderByItem struct {
	Index         int        `json:"index,omitempty" yaml:"index"`
	Name          string     `json:"name,omitempty" yaml:"name"`
	Direction     Direction  `json:"direction,omitempty" yaml:"direction"`
	Nulls         NullsOrder `json:"nulls,omitempty" yaml:"nulls"`
	// CaseInsensitive marks a column whose collation ignores case. Strings
	// compare bytewise otherwise.
	CaseInsensitive bool `json:"case_insensitive,omitempty" yaml:"case_insensitive"`
}

func (o OrderByItem) IsDesc() bool {
	return strings.EqualFold(string(o.Direction), string(Desc))
}

// Statement is the parser/binder output the router consumes.
type Statement struct {
	Kind        Kind             `json:"kind" yaml:"kind"`
	Tables      []TableRef       `json:"tables,omitempty" yaml:"tables"`
	Where       []PredicateGroup `json:"where,omitempty" yaml:"where"`
	Insert      *InsertValues    `json:"insert,omitempty" yaml:"insert"`
	OrderBy     []OrderByItem    `json:"order_by,omitempty" yaml:"order_by"`
	Subqueries  []*Statement     `json:"subqueries,omitempty" yaml:"subqueries"`
	Parameters  []any            `json:"parameters,omitempty" yaml:"parameters"`
	GlobalState bool             `json:"global_state,omitempty" yaml:"global_state"`
	Wildcard    bool             `json:"wildcard,omitempty" yaml:"wildcard"`
}

// TableNames returns distinct table names in statement order.
func (s *Statement) TableNames(caseSensitive bool) []string {
	var names []string
	seen := map[string]struct{}{}
	for _, t := range s.Tables {
		key := t.Name
		if !caseSensitive {
			key = strings.ToLower(key)
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		names = append(names, t.Name)
	}
	return names
}

// LoadStatement decodes a statement description from a YAML file.
func LoadStatement(path string) (*Statement, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var stmt Statement
	if err := yaml.NewDecoder(file).Decode(&stmt); err != nil {
		return nil, errors.Wrapf(err, "failed to decode statement %s", path)
	}
	stmt.normalize()
	return &stmt, nil
}

// normalize converts yaml.v2 maps nested in literals to plain strings keys.
func (s *Statement) normalize() {
	s.Kind = Kind(strings.ToLower(string(s.Kind)))
	for i, p := range s.Parameters {
		s.Parameters[i] = normalizeValue(p)
	}
	for _, g := range s.Where {
		for i := range g {
			g[i].Operator = g[i].Operator.Normalize()
			for j := range g[i].Values {
				g[i].Values[j].Literal = normalizeValue(g[i].Values[j].Literal)
			}
		}
	}
	if s.Insert != nil {
		for _, row := range s.Insert.Rows {
			for j := range row {
				row[j].Literal = normalizeValue(row[j].Literal)
			}
		}
	}
	for _, sub := range s.Subqueries {
		sub.normalize()
	}
}

func normalizeValue(v any) any {
	switch x := v.(type) {
	case map[any]any:
		m := make(map[string]any, len(x))
		for k, val := range x {
			m[toString(k)] = normalizeValue(val)
		}
		return m
	case []any:
		for i := range x {
			x[i] = normalizeValue(x[i])
		}
		return x
	default:
		return v
	}
}

func toString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	b, _ := yaml.Marshal(v)
	return strings.TrimSpace(string(b))
}
