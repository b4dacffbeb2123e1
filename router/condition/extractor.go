package condition

import (
	"github.com/pg-sharding/shardplan/pkg/models/planerror"
	"github.com/pg-sharding/shardplan/pkg/models/sharding"
	"github.com/pg-sharding/shardplan/pkg/models/statement"
	"github.com/pg-sharding/shardplan/pkg/shlog"
	"github.com/pg-sharding/shardplan/router/catalog"
)

// ShardingColumns tells which (column, table) pairs drive a sharding strategy.
type ShardingColumns interface {
	IsShardingColumn(column, table string) bool
}

// Extractor turns normalized predicates into sharding conditions.
// It keeps no per-statement state and is safe for concurrent use.
type Extractor struct {
	columns       ShardingColumns
	md            catalog.TableMetadata
	caseSensitive bool
}

func NewExtractor(columns ShardingColumns, md catalog.TableMetadata, caseSensitive bool) *Extractor {
	return &Extractor{
		columns:       columns,
		md:            md,
		caseSensitive: caseSensitive,
	}
}

// Extract builds the OrCondition of a whole statement: its WHERE clause or
// INSERT rows, widened by the conditions of its subqueries.
func (e *Extractor) Extract(stmt *statement.Statement, parent *catalog.Scope) (sharding.OrCondition, error) {
	scope := catalog.NewScope(parent, stmt.Tables, e.md, e.caseSensitive)

	var (
		or  sharding.OrCondition
		err error
	)
	if stmt.Kind == statement.Insert && stmt.Insert != nil {
		or, err = e.extractInsert(stmt)
	} else {
		or, err = e.ExtractGroups(stmt.Where, scope)
	}
	if err != nil {
		return sharding.OrCondition{}, err
	}

	for _, sub := range stmt.Subqueries {
		subOr, err := e.Extract(sub, scope)
		if err != nil {
			return sharding.OrCondition{}, err
		}
		/* extra OR groups only add targets, so the route can grow but never shrink */
		if !or.IsEmpty() && !subOr.IsEmpty() {
			or.AndConditions = append(or.AndConditions, subOr.AndConditions...)
		}
	}
	return or, nil
}

// ExtractGroups converts OR-of-AND predicate groups resolved against scope.
// Every group is validated even after the result has degraded to empty.
func (e *Extractor) ExtractGroups(groups []statement.PredicateGroup, scope *catalog.Scope) (sharding.OrCondition, error) {
	var or sharding.OrCondition
	degraded := false

	for _, group := range groups {
		and := sharding.AndCondition{}
		for _, p := range group {
			cond, ok, err := e.condition(p, scope)
			if err != nil {
				return sharding.OrCondition{}, err
			}
			if !ok {
				continue
			}
			if err := and.Add(cond, e.caseSensitive); err != nil {
				return sharding.OrCondition{}, err
			}
		}
		if len(and.Conditions) == 0 {
			degraded = true
			continue
		}
		or.AndConditions = append(or.AndConditions, and)
	}

	if degraded {
		shlog.Zero.Debug().Int("groups", len(groups)).Msg("AND group without sharding conditions, routing by full range")
		return sharding.OrCondition{}, nil
	}
	return or, nil
}

func (e *Extractor) condition(p statement.Predicate, scope *catalog.Scope) (sharding.Condition, bool, error) {
	op := p.Operator.Normalize()
	if err := op.CheckArity(len(p.Values)); err != nil {
		return sharding.Condition{}, false, err
	}
	for _, v := range p.Values {
		if v.Kind() == statement.ExprColumn {
			/* column to column comparison, e.g. a join predicate */
			return sharding.Condition{}, false, nil
		}
	}

	table, ok := e.owner(p.Column, scope)
	if !ok || !e.columns.IsShardingColumn(p.Column.Name, table) {
		return sharding.Condition{}, false, nil
	}

	values := make([]sharding.ConditionValue, 0, len(p.Values))
	for _, v := range p.Values {
		values = append(values, conditionValue(v))
	}
	return sharding.Condition{
		Column:   sharding.Column{Name: p.Column.Name, Table: table},
		Operator: op,
		Values:   values,
	}, true, nil
}

func (e *Extractor) owner(ref statement.ColumnRef, scope *catalog.Scope) (string, bool) {
	table, res := scope.ResolveColumn(ref)
	switch res {
	case catalog.Resolved:
		return table, true
	case catalog.Ambiguous:
		shlog.Zero.Debug().
			Str("column", ref.Name).
			Str("code", planerror.SHARDPLAN_AMBIGUOUS_COLUMN).
			Msg("ambiguous column dropped from sharding conditions")
	}
	return "", false
}

func conditionValue(v statement.Expr) sharding.ConditionValue {
	switch v.Kind() {
	case statement.ExprParam:
		return sharding.ParamValue(*v.Param)
	case statement.ExprLiteral:
		if v.Literal != nil {
			return sharding.LiteralValue(v.Literal)
		}
	}
	return sharding.OpaqueValue()
}

// extractInsert makes one AND group of EQUAL conditions per VALUES row.
func (e *Extractor) extractInsert(stmt *statement.Statement) (sharding.OrCondition, error) {
	if len(stmt.Tables) == 0 {
		return sharding.OrCondition{}, nil
	}
	table := stmt.Tables[0].Name
	columns := stmt.Insert.Columns
	if len(columns) == 0 {
		columns, _ = e.md.Columns(table)
	}

	var or sharding.OrCondition
	degraded := false
	for n, row := range stmt.Insert.Rows {
		if len(row) != len(columns) {
			return sharding.OrCondition{}, planerror.Newf(planerror.SHARDPLAN_MALFORMED_PREDICATE,
				"INSERT row %d has %d values for %d columns", n+1, len(row), len(columns))
		}
		and := sharding.AndCondition{}
		for i, col := range columns {
			if !e.columns.IsShardingColumn(col, table) {
				continue
			}
			cond := sharding.Condition{
				Column:   sharding.Column{Name: col, Table: table},
				Operator: sharding.OperatorEqual,
				Values:   []sharding.ConditionValue{conditionValue(row[i])},
			}
			if row[i].Kind() == statement.ExprColumn {
				cond.Values = []sharding.ConditionValue{sharding.OpaqueValue()}
			}
			if err := and.Add(cond, e.caseSensitive); err != nil {
				return sharding.OrCondition{}, err
			}
		}
		if len(and.Conditions) == 0 {
			degraded = true
			continue
		}
		or.AndConditions = append(or.AndConditions, and)
	}
	if degraded {
		return sharding.OrCondition{}, nil
	}
	return or, nil
}
