package engine_test

import (
	"context"
	"testing"

	"github.com/pg-sharding/shardplan/pkg/config"
	"github.com/pg-sharding/shardplan/pkg/models/sharding"
	"github.com/pg-sharding/shardplan/pkg/models/statement"
	"github.com/pg-sharding/shardplan/router/engine"
	"github.com/pg-sharding/shardplan/router/route"
	"github.com/pg-sharding/shardplan/router/rule"
	"github.com/stretchr/testify/assert"
)

func inline(column, expr string) *config.StrategyCfg {
	return &config.StrategyCfg{Type: config.StrategyInline, Column: column, Expression: expr}
}

var none = &config.StrategyCfg{Type: config.StrategyNone}

func testRule(t *testing.T) *rule.ShardingRule {
	r, err := rule.NewShardingRule(&config.ShardingCfg{
		DataSources: []config.DataSourceCfg{
			{Name: "ds_0", Instance: "pg-a"},
			{Name: "ds_1", Instance: "pg-a"},
			{Name: "ds_2", Instance: "pg-b"},
		},
		Tables: []config.TableRuleCfg{
			{Name: "t_order", ActualDataNodes: "ds_${0..1}.t_order_${0..1}", TableStrategy: inline("order_id", "t_order_${order_id % 2}")},
			{Name: "t_order_item", ActualDataNodes: "ds_${0..1}.t_order_item_${0..1}", TableStrategy: inline("order_id", "t_order_item_${order_id % 2}")},
			{Name: "t_mod4", ActualDataNodes: "ds_0.t_mod4_${0..3}", DatabaseStrategy: none, TableStrategy: inline("user_id", "t_mod4_${user_id % 4}")},
			{Name: "t_a", ActualDataNodes: "ds_0.t_a_${0..1}", DatabaseStrategy: none, TableStrategy: inline("a_id", "t_a_${a_id % 2}")},
			{Name: "t_b", ActualDataNodes: "ds_0.t_b_${0..2}, ds_1.t_b_0", DatabaseStrategy: none, TableStrategy: inline("b_id", "t_b_${b_id % 3}")},
			{Name: "t_gap", ActualDataNodes: "ds_0.t_gap_${0..1}", DatabaseStrategy: none, TableStrategy: inline("id", "t_gap_${id % 3}")},
			{Name: "t_log", ActualDataNodes: "ds_2.t_log", DatabaseStrategy: none},
		},
		DefaultDatabaseStrategy: inline("user_id", "ds_${user_id % 2}"),
		BindingTables:           [][]string{{"t_order", "t_order_item"}},
		BroadcastTables:         []string{"t_config"},
		SingleTables:            map[string]string{"t_single": "ds_2"},
	}, false)
	assert.NoError(t, err)
	return r
}

func eq(table, column string, values ...sharding.ConditionValue) sharding.Condition {
	op := sharding.OperatorEqual
	if len(values) > 1 {
		op = sharding.OperatorIn
	}
	return sharding.Condition{Column: sharding.Column{Name: column, Table: table}, Operator: op, Values: values}
}

func lit(vals ...any) []sharding.ConditionValue {
	res := make([]sharding.ConditionValue, 0, len(vals))
	for _, v := range vals {
		res = append(res, sharding.LiteralValue(v))
	}
	return res
}

func or(groups ...[]sharding.Condition) sharding.OrCondition {
	var res sharding.OrCondition
	for _, g := range groups {
		res.AndConditions = append(res.AndConditions, sharding.AndCondition{Conditions: g})
	}
	return res
}

func keys(res *route.RouteResult) []string {
	var out []string
	for _, u := range res.Units {
		out = append(out, u.Key())
	}
	return out
}

func routeWith(t *testing.T, kind engine.EngineKind, p engine.Params) (*route.RouteResult, error) {
	e, err := engine.New(kind, p)
	assert.NoError(t, err)
	assert.Equal(t, kind, e.Kind())
	return e.Route(context.Background())
}

func selectOf(tables ...string) *statement.Statement {
	stmt := &statement.Statement{Kind: statement.Select}
	for _, name := range tables {
		stmt.Tables = append(stmt.Tables, statement.TableRef{Name: name})
	}
	return stmt
}
