package engine_test

import (
	"context"
	"testing"

	"github.com/pg-sharding/shardplan/pkg/models/planerror"
	"github.com/pg-sharding/shardplan/pkg/models/sharding"
	"github.com/pg-sharding/shardplan/pkg/models/statement"
	"github.com/pg-sharding/shardplan/router/engine"
	"github.com/stretchr/testify/assert"
)

func TestStandardWithShardingValues(t *testing.T) {
	assert := assert.New(t)
	r := testRule(t)

	res, err := routeWith(t, engine.Standard, engine.Params{
		Rule:       r,
		Statement:  selectOf("t_order"),
		Tables:     []string{"t_order"},
		Conditions: or([]sharding.Condition{eq("t_order", "user_id", lit(1)...), eq("t_order", "order_id", lit(1)...)}),
	})
	assert.NoError(err)
	assert.Equal("standard", res.Engine)
	assert.Equal([]string{"ds_1|t_order:t_order_1"}, keys(res))
}

func TestStandardWithoutShardingValues(t *testing.T) {
	assert := assert.New(t)
	r := testRule(t)

	res, err := routeWith(t, engine.Standard, engine.Params{
		Rule:      r,
		Statement: selectOf("t_order"),
		Tables:    []string{"t_order"},
	})
	assert.NoError(err)
	assert.Equal([]string{
		"ds_0|t_order:t_order_0",
		"ds_0|t_order:t_order_1",
		"ds_1|t_order:t_order_0",
		"ds_1|t_order:t_order_1",
	}, keys(res))
}

func TestStandardModFour(t *testing.T) {
	assert := assert.New(t)
	r := testRule(t)

	type tcase struct {
		name   string
		values []sharding.ConditionValue
		exp    []string
	}
	for _, tt := range []tcase{
		{"equal", lit(5), []string{"ds_0|t_mod4:t_mod4_1"}},
		{"in without collision", lit(1, 2), []string{"ds_0|t_mod4:t_mod4_1", "ds_0|t_mod4:t_mod4_2"}},
		{"in with collision", lit(1, 5), []string{"ds_0|t_mod4:t_mod4_1"}},
	} {
		res, err := routeWith(t, engine.Standard, engine.Params{
			Rule:       r,
			Statement:  selectOf("t_mod4"),
			Tables:     []string{"t_mod4"},
			Conditions: or([]sharding.Condition{eq("t_mod4", "user_id", tt.values...)}),
		})
		assert.NoError(err, tt.name)
		assert.Equal(tt.exp, keys(res), tt.name)
	}
}

func TestStandardUnionsOrGroups(t *testing.T) {
	assert := assert.New(t)
	r := testRule(t)

	res, err := routeWith(t, engine.Standard, engine.Params{
		Rule:      r,
		Statement: selectOf("t_mod4"),
		Tables:    []string{"t_mod4"},
		Conditions: or(
			[]sharding.Condition{eq("t_mod4", "user_id", lit(3)...)},
			[]sharding.Condition{eq("t_mod4", "user_id", lit(7, 0)...)},
		),
	})
	assert.NoError(err)
	assert.Equal([]string{"ds_0|t_mod4:t_mod4_3", "ds_0|t_mod4:t_mod4_0"}, keys(res))
}

func TestStandardBindingTables(t *testing.T) {
	assert := assert.New(t)
	r := testRule(t)

	res, err := routeWith(t, engine.Standard, engine.Params{
		Rule:       r,
		Statement:  selectOf("t_order", "t_order_item"),
		Tables:     []string{"t_order", "t_order_item"},
		Conditions: or([]sharding.Condition{eq("t_order_item", "order_id", lit(3)...)}),
	})
	assert.NoError(err)
	assert.Equal([]string{
		"ds_0|t_order_item:t_order_item_1|t_order:t_order_1",
		"ds_1|t_order_item:t_order_item_1|t_order:t_order_1",
	}, keys(res))
}

func TestStandardParametersAndBroadcast(t *testing.T) {
	assert := assert.New(t)
	r := testRule(t)

	stmt := selectOf("t_order", "t_config")
	stmt.Parameters = []any{int64(4), int64(6)}
	res, err := routeWith(t, engine.Standard, engine.Params{
		Rule:      r,
		Statement: stmt,
		Tables:    []string{"t_order", "t_config"},
		Conditions: or([]sharding.Condition{
			eq("t_order", "user_id", sharding.ParamValue(0)),
			eq("t_order", "order_id", sharding.ParamValue(1)),
		}),
	})
	assert.NoError(err)
	assert.Equal([]string{"ds_0|t_order:t_order_0|t_config:t_config"}, keys(res))

	stmt.Parameters = stmt.Parameters[:1]
	_, err = routeWith(t, engine.Standard, engine.Params{
		Rule:      r,
		Statement: stmt,
		Tables:    []string{"t_order"},
		Conditions: or([]sharding.Condition{
			eq("t_order", "order_id", sharding.ParamValue(1)),
		}),
	})
	assert.True(planerror.IsCode(err, planerror.SHARDPLAN_PARAMETER))
}

func TestStandardOpaqueConditionRoutesFullRange(t *testing.T) {
	assert := assert.New(t)
	r := testRule(t)

	res, err := routeWith(t, engine.Standard, engine.Params{
		Rule:      r,
		Statement: selectOf("t_order"),
		Tables:    []string{"t_order"},
		Conditions: or([]sharding.Condition{
			eq("t_order", "user_id", sharding.OpaqueValue()),
			eq("t_order", "order_id", lit(0)...),
		}),
	})
	assert.NoError(err)
	assert.Equal([]string{"ds_0|t_order:t_order_0", "ds_1|t_order:t_order_0"}, keys(res))
}

func TestStandardUnresolvedRoute(t *testing.T) {
	r := testRule(t)

	_, err := routeWith(t, engine.Standard, engine.Params{
		Rule:       r,
		Statement:  selectOf("t_gap"),
		Tables:     []string{"t_gap"},
		Conditions: or([]sharding.Condition{eq("t_gap", "id", lit(2)...)}),
	})
	assert.True(t, planerror.IsCode(err, planerror.SHARDPLAN_UNRESOLVED_ROUTE))
}

func TestStandardInsertMustHitOneNode(t *testing.T) {
	assert := assert.New(t)
	r := testRule(t)

	stmt := &statement.Statement{Kind: statement.Insert, Tables: []statement.TableRef{{Name: "t_order"}}}
	res, err := routeWith(t, engine.Standard, engine.Params{
		Rule:      r,
		Statement: stmt,
		Tables:    []string{"t_order"},
		Conditions: or(
			[]sharding.Condition{eq("t_order", "user_id", lit(1)...), eq("t_order", "order_id", lit(1)...)},
			[]sharding.Condition{eq("t_order", "user_id", lit(2)...), eq("t_order", "order_id", lit(3)...)},
		),
	})
	assert.NoError(err)
	assert.Equal([]string{"ds_1|t_order:t_order_1", "ds_0|t_order:t_order_1"}, keys(res))

	_, err = routeWith(t, engine.Standard, engine.Params{
		Rule:       r,
		Statement:  stmt,
		Tables:     []string{"t_order"},
		Conditions: or([]sharding.Condition{eq("t_order", "user_id", lit(1)...)}),
	})
	assert.True(planerror.IsCode(err, planerror.SHARDPLAN_COMPLEX_QUERY))
}

func TestStandardIsIdempotent(t *testing.T) {
	assert := assert.New(t)
	r := testRule(t)

	p := engine.Params{
		Rule:       r,
		Statement:  selectOf("t_order", "t_order_item"),
		Tables:     []string{"t_order", "t_order_item"},
		Conditions: or([]sharding.Condition{eq("t_order", "user_id", lit(1, 2)...)}),
	}
	first, err := routeWith(t, engine.Standard, p)
	assert.NoError(err)
	second, err := routeWith(t, engine.Standard, p)
	assert.NoError(err)
	assert.True(first.Equal(second))
	assert.Equal(first, second)
}

func TestStandardHonoursCancellation(t *testing.T) {
	r := testRule(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	e, err := engine.New(engine.Standard, engine.Params{Rule: r, Statement: selectOf("t_order"), Tables: []string{"t_order"}})
	assert.NoError(t, err)
	_, err = e.Route(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
