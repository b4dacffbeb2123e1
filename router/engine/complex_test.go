package engine_test

import (
	"context"
	"testing"

	"github.com/pg-sharding/shardplan/pkg/models/planerror"
	"github.com/pg-sharding/shardplan/pkg/models/sharding"
	"github.com/pg-sharding/shardplan/router/engine"
	"github.com/stretchr/testify/assert"
)

func TestComplexCartesianProduct(t *testing.T) {
	assert := assert.New(t)
	r := testRule(t)

	res, err := routeWith(t, engine.Complex, engine.Params{
		Rule:      r,
		Statement: selectOf("t_a", "t_b"),
		Tables:    []string{"t_a", "t_b"},
	})
	assert.NoError(err)
	assert.Equal("complex", res.Engine)
	assert.Equal([]string{
		"ds_0|t_a:t_a_0|t_b:t_b_0",
		"ds_0|t_a:t_a_0|t_b:t_b_1",
		"ds_0|t_a:t_a_0|t_b:t_b_2",
		"ds_0|t_a:t_a_1|t_b:t_b_0",
		"ds_0|t_a:t_a_1|t_b:t_b_1",
		"ds_0|t_a:t_a_1|t_b:t_b_2",
	}, keys(res))
	assert.LessOrEqual(len(res.Units), 2*3)
	assert.Equal([]string{"ds_0"}, res.DataSourceNames())
}

func TestComplexNarrowedByConditions(t *testing.T) {
	assert := assert.New(t)
	r := testRule(t)

	res, err := routeWith(t, engine.Complex, engine.Params{
		Rule:       r,
		Statement:  selectOf("t_a", "t_b", "t_config"),
		Tables:     []string{"t_a", "t_b", "t_config"},
		Conditions: or([]sharding.Condition{eq("t_a", "a_id", lit(1)...), eq("t_b", "b_id", lit(4)...)}),
	})
	assert.NoError(err)
	assert.Equal([]string{"ds_0|t_a:t_a_1|t_b:t_b_1|t_config:t_config"}, keys(res))
}

func TestComplexKeepsBoundTablesTogether(t *testing.T) {
	assert := assert.New(t)
	r := testRule(t)

	res, err := routeWith(t, engine.Complex, engine.Params{
		Rule:       r,
		Statement:  selectOf("t_order", "t_b", "t_order_item"),
		Tables:     []string{"t_order", "t_b", "t_order_item"},
		Conditions: or([]sharding.Condition{eq("t_order", "user_id", lit(1)...), eq("t_order", "order_id", lit(2)...)}),
	})
	assert.NoError(err)
	assert.Equal([]string{"ds_1|t_order:t_order_0|t_order_item:t_order_item_0|t_b:t_b_0"}, keys(res))
}

func TestComplexErrors(t *testing.T) {
	assert := assert.New(t)
	r := testRule(t)

	type tcase struct {
		name   string
		tables []string
		limit  int
		code   string
	}
	for _, tt := range []tcase{
		{"no common data source", []string{"t_a", "t_log"}, 0, planerror.SHARDPLAN_UNRESOLVED_ROUTE},
		{"too many units", []string{"t_a", "t_b"}, 4, planerror.SHARDPLAN_COMPLEX_QUERY},
	} {
		_, err := routeWith(t, engine.Complex, engine.Params{
			Rule:              r,
			Statement:         selectOf(tt.tables...),
			Tables:            tt.tables,
			MaxCartesianUnits: tt.limit,
		})
		assert.True(planerror.IsCode(err, tt.code), tt.name)
	}
}

func TestComplexHonoursCancellation(t *testing.T) {
	r := testRule(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	e, err := engine.New(engine.Complex, engine.Params{Rule: r, Statement: selectOf("t_a", "t_b"), Tables: []string{"t_a", "t_b"}})
	assert.NoError(t, err)
	_, err = e.Route(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
