package engine_test

import (
	"context"
	"testing"

	"github.com/pg-sharding/shardplan/pkg/models/planerror"
	"github.com/pg-sharding/shardplan/router/engine"
	"github.com/stretchr/testify/assert"
)

func TestBroadcastEngines(t *testing.T) {
	assert := assert.New(t)
	r := testRule(t)

	type tcase struct {
		kind   engine.EngineKind
		tables []string
		exp    []string
	}
	for _, tt := range []tcase{
		{
			kind: engine.DatabaseBroadcast,
			exp:  []string{"ds_0", "ds_1", "ds_2"},
		},
		{
			kind:   engine.DatabaseBroadcast,
			tables: []string{"t_config"},
			exp:    []string{"ds_0|t_config:t_config", "ds_1|t_config:t_config", "ds_2|t_config:t_config"},
		},
		{
			kind:   engine.TableBroadcast,
			tables: []string{"t_order", "t_config"},
			exp: []string{
				"ds_0|t_order:t_order_0",
				"ds_0|t_order:t_order_1",
				"ds_1|t_order:t_order_0",
				"ds_1|t_order:t_order_1",
			},
		},
		{
			kind: engine.DataSourceGroupBroadcast,
			exp:  []string{"ds_0", "ds_2"},
		},
		{
			kind: engine.InstanceBroadcast,
			exp:  []string{"ds_0", "ds_2"},
		},
		{
			kind:   engine.Ignore,
			tables: []string{"t_plain"},
		},
	} {
		res, err := routeWith(t, tt.kind, engine.Params{
			Rule:      r,
			Statement: selectOf(tt.tables...),
			Tables:    tt.tables,
		})
		assert.NoError(err, tt.kind.String())
		assert.Equal(tt.kind.String(), res.Engine)
		assert.Equal(tt.exp, keys(res), tt.kind.String())
	}
}

func TestDatabaseBroadcastUnitsOwnTheirTables(t *testing.T) {
	assert := assert.New(t)
	r := testRule(t)

	res, err := routeWith(t, engine.DatabaseBroadcast, engine.Params{
		Rule:      r,
		Statement: selectOf("t_config"),
		Tables:    []string{"t_config"},
	})
	assert.NoError(err)
	assert.Len(res.Units, 3)

	res.Units[0].Tables[0].Actual = "t_config_renamed"
	assert.Equal("t_config", res.Units[1].Tables[0].Actual)
	assert.Equal("t_config", res.Units[2].Tables[0].Actual)
}

func TestTableBroadcastWithoutShardingTables(t *testing.T) {
	r := testRule(t)

	_, err := routeWith(t, engine.TableBroadcast, engine.Params{
		Rule:      r,
		Statement: selectOf("t_config"),
		Tables:    []string{"t_config"},
	})
	assert.True(t, planerror.IsCode(err, planerror.SHARDPLAN_UNRESOLVED_ROUTE))
}

func TestBroadcastHonoursCancellation(t *testing.T) {
	assert := assert.New(t)
	r := testRule(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for _, kind := range []engine.EngineKind{
		engine.DatabaseBroadcast,
		engine.TableBroadcast,
		engine.DataSourceGroupBroadcast,
		engine.InstanceBroadcast,
		engine.Ignore,
	} {
		e, err := engine.New(kind, engine.Params{Rule: r, Statement: selectOf("t_order"), Tables: []string{"t_order"}})
		assert.NoError(err)
		_, err = e.Route(ctx)
		assert.ErrorIs(err, context.Canceled, kind.String())
	}
}

func TestUnknownEngine(t *testing.T) {
	_, err := engine.New(engine.EngineKind(42), engine.Params{})
	assert.Error(t, err)
	assert.Equal(t, "unknown", engine.EngineKind(42).String())
}
