package rule_test

import (
	"testing"

	"github.com/juju/errors"
	"github.com/pg-sharding/shardplan/pkg/config"
	"github.com/pg-sharding/shardplan/pkg/models/planerror"
	"github.com/pg-sharding/shardplan/router/rule"
	"github.com/stretchr/testify/assert"
)

func orderRuleConfig() *config.ShardingCfg {
	return &config.ShardingCfg{
		DataSources: []config.DataSourceCfg{
			{Name: "ds_0", Instance: "pg-a"},
			{Name: "ds_1", Instance: "pg-a"},
			{Name: "ds_2", Instance: "pg-b"},
		},
		Tables: []config.TableRuleCfg{
			{Name: "t_order", ActualDataNodes: "ds_${0..1}.t_order_${0..1}",
				TableStrategy: &config.StrategyCfg{Type: config.StrategyInline, Column: "order_id", Expression: "t_order_${order_id % 2}"}},
			{Name: "t_order_item", ActualDataNodes: "ds_${0..1}.t_order_item_${0..1}",
				TableStrategy: &config.StrategyCfg{Type: config.StrategyInline, Column: "order_id", Expression: "t_order_item_${order_id % 2}"}},
			{Name: "t_audit"},
		},
		DefaultDatabaseStrategy: &config.StrategyCfg{Type: config.StrategyInline, Column: "user_id", Expression: "ds_${user_id % 2}"},
		BindingTables:           [][]string{{"t_order", "t_order_item"}},
		BroadcastTables:         []string{"t_config"},
		SingleTables:            map[string]string{"t_user": "ds_2"},
	}
}

func TestNewShardingRule(t *testing.T) {
	assert := assert.New(t)

	r, err := rule.NewShardingRule(orderRuleConfig(), false)
	assert.NoError(err)

	tr, err := r.TableRule("T_ORDER")
	assert.NoError(err)
	assert.Equal([]string{"ds_0", "ds_1"}, tr.DataSourceNames())
	assert.Equal([]string{"t_order_0", "t_order_1"}, tr.ActualTables("ds_1"))
	assert.Equal("user_id", tr.DatabaseStrategy().Column())
	assert.Equal("order_id", tr.TableStrategy().Column())
	assert.True(tr.HasDataNode("ds_0", "t_order_1"))
	assert.False(tr.HasDataNode("ds_2", "t_order_1"))

	audit, err := r.TableRule("t_audit")
	assert.NoError(err)
	assert.Equal([]string{"ds_0", "ds_1", "ds_2"}, audit.DataSourceNames())
	assert.Equal([]string{"t_audit"}, audit.ActualTables("ds_2"))

	_, err = r.TableRule("t_missing")
	assert.True(errors.IsNotFound(err))
}

func TestRuleClassification(t *testing.T) {
	assert := assert.New(t)

	r, err := rule.NewShardingRule(orderRuleConfig(), false)
	assert.NoError(err)

	assert.True(r.IsShardingTable("t_order"))
	assert.False(r.IsShardingTable("t_config"))
	assert.True(r.IsBroadcastTable("T_Config"))
	assert.True(r.IsSingleTable("t_user"))

	assert.Equal([]string{"t_order_item", "t_order"}, r.ShardingLogicTableNames([]string{"t_config", "t_order_item", "t_order"}))
	assert.True(r.IsAllBindingTables([]string{"t_order", "t_order_item"}))
	assert.False(r.IsAllBindingTables([]string{"t_order", "t_audit"}))
	assert.False(r.IsAllBindingTables(nil))
	assert.True(r.IsBound("t_order_item", "t_order"))
	assert.False(r.IsBound("t_order", "t_audit"))

	assert.True(r.IsAllBroadcastTables([]string{"t_config"}))
	assert.False(r.IsAllBroadcastTables([]string{"t_config", "t_user"}))
	assert.False(r.IsAllBroadcastTables(nil))

	assert.True(r.IsShardingColumn("USER_ID", "t_order"))
	assert.True(r.IsShardingColumn("order_id", "t_order_item"))
	assert.False(r.IsShardingColumn("status", "t_order"))
	assert.False(r.IsShardingColumn("user_id", "t_config"))
}

func TestRuleCaseSensitive(t *testing.T) {
	assert := assert.New(t)

	r, err := rule.NewShardingRule(orderRuleConfig(), true)
	assert.NoError(err)
	assert.True(r.CaseSensitive())
	assert.False(r.IsShardingTable("T_ORDER"))
	assert.False(r.IsShardingColumn("USER_ID", "t_order"))
	assert.True(r.SameTable("t_order", "t_order"))
	assert.False(r.SameTable("t_order", "T_ORDER"))
}

func TestBindingActualTable(t *testing.T) {
	assert := assert.New(t)

	r, err := rule.NewShardingRule(orderRuleConfig(), false)
	assert.NoError(err)

	actual, err := r.BindingActualTable("ds_1", "t_order", "t_order_1", "t_order_item")
	assert.NoError(err)
	assert.Equal("t_order_item_1", actual)

	_, err = r.BindingActualTable("ds_2", "t_order", "t_order_1", "t_order_item")
	assert.True(planerror.IsCode(err, planerror.SHARDPLAN_UNRESOLVED_ROUTE))
}

func TestDataSourceLookups(t *testing.T) {
	assert := assert.New(t)

	r, err := rule.NewShardingRule(orderRuleConfig(), false)
	assert.NoError(err)

	assert.Equal([]string{"ds_0", "ds_1", "ds_2"}, r.DataSourceNames())
	assert.Equal([]rule.InstanceGroup{
		{Instance: "pg-a", DataSources: []string{"ds_0", "ds_1"}},
		{Instance: "pg-b", DataSources: []string{"ds_2"}},
	}, r.Instances())

	assert.Equal([]string{"ds_0", "ds_1"}, r.DataSourcesOf("t_order"))
	assert.Equal([]string{"ds_0", "ds_1", "ds_2"}, r.DataSourcesOf("t_config"))
	assert.Equal([]string{"ds_2"}, r.DataSourcesOf("t_user"))
	assert.Nil(r.DataSourcesOf("t_unknown"))

	assert.True(r.HasUnicastMapping([]string{"t_user", "t_config"}))
	assert.False(r.HasUnicastMapping([]string{"t_unknown"}))
	assert.False(r.HasUnicastMapping(nil))
}

func TestNewShardingRuleErrors(t *testing.T) {
	assert := assert.New(t)

	cfg := orderRuleConfig()
	cfg.Tables[0].ActualDataNodes = "ds_${0..5}.t_order"
	_, err := rule.NewShardingRule(cfg, false)
	assert.True(planerror.IsCode(err, planerror.SHARDPLAN_CONFIG))

	cfg = orderRuleConfig()
	cfg.Tables[1].TableStrategy.Expression = "broken"
	_, err = rule.NewShardingRule(cfg, false)
	assert.True(planerror.IsCode(err, planerror.SHARDPLAN_CONFIG))

	cfg = orderRuleConfig()
	cfg.DataSources = nil
	_, err = rule.NewShardingRule(cfg, false)
	assert.True(planerror.IsCode(err, planerror.SHARDPLAN_CONFIG))
}
