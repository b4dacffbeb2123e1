package config

import (
	"strings"

	"github.com/pg-sharding/shardplan/pkg/models/planerror"
)

type DataSourceCfg struct {
	Name     string `json:"name" toml:"name" yaml:"name"`
	Instance string `json:"instance" toml:"instance" yaml:"instance"`
	DSN      string `json:"dsn" toml:"dsn" yaml:"dsn"`
}

type StrategyType string

const (
	StrategyNone     = StrategyType("none")
	StrategyInline   = StrategyType("inline")
	StrategyHashMod  = StrategyType("hash_mod")
	StrategyBoundary = StrategyType("boundary")
)

type BoundCfg struct {
	Lower  int64  `json:"lower" toml:"lower" yaml:"lower"`
	Target string `json:"target" toml:"target" yaml:"target"`
}

type StrategyCfg struct {
	Type         StrategyType `json:"type" toml:"type" yaml:"type"`
	Column       string       `json:"column" toml:"column" yaml:"column"`
	Expression   string       `json:"expression,omitempty" toml:"expression" yaml:"expression"`
	HashFunction string       `json:"hash_function,omitempty" toml:"hash_function" yaml:"hash_function"`
	ColumnType   string       `json:"column_type,omitempty" toml:"column_type" yaml:"column_type"`
	Bounds       []BoundCfg   `json:"bounds,omitempty" toml:"bounds" yaml:"bounds"`
}

type TableRuleCfg struct {
	Name             string       `json:"name" toml:"name" yaml:"name"`
	ActualDataNodes  string       `json:"actual_data_nodes" toml:"actual_data_nodes" yaml:"actual_data_nodes"`
	DatabaseStrategy *StrategyCfg `json:"database_strategy,omitempty" toml:"database_strategy" yaml:"database_strategy"`
	TableStrategy    *StrategyCfg `json:"table_strategy,omitempty" toml:"table_strategy" yaml:"table_strategy"`
}

type ShardingCfg struct {
	DataSources             []DataSourceCfg   `json:"data_sources" toml:"data_sources" yaml:"data_sources"`
	Tables                  []TableRuleCfg    `json:"tables" toml:"tables" yaml:"tables"`
	DefaultDatabaseStrategy *StrategyCfg      `json:"default_database_strategy,omitempty" toml:"default_database_strategy" yaml:"default_database_strategy"`
	DefaultTableStrategy    *StrategyCfg      `json:"default_table_strategy,omitempty" toml:"default_table_strategy" yaml:"default_table_strategy"`
	BindingTables           [][]string        `json:"binding_tables" toml:"binding_tables" yaml:"binding_tables"`
	BroadcastTables         []string          `json:"broadcast_tables" toml:"broadcast_tables" yaml:"broadcast_tables"`
	SingleTables            map[string]string `json:"single_tables" toml:"single_tables" yaml:"single_tables"`
	DefaultDataSource       string            `json:"default_data_source" toml:"default_data_source" yaml:"default_data_source"`
}

func (s *ShardingCfg) hasDataSource(name string) bool {
	for _, ds := range s.DataSources {
		if ds.Name == name {
			return true
		}
	}
	return false
}

func (s *ShardingCfg) hasTable(name string) bool {
	for _, t := range s.Tables {
		if strings.EqualFold(t.Name, name) {
			return true
		}
	}
	return false
}

// Validate checks names and cross references; strategy expressions are
// checked when the rule is built.
func (s *ShardingCfg) Validate() error {
	if len(s.DataSources) == 0 {
		return planerror.New(planerror.SHARDPLAN_CONFIG, "no data sources configured")
	}
	seen := map[string]struct{}{}
	for _, ds := range s.DataSources {
		if ds.Name == "" {
			return planerror.New(planerror.SHARDPLAN_CONFIG, "data source without a name")
		}
		if _, ok := seen[ds.Name]; ok {
			return planerror.Newf(planerror.SHARDPLAN_CONFIG, "data source %q is declared twice", ds.Name)
		}
		seen[ds.Name] = struct{}{}
	}

	tables := map[string]struct{}{}
	for _, t := range s.Tables {
		if t.Name == "" {
			return planerror.New(planerror.SHARDPLAN_CONFIG, "table rule without a name")
		}
		key := strings.ToLower(t.Name)
		if _, ok := tables[key]; ok {
			return planerror.Newf(planerror.SHARDPLAN_CONFIG, "table rule %q is declared twice", t.Name)
		}
		tables[key] = struct{}{}
	}

	for _, group := range s.BindingTables {
		for _, name := range group {
			if !s.hasTable(name) {
				return planerror.Newf(planerror.SHARDPLAN_CONFIG, "binding table %q has no table rule", name)
			}
		}
	}
	for _, name := range s.BroadcastTables {
		if s.hasTable(name) {
			return planerror.Newf(planerror.SHARDPLAN_CONFIG, "table %q is both sharded and broadcast", name)
		}
	}
	for name, ds := range s.SingleTables {
		if !s.hasDataSource(ds) {
			return planerror.Newf(planerror.SHARDPLAN_CONFIG, "single table %q refers to unknown data source %q", name, ds)
		}
	}
	if s.DefaultDataSource != "" && !s.hasDataSource(s.DefaultDataSource) {
		return planerror.Newf(planerror.SHARDPLAN_CONFIG, "default data source %q is not declared", s.DefaultDataSource)
	}
	return nil
}
