package rule

import (
	"fmt"
	"strings"

	"github.com/juju/errors"
	"github.com/pg-sharding/shardplan/pkg/config"
	"github.com/pg-sharding/shardplan/pkg/models/planerror"
)

// TableRule describes how one logic table is laid out over data nodes.
type TableRule struct {
	LogicTable string

	dataNodes []DataNode
	dsNames   []string
	actual    map[string][]string

	dbStrategy    Strategy
	tableStrategy Strategy
}

func (tr *TableRule) DataNodes() []DataNode {
	return tr.dataNodes
}

// DataSourceNames returns data sources holding the table in node order.
func (tr *TableRule) DataSourceNames() []string {
	return tr.dsNames
}

func (tr *TableRule) ActualTables(ds string) []string {
	return tr.actual[ds]
}

func (tr *TableRule) HasDataNode(ds, table string) bool {
	return tr.ActualTableIndex(ds, table) >= 0
}

// ActualTableIndex is the position of table among the actual tables of ds.
func (tr *TableRule) ActualTableIndex(ds, table string) int {
	for i, t := range tr.actual[ds] {
		if t == table {
			return i
		}
	}
	return -1
}

func (tr *TableRule) DatabaseStrategy() Strategy {
	return tr.dbStrategy
}

func (tr *TableRule) TableStrategy() Strategy {
	return tr.tableStrategy
}

// ShardingRule is the read-only rule view the router works against.
// It is never mutated after NewShardingRule returns.
type ShardingRule struct {
	dataSources []config.DataSourceCfg
	tableRules  []*TableRule
	tables      map[string]*TableRule

	bindingGroups [][]string
	bindingIdx    map[string]int

	broadcast     map[string]struct{}
	broadcastList []string
	single        map[string]string
	defaultDS     string

	caseSensitive bool
}

func NewShardingRule(cfg *config.ShardingCfg, caseSensitive bool) (*ShardingRule, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	r := &ShardingRule{
		dataSources:   cfg.DataSources,
		tables:        map[string]*TableRule{},
		bindingIdx:    map[string]int{},
		broadcast:     map[string]struct{}{},
		single:        map[string]string{},
		defaultDS:     cfg.DefaultDataSource,
		caseSensitive: caseSensitive,
	}

	defaultDB, err := NewStrategy(cfg.DefaultDatabaseStrategy)
	if err != nil {
		return nil, fmt.Errorf("default database strategy: %w", err)
	}
	defaultTable, err := NewStrategy(cfg.DefaultTableStrategy)
	if err != nil {
		return nil, fmt.Errorf("default table strategy: %w", err)
	}

	for _, tcfg := range cfg.Tables {
		tr, err := r.newTableRule(tcfg, defaultDB, defaultTable)
		if err != nil {
			return nil, err
		}
		r.tableRules = append(r.tableRules, tr)
		r.tables[r.key(tr.LogicTable)] = tr
	}

	for i, group := range cfg.BindingTables {
		r.bindingGroups = append(r.bindingGroups, group)
		for _, name := range group {
			r.bindingIdx[r.key(name)] = i
		}
	}
	for _, name := range cfg.BroadcastTables {
		r.broadcast[r.key(name)] = struct{}{}
		r.broadcastList = append(r.broadcastList, name)
	}
	for name, ds := range cfg.SingleTables {
		r.single[r.key(name)] = ds
	}
	return r, nil
}

func (r *ShardingRule) newTableRule(tcfg config.TableRuleCfg, defaultDB, defaultTable Strategy) (*TableRule, error) {
	tr := &TableRule{
		LogicTable: tcfg.Name,
		actual:     map[string][]string{},
	}
	if tcfg.ActualDataNodes == "" {
		for _, ds := range r.dataSources {
			tr.dataNodes = append(tr.dataNodes, DataNode{DataSource: ds.Name, Table: tcfg.Name})
		}
	} else {
		nodes, err := ExpandDataNodes(tcfg.ActualDataNodes)
		if err != nil {
			return nil, fmt.Errorf("table %s: %w", tcfg.Name, err)
		}
		tr.dataNodes = nodes
	}
	for _, dn := range tr.dataNodes {
		if !r.isDataSource(dn.DataSource) {
			return nil, planerror.Newf(planerror.SHARDPLAN_CONFIG, "table %s: data node %s uses undeclared data source", tcfg.Name, dn)
		}
		if _, ok := tr.actual[dn.DataSource]; !ok {
			tr.dsNames = append(tr.dsNames, dn.DataSource)
		}
		tr.actual[dn.DataSource] = append(tr.actual[dn.DataSource], dn.Table)
	}

	var err error
	tr.dbStrategy = defaultDB
	if tcfg.DatabaseStrategy != nil {
		if tr.dbStrategy, err = NewStrategy(tcfg.DatabaseStrategy); err != nil {
			return nil, fmt.Errorf("table %s database strategy: %w", tcfg.Name, err)
		}
	}
	tr.tableStrategy = defaultTable
	if tcfg.TableStrategy != nil {
		if tr.tableStrategy, err = NewStrategy(tcfg.TableStrategy); err != nil {
			return nil, fmt.Errorf("table %s table strategy: %w", tcfg.Name, err)
		}
	}
	return tr, nil
}

func (r *ShardingRule) key(name string) string {
	if r.caseSensitive {
		return name
	}
	return strings.ToLower(name)
}

func (r *ShardingRule) isDataSource(name string) bool {
	for _, ds := range r.dataSources {
		if ds.Name == name {
			return true
		}
	}
	return false
}

func (r *ShardingRule) CaseSensitive() bool {
	return r.caseSensitive
}

// SameTable compares table names the way the rule does.
func (r *ShardingRule) SameTable(a, b string) bool {
	return r.key(a) == r.key(b)
}

func (r *ShardingRule) TableRule(name string) (*TableRule, error) {
	tr, ok := r.tables[r.key(name)]
	if !ok {
		return nil, errors.NotFoundf("table rule for %q", name)
	}
	return tr, nil
}

func (r *ShardingRule) TableRules() []*TableRule {
	return r.tableRules
}

func (r *ShardingRule) IsShardingTable(name string) bool {
	_, ok := r.tables[r.key(name)]
	return ok
}

func (r *ShardingRule) IsBroadcastTable(name string) bool {
	_, ok := r.broadcast[r.key(name)]
	return ok
}

func (r *ShardingRule) IsSingleTable(name string) bool {
	_, ok := r.single[r.key(name)]
	return ok
}

// ShardingLogicTableNames filters names down to sharding tables, keeping order.
func (r *ShardingRule) ShardingLogicTableNames(names []string) []string {
	var res []string
	for _, n := range names {
		if r.IsShardingTable(n) {
			res = append(res, n)
		}
	}
	return res
}

func (r *ShardingRule) BroadcastTableNames(names []string) []string {
	var res []string
	for _, n := range names {
		if r.IsBroadcastTable(n) {
			res = append(res, n)
		}
	}
	return res
}

func (r *ShardingRule) IsAllBroadcastTables(names []string) bool {
	if len(names) == 0 {
		return false
	}
	for _, n := range names {
		if !r.IsBroadcastTable(n) {
			return false
		}
	}
	return true
}

// IsAllBindingTables reports whether every name is a sharding table of one binding group.
func (r *ShardingRule) IsAllBindingTables(names []string) bool {
	if len(names) == 0 {
		return false
	}
	group := -1
	for _, n := range names {
		idx, ok := r.bindingIdx[r.key(n)]
		if !ok || !r.IsShardingTable(n) {
			return false
		}
		if group >= 0 && group != idx {
			return false
		}
		group = idx
	}
	return true
}

// BindingGroup returns the binding group of name, or nil.
func (r *ShardingRule) BindingGroup(name string) []string {
	idx, ok := r.bindingIdx[r.key(name)]
	if !ok {
		return nil
	}
	return r.bindingGroups[idx]
}

// IsBound reports whether a and b belong to the same binding group.
func (r *ShardingRule) IsBound(a, b string) bool {
	ia, ok := r.bindingIdx[r.key(a)]
	if !ok {
		return false
	}
	ib, ok := r.bindingIdx[r.key(b)]
	return ok && ia == ib
}

// IsShardingColumn reports whether column drives the database or table
// strategy of table.
func (r *ShardingRule) IsShardingColumn(column, table string) bool {
	tr, ok := r.tables[r.key(table)]
	if !ok {
		return false
	}
	for _, s := range []Strategy{tr.dbStrategy, tr.tableStrategy} {
		if s.Column() == "" {
			continue
		}
		if r.caseSensitive && s.Column() == column || !r.caseSensitive && strings.EqualFold(s.Column(), column) {
			return true
		}
	}
	return false
}

// BindingActualTable maps an actual table of logic to the actual table of
// other on the same data source, by position.
func (r *ShardingRule) BindingActualTable(ds, logic, actual, other string) (string, error) {
	primary, err := r.TableRule(logic)
	if err != nil {
		return "", err
	}
	bound, err := r.TableRule(other)
	if err != nil {
		return "", err
	}
	idx := primary.ActualTableIndex(ds, actual)
	tables := bound.ActualTables(ds)
	if idx < 0 || idx >= len(tables) {
		return "", planerror.Newf(planerror.SHARDPLAN_UNRESOLVED_ROUTE, "binding table %s has no actual table matching %s.%s", other, ds, actual)
	}
	return tables[idx], nil
}

func (r *ShardingRule) DataSourceNames() []string {
	res := make([]string, 0, len(r.dataSources))
	for _, ds := range r.dataSources {
		res = append(res, ds.Name)
	}
	return res
}

func (r *ShardingRule) DataSources() []config.DataSourceCfg {
	return r.dataSources
}

func (r *ShardingRule) DefaultDataSource() string {
	return r.defaultDS
}

// InstanceGroup lists the data sources served by one database instance.
type InstanceGroup struct {
	Instance    string
	DataSources []string
}

// Instances groups data sources by instance in configuration order.
func (r *ShardingRule) Instances() []InstanceGroup {
	var res []InstanceGroup
	idx := map[string]int{}
	for _, ds := range r.dataSources {
		inst := ds.Instance
		if inst == "" {
			inst = ds.Name
		}
		i, ok := idx[inst]
		if !ok {
			i = len(res)
			idx[inst] = i
			res = append(res, InstanceGroup{Instance: inst})
		}
		res[i].DataSources = append(res[i].DataSources, ds.Name)
	}
	return res
}

// DataSourcesOf returns the data sources a table can be read from.
func (r *ShardingRule) DataSourcesOf(table string) []string {
	if tr, ok := r.tables[r.key(table)]; ok {
		return tr.DataSourceNames()
	}
	if r.IsBroadcastTable(table) {
		return r.DataSourceNames()
	}
	if ds, ok := r.single[r.key(table)]; ok {
		return []string{ds}
	}
	if r.defaultDS != "" {
		return []string{r.defaultDS}
	}
	return nil
}

// HasUnicastMapping reports whether tables without sharding rules can still
// be sent to one concrete data source.
func (r *ShardingRule) HasUnicastMapping(names []string) bool {
	if r.defaultDS != "" {
		return true
	}
	if len(names) == 0 {
		return false
	}
	for _, n := range names {
		if !r.IsSingleTable(n) && !r.IsBroadcastTable(n) {
			return false
		}
	}
	return true
}
