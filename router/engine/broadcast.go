package engine

import (
	"context"

	"github.com/pg-sharding/shardplan/pkg/models/planerror"
	"github.com/pg-sharding/shardplan/router/route"
	"golang.org/x/exp/slices"
)

type databaseBroadcastEngine struct {
	p Params
}

func (e *databaseBroadcastEngine) Kind() EngineKind { return DatabaseBroadcast }

func (e *databaseBroadcastEngine) Route(ctx context.Context) (*route.RouteResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	res := &route.RouteResult{Engine: DatabaseBroadcast.String()}
	mappers := broadcastMappers(e.p)
	for _, ds := range e.p.Rule.DataSourceNames() {
		res.Add(route.RouteUnit{DataSource: ds, Tables: slices.Clone(mappers)})
	}
	return res, nil
}

// tableBroadcastEngine targets every actual table of the statement's sharding tables.
type tableBroadcastEngine struct {
	p Params
}

func (e *tableBroadcastEngine) Kind() EngineKind { return TableBroadcast }

func (e *tableBroadcastEngine) Route(ctx context.Context) (*route.RouteResult, error) {
	res := &route.RouteResult{Engine: TableBroadcast.String()}

	tables := e.p.Rule.ShardingLogicTableNames(e.p.Tables)
	if len(e.p.Tables) == 0 {
		for _, tr := range e.p.Rule.TableRules() {
			tables = append(tables, tr.LogicTable)
		}
	}
	for _, name := range tables {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		tr, err := e.p.Rule.TableRule(name)
		if err != nil {
			return nil, err
		}
		for _, dn := range tr.DataNodes() {
			res.Add(route.RouteUnit{
				DataSource: dn.DataSource,
				Tables:     []route.TableMapper{{Logic: tr.LogicTable, Actual: dn.Table}},
			})
		}
	}
	if res.IsEmpty() {
		return nil, planerror.Newf(planerror.SHARDPLAN_UNRESOLVED_ROUTE, "no actual tables for %v", e.p.Tables)
	}
	return res, nil
}

// dataSourceGroupBroadcastEngine sends the statement to as few data sources as
// needed to reach every group of data sources a table rule spans.
type dataSourceGroupBroadcastEngine struct {
	p Params
}

func (e *dataSourceGroupBroadcastEngine) Kind() EngineKind { return DataSourceGroupBroadcast }

func (e *dataSourceGroupBroadcastEngine) Route(ctx context.Context) (*route.RouteResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	res := &route.RouteResult{Engine: DataSourceGroupBroadcast.String()}
	all := e.p.Rule.DataSourceNames()

	rules := e.p.Rule.TableRules()
	if len(rules) == 0 {
		for _, ds := range all {
			res.Add(route.RouteUnit{DataSource: ds})
		}
		return res, nil
	}

	var chosen []string
	for _, tr := range rules {
		group := tr.DataSourceNames()
		covered := false
		for _, ds := range chosen {
			if slices.Contains(group, ds) {
				covered = true
				break
			}
		}
		if covered {
			continue
		}
		for _, ds := range all {
			if slices.Contains(group, ds) {
				chosen = append(chosen, ds)
				break
			}
		}
	}
	for _, ds := range all {
		if slices.Contains(chosen, ds) {
			res.Add(route.RouteUnit{DataSource: ds})
		}
	}
	return res, nil
}

// instanceBroadcastEngine reaches every database instance once.
type instanceBroadcastEngine struct {
	p Params
}

func (e *instanceBroadcastEngine) Kind() EngineKind { return InstanceBroadcast }

func (e *instanceBroadcastEngine) Route(ctx context.Context) (*route.RouteResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	res := &route.RouteResult{Engine: InstanceBroadcast.String()}
	for _, inst := range e.p.Rule.Instances() {
		res.Add(route.RouteUnit{DataSource: inst.DataSources[0]})
	}
	return res, nil
}
