package engine

import (
	"context"

	"github.com/pg-sharding/shardplan/pkg/models/planerror"
	"github.com/pg-sharding/shardplan/router/route"
)

// complexEngine routes independent sharding tables one by one and joins the
// per-table routes per data source by Cartesian product. A join can run only
// inside one data source, so data sources missing any table are dropped.
type complexEngine struct {
	p Params
}

func (e *complexEngine) Kind() EngineKind { return Complex }

func (e *complexEngine) Route(ctx context.Context) (*route.RouteResult, error) {
	r := e.p.Rule
	tables := r.ShardingLogicTableNames(e.p.Tables)

	var groups [][]string
	done := make([]bool, len(tables))
	for i, t := range tables {
		if done[i] {
			continue
		}
		group := []string{t}
		for j := i + 1; j < len(tables); j++ {
			if !done[j] && r.IsBound(t, tables[j]) {
				group = append(group, tables[j])
				done[j] = true
			}
		}
		groups = append(groups, group)
	}

	perGroup := make([][]route.RouteUnit, 0, len(groups))
	for _, g := range groups {
		units, err := routeByConditions(ctx, e.p, g[0], g[1:])
		if err != nil {
			return nil, err
		}
		perGroup = append(perGroup, units)
	}

	res := &route.RouteResult{Engine: Complex.String()}
	mappers := broadcastMappers(e.p)
	for _, ds := range r.DataSourceNames() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		combos := [][]route.TableMapper{nil}
		for _, units := range perGroup {
			var next [][]route.TableMapper
			for _, prefix := range combos {
				for _, u := range units {
					if u.DataSource != ds {
						continue
					}
					combo := make([]route.TableMapper, 0, len(prefix)+len(u.Tables))
					combo = append(combo, prefix...)
					combo = append(combo, u.Tables...)
					next = append(next, combo)
				}
			}
			combos = next
			if len(combos) == 0 {
				break
			}
		}
		for _, combo := range combos {
			res.Add(route.RouteUnit{DataSource: ds, Tables: append(combo, mappers...)})
			if e.p.MaxCartesianUnits > 0 && len(res.Units) > e.p.MaxCartesianUnits {
				return nil, planerror.Newf(planerror.SHARDPLAN_COMPLEX_QUERY, "join of %v expands to more than %d route units", tables, e.p.MaxCartesianUnits)
			}
		}
	}

	if res.IsEmpty() {
		return nil, planerror.Newf(planerror.SHARDPLAN_UNRESOLVED_ROUTE, "tables %v share no data source", tables)
	}
	return res, nil
}
