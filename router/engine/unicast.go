package engine

import (
	"context"

	"github.com/pg-sharding/shardplan/pkg/models/planerror"
	"github.com/pg-sharding/shardplan/router/route"
	"golang.org/x/exp/slices"
)

// unicastEngine sends the statement to exactly one data source able to
// serve every table. The first one in configuration order wins.
type unicastEngine struct {
	p Params
}

func (e *unicastEngine) Kind() EngineKind { return Unicast }

func (e *unicastEngine) Route(ctx context.Context) (*route.RouteResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r := e.p.Rule
	res := &route.RouteResult{Engine: Unicast.String()}

	if len(e.p.Tables) == 0 {
		ds := r.DefaultDataSource()
		if ds == "" {
			ds = r.DataSourceNames()[0]
		}
		res.Add(route.RouteUnit{DataSource: ds})
		return res, nil
	}

	candidates := r.DataSourceNames()
	for _, t := range e.p.Tables {
		holders := r.DataSourcesOf(t)
		if holders == nil {
			continue
		}
		candidates = slices.DeleteFunc(candidates, func(ds string) bool {
			return !slices.Contains(holders, ds)
		})
	}
	if len(candidates) == 0 {
		return nil, planerror.Newf(planerror.SHARDPLAN_UNRESOLVED_ROUTE, "no single data source holds all of %v", e.p.Tables)
	}
	ds := candidates[0]

	unit := route.RouteUnit{DataSource: ds}
	for _, t := range e.p.Tables {
		mapper := route.TableMapper{Logic: t, Actual: t}
		if r.IsShardingTable(t) {
			tr, err := r.TableRule(t)
			if err != nil {
				return nil, err
			}
			mapper = route.TableMapper{Logic: tr.LogicTable, Actual: tr.ActualTables(ds)[0]}
		}
		unit.Tables = append(unit.Tables, mapper)
	}
	res.Add(unit)
	return res, nil
}
