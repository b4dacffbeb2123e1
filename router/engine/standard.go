package engine

import (
	"context"

	"github.com/pg-sharding/shardplan/pkg/models/planerror"
	"github.com/pg-sharding/shardplan/pkg/models/sharding"
	"github.com/pg-sharding/shardplan/pkg/models/statement"
	"github.com/pg-sharding/shardplan/pkg/shlog"
	"github.com/pg-sharding/shardplan/router/route"
	"github.com/pg-sharding/shardplan/router/rule"
)

// standardEngine routes a single sharding table, or a group of bound tables
// that share its layout, by evaluating its strategies per AND group.
type standardEngine struct {
	p Params
}

func (e *standardEngine) Kind() EngineKind { return Standard }

func (e *standardEngine) Route(ctx context.Context) (*route.RouteResult, error) {
	tables := e.p.Rule.ShardingLogicTableNames(e.p.Tables)
	if len(tables) == 0 {
		return nil, planerror.Newf(planerror.SHARDPLAN_UNRESOLVED_ROUTE, "no sharding table among %v", e.p.Tables)
	}
	primary := primaryTable(e.p.Rule, tables, e.p.Conditions)
	var bound []string
	for _, t := range tables {
		if !e.p.Rule.SameTable(t, primary) {
			bound = append(bound, t)
		}
	}

	units, err := routeByConditions(ctx, e.p, primary, bound)
	if err != nil {
		return nil, err
	}
	res := &route.RouteResult{Engine: Standard.String()}
	for _, u := range withBroadcast(units, broadcastMappers(e.p)) {
		res.Add(u)
	}
	return res, nil
}

// primaryTable is the first table some condition refers to, else the first table.
func primaryTable(r *rule.ShardingRule, tables []string, or sharding.OrCondition) string {
	for _, and := range or.AndConditions {
		for _, c := range and.Conditions {
			for _, t := range tables {
				if r.SameTable(t, c.Column.Table) {
					return t
				}
			}
		}
	}
	return tables[0]
}

// routeByConditions evaluates the database and table strategies of primary
// for every AND group and joins the bound tables by actual table position.
// The result is the union over groups in first-seen order.
func routeByConditions(ctx context.Context, p Params, primary string, bound []string) ([]route.RouteUnit, error) {
	tr, err := p.Rule.TableRule(primary)
	if err != nil {
		return nil, err
	}

	groups := p.Conditions.AndConditions
	if len(groups) == 0 {
		/* no usable predicate: full range */
		groups = []sharding.AndCondition{{}}
	}
	related := append([]string{primary}, bound...)

	var params []any
	isInsert := false
	if p.Statement != nil {
		params = p.Statement.Parameters
		isInsert = p.Statement.Kind == statement.Insert
	}

	var (
		units []route.RouteUnit
		seen  = map[string]struct{}{}
	)
	for _, group := range groups {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		dbValues, err := strategyValues(group, tr.DatabaseStrategy(), related, params, p.Rule.CaseSensitive())
		if err != nil {
			return nil, err
		}
		tableValues, err := strategyValues(group, tr.TableStrategy(), related, params, p.Rule.CaseSensitive())
		if err != nil {
			return nil, err
		}

		dataSources, err := tr.DatabaseStrategy().DoSharding(tr.DataSourceNames(), dbValues)
		if err != nil {
			return nil, err
		}

		candidates := 0
		for _, ds := range dataSources {
			actualTables, err := tr.TableStrategy().DoSharding(tr.ActualTables(ds), tableValues)
			if err != nil {
				return nil, err
			}
			for _, actual := range actualTables {
				if !tr.HasDataNode(ds, actual) {
					continue
				}
				unit := route.RouteUnit{
					DataSource: ds,
					Tables:     []route.TableMapper{{Logic: tr.LogicTable, Actual: actual}},
				}
				for _, b := range bound {
					boundActual, err := p.Rule.BindingActualTable(ds, tr.LogicTable, actual, b)
					if err != nil {
						return nil, err
					}
					unit.Tables = append(unit.Tables, route.TableMapper{Logic: b, Actual: boundActual})
				}
				candidates++
				if _, ok := seen[unit.Key()]; ok {
					continue
				}
				seen[unit.Key()] = struct{}{}
				units = append(units, unit)
			}
		}

		shlog.Zero.Debug().
			Str("table", tr.LogicTable).
			Interface("db values", dbValues).
			Interface("table values", tableValues).
			Strs("data sources", dataSources).
			Int("units", candidates).
			Msg("calculated route for AND group")

		if candidates == 0 {
			return nil, planerror.Newf(planerror.SHARDPLAN_UNRESOLVED_ROUTE, "table %s has no data node matching the sharding conditions", tr.LogicTable)
		}
		if isInsert && candidates > 1 {
			return nil, planerror.Newf(planerror.SHARDPLAN_COMPLEX_QUERY, "INSERT row into %s routes to %d data nodes", tr.LogicTable, candidates)
		}
	}
	return units, nil
}

// strategyValues picks the condition feeding strategy s out of group. Bound
// tables share the sharding layout, so their condition on the same column counts.
func strategyValues(group sharding.AndCondition, s rule.Strategy, tables []string, params []any, caseSensitive bool) ([]sharding.ShardingValue, error) {
	if s.Column() == "" {
		return nil, nil
	}
	c, ok := group.Find(s.Column(), tables, caseSensitive)
	if !ok {
		return nil, nil
	}
	v, ok, err := c.ShardingValue(params)
	if err != nil || !ok {
		return nil, err
	}
	return []sharding.ShardingValue{v}, nil
}
