package engine

import (
	"context"
	"fmt"

	"github.com/pg-sharding/shardplan/pkg/models/sharding"
	"github.com/pg-sharding/shardplan/pkg/models/statement"
	"github.com/pg-sharding/shardplan/router/route"
	"github.com/pg-sharding/shardplan/router/rule"
)

// RoutingEngine computes the route units of one statement.
type RoutingEngine interface {
	Kind() EngineKind
	Route(ctx context.Context) (*route.RouteResult, error)
}

// Params is the per-statement input shared by all engines.
type Params struct {
	Rule       *rule.ShardingRule
	Statement  *statement.Statement
	Tables     []string
	Conditions sharding.OrCondition

	// MaxCartesianUnits bounds the complex engine output, 0 means unlimited.
	MaxCartesianUnits int
}

func New(kind EngineKind, p Params) (RoutingEngine, error) {
	switch kind {
	case DatabaseBroadcast:
		return &databaseBroadcastEngine{p: p}, nil
	case TableBroadcast:
		return &tableBroadcastEngine{p: p}, nil
	case DataSourceGroupBroadcast:
		return &dataSourceGroupBroadcastEngine{p: p}, nil
	case InstanceBroadcast:
		return &instanceBroadcastEngine{p: p}, nil
	case Unicast:
		return &unicastEngine{p: p}, nil
	case Ignore:
		return &ignoreEngine{}, nil
	case Standard:
		return &standardEngine{p: p}, nil
	case Complex:
		return &complexEngine{p: p}, nil
	default:
		return nil, fmt.Errorf("unknown routing engine: %v", kind)
	}
}

// broadcastMappers maps every broadcast table of the statement to itself.
func broadcastMappers(p Params) []route.TableMapper {
	var res []route.TableMapper
	for _, t := range p.Rule.BroadcastTableNames(p.Tables) {
		res = append(res, route.TableMapper{Logic: t, Actual: t})
	}
	return res
}

func withBroadcast(units []route.RouteUnit, mappers []route.TableMapper) []route.RouteUnit {
	if len(mappers) == 0 {
		return units
	}
	for i := range units {
		tables := make([]route.TableMapper, 0, len(units[i].Tables)+len(mappers))
		tables = append(tables, units[i].Tables...)
		tables = append(tables, mappers...)
		units[i].Tables = tables
	}
	return units
}

type ignoreEngine struct{}

func (e *ignoreEngine) Kind() EngineKind { return Ignore }

func (e *ignoreEngine) Route(ctx context.Context) (*route.RouteResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &route.RouteResult{Engine: Ignore.String()}, nil
}
