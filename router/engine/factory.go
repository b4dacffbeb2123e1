package engine

import (
	"github.com/pg-sharding/shardplan/pkg/models/statement"
)

// RuleView is the part of the sharding rule engine selection looks at.
type RuleView interface {
	IsShardingTable(name string) bool
	IsBroadcastTable(name string) bool
	IsAllBroadcastTables(names []string) bool
	IsAllBindingTables(names []string) bool
	ShardingLogicTableNames(names []string) []string
	HasUnicastMapping(names []string) bool
}

// Input is the statement classification engine selection depends on.
type Input struct {
	Kind        statement.Kind
	Tables      []string
	GlobalState bool
	Wildcard    bool
}

func InputFor(stmt *statement.Statement, caseSensitive bool) Input {
	return Input{
		Kind:        stmt.Kind,
		Tables:      stmt.TableNames(caseSensitive),
		GlobalState: stmt.GlobalState,
		Wildcard:    stmt.Wildcard,
	}
}

// Decide picks the routing engine for a statement. It is a pure function of
// its arguments; anything it cannot classify gets the broadest route.
func Decide(in Input, rv RuleView) EngineKind {
	switch in.Kind {
	case statement.TCL:
		return DatabaseBroadcast
	case statement.DDL:
		return decideDDL(in, rv)
	case statement.DAL:
		return decideDAL(in, rv)
	case statement.DCL:
		return decideDCL(in, rv)
	case statement.Select, statement.Insert, statement.Update, statement.Delete, statement.Cursor:
		return decideDML(in, rv)
	default:
		return DatabaseBroadcast
	}
}

func decideDDL(in Input, rv RuleView) EngineKind {
	if len(in.Tables) == 0 {
		return DatabaseBroadcast
	}
	if len(rv.ShardingLogicTableNames(in.Tables)) == 0 {
		for _, t := range in.Tables {
			if rv.IsBroadcastTable(t) {
				return DatabaseBroadcast
			}
		}
		return Ignore
	}
	return TableBroadcast
}

func decideDAL(in Input, rv RuleView) EngineKind {
	if len(in.Tables) == 0 {
		return DataSourceGroupBroadcast
	}
	if len(rv.ShardingLogicTableNames(in.Tables)) > 0 {
		/* metadata of a sharded table is identical on every shard */
		return Unicast
	}
	if in.GlobalState {
		return DatabaseBroadcast
	}
	return Unicast
}

func decideDCL(in Input, rv RuleView) EngineKind {
	if len(in.Tables) != 1 || in.Wildcard || in.Tables[0] == "*" {
		return InstanceBroadcast
	}
	if rv.IsShardingTable(in.Tables[0]) {
		return TableBroadcast
	}
	return Ignore
}

func decideDML(in Input, rv RuleView) EngineKind {
	read := in.Kind.IsRead()
	if len(in.Tables) == 0 {
		if read {
			return Unicast
		}
		return DatabaseBroadcast
	}
	if rv.IsAllBroadcastTables(in.Tables) {
		if read {
			return Unicast
		}
		return DatabaseBroadcast
	}
	shardingTables := rv.ShardingLogicTableNames(in.Tables)
	switch {
	case len(shardingTables) == 0:
		if rv.HasUnicastMapping(in.Tables) {
			return Unicast
		}
		return Ignore
	case len(shardingTables) == 1 || rv.IsAllBindingTables(shardingTables):
		return Standard
	default:
		return Complex
	}
}
