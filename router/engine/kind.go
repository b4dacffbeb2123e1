package engine

type EngineKind int

const (
	DatabaseBroadcast = EngineKind(iota)
	TableBroadcast
	DataSourceGroupBroadcast
	InstanceBroadcast
	Unicast
	Ignore
	Standard
	Complex
)

func (k EngineKind) String() string {
	switch k {
	case DatabaseBroadcast:
		return "database_broadcast"
	case TableBroadcast:
		return "table_broadcast"
	case DataSourceGroupBroadcast:
		return "data_source_group_broadcast"
	case InstanceBroadcast:
		return "instance_broadcast"
	case Unicast:
		return "unicast"
	case Ignore:
		return "ignore"
	case Standard:
		return "standard"
	case Complex:
		return "complex"
	}
	return "unknown"
}

// AllKinds lists every engine kind, e.g. to pre-register metrics.
func AllKinds() []EngineKind {
	return []EngineKind{
		DatabaseBroadcast,
		TableBroadcast,
		DataSourceGroupBroadcast,
		InstanceBroadcast,
		Unicast,
		Ignore,
		Standard,
		Complex,
	}
}
