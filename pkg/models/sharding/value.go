package sharding

// Range is an inclusive [Begin, End] interval from a BETWEEN predicate.
type Range struct {
	Begin any `json:"begin"`
	End   any `json:"end"`
}

// ShardingValue is what a sharding strategy consumes: either a value list
// (EQUAL, IN) or a range (BETWEEN) for one column.
type ShardingValue struct {
	Column Column `json:"column"`
	List   []any  `json:"list,omitempty"`
	Range  *Range `json:"range,omitempty"`
}

func (v ShardingValue) IsRange() bool {
	return v.Range != nil
}
