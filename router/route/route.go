package route

import (
	"strings"
)

// TableMapper binds a logic table to the actual table used in one unit.
type TableMapper struct {
	Logic  string `json:"logic"`
	Actual string `json:"actual"`
}

// RouteUnit is one execution target: a data source and the actual tables
// the rewritten statement touches there. Each logic table appears once.
type RouteUnit struct {
	DataSource string        `json:"data_source"`
	Tables     []TableMapper `json:"tables,omitempty"`
}

func (u RouteUnit) ActualTableNames() []string {
	res := make([]string, 0, len(u.Tables))
	for _, t := range u.Tables {
		res = append(res, t.Actual)
	}
	return res
}

func (u RouteUnit) LogicTableNames() []string {
	res := make([]string, 0, len(u.Tables))
	for _, t := range u.Tables {
		res = append(res, t.Logic)
	}
	return res
}

// ActualTable returns the actual table bound to logic in this unit.
func (u RouteUnit) ActualTable(logic string) (string, bool) {
	for _, t := range u.Tables {
		if strings.EqualFold(t.Logic, logic) {
			return t.Actual, true
		}
	}
	return "", false
}

// Key identifies a unit by data source and table mapping.
func (u RouteUnit) Key() string {
	var sb strings.Builder
	sb.WriteString(u.DataSource)
	for _, t := range u.Tables {
		sb.WriteByte('|')
		sb.WriteString(t.Logic)
		sb.WriteByte(':')
		sb.WriteString(t.Actual)
	}
	return sb.String()
}

func (u RouteUnit) String() string {
	return u.DataSource + "[" + strings.Join(u.ActualTableNames(), ",") + "]"
}

// RouteResult is produced fresh per statement; the router keeps no reference to it.
type RouteResult struct {
	Engine string      `json:"engine"`
	Units  []RouteUnit `json:"units"`
}

// Add appends u unless an equal unit is already present, keeping first-seen order.
func (r *RouteResult) Add(u RouteUnit) bool {
	key := u.Key()
	for _, existing := range r.Units {
		if existing.Key() == key {
			return false
		}
	}
	r.Units = append(r.Units, u)
	return true
}

func (r *RouteResult) IsEmpty() bool {
	return len(r.Units) == 0
}

// DataSourceNames lists distinct data sources in unit order.
func (r *RouteResult) DataSourceNames() []string {
	var res []string
	seen := map[string]struct{}{}
	for _, u := range r.Units {
		if _, ok := seen[u.DataSource]; ok {
			continue
		}
		seen[u.DataSource] = struct{}{}
		res = append(res, u.DataSource)
	}
	return res
}

// UnitsOf returns the units routed to ds.
func (r *RouteResult) UnitsOf(ds string) []RouteUnit {
	var res []RouteUnit
	for _, u := range r.Units {
		if u.DataSource == ds {
			res = append(res, u)
		}
	}
	return res
}

// Equal reports whether both results hold the same units in the same order.
func (r *RouteResult) Equal(other *RouteResult) bool {
	if r.Engine != other.Engine || len(r.Units) != len(other.Units) {
		return false
	}
	for i := range r.Units {
		if r.Units[i].Key() != other.Units[i].Key() {
			return false
		}
	}
	return true
}
