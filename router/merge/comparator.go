package merge

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/pg-sharding/shardplan/pkg/models/planerror"
	"github.com/pg-sharding/shardplan/pkg/models/statement"
	"golang.org/x/text/cases"
)

type sortKey struct {
	idx        int
	desc       bool
	nullsFirst bool
	fold       bool
}

// Comparator orders rows by a list of ORDER BY items. It is not safe for
// concurrent use because case folding keeps transformer state.
type Comparator struct {
	keys   []sortKey
	folder cases.Caser
}

// NewComparator resolves items against the result columns. Items address a
// column by 1-based Index, or by Name when Index is zero.
func NewComparator(items []statement.OrderByItem, columns []string) (*Comparator, error) {
	c := &Comparator{folder: cases.Fold()}
	for _, item := range items {
		idx := item.Index - 1
		if item.Index == 0 {
			idx = columnIndex(columns, item.Name)
			if idx < 0 {
				return nil, planerror.Newf(planerror.SHARDPLAN_UNEXPECTED, "order by column %q is not in the result %v", item.Name, columns)
			}
		} else if idx < 0 || (columns != nil && idx >= len(columns)) {
			return nil, planerror.Newf(planerror.SHARDPLAN_UNEXPECTED, "order by position %d is out of range", item.Index)
		}

		desc := item.IsDesc()
		var nullsFirst bool
		switch item.Nulls {
		case statement.NullsFirst:
			nullsFirst = true
		case statement.NullsLast:
			nullsFirst = false
		default:
			/* NULL sorts as the smallest value */
			nullsFirst = !desc
		}
		c.keys = append(c.keys, sortKey{idx: idx, desc: desc, nullsFirst: nullsFirst, fold: item.CaseInsensitive})
	}
	return c, nil
}

func columnIndex(columns []string, name string) int {
	for i, col := range columns {
		if col == name {
			return i
		}
	}
	for i, col := range columns {
		if strings.EqualFold(col, name) {
			return i
		}
	}
	return -1
}

// Compare returns a negative number when a sorts before b, zero when they tie.
func (c *Comparator) Compare(a, b []any) int {
	for _, k := range c.keys {
		var va, vb any
		if k.idx < len(a) {
			va = a[k.idx]
		}
		if k.idx < len(b) {
			vb = b[k.idx]
		}
		if r := c.compareKey(k, va, vb); r != 0 {
			return r
		}
	}
	return 0
}

func (c *Comparator) compareKey(k sortKey, a, b any) int {
	an, bn := isNull(a), isNull(b)
	switch {
	case an && bn:
		return 0
	case an:
		if k.nullsFirst {
			return -1
		}
		return 1
	case bn:
		if k.nullsFirst {
			return 1
		}
		return -1
	}

	r := c.compareValues(a, b, k.fold)
	if k.desc {
		return -r
	}
	return r
}

func isNull(v any) bool {
	switch v := v.(type) {
	case nil:
		return true
	case pgtype.Numeric:
		return !v.Valid
	case pgtype.Text:
		return !v.Valid
	case pgtype.Timestamp:
		return !v.Valid
	}
	return false
}

func (c *Comparator) compareValues(a, b any, fold bool) int {
	if ai, ok := asInt(a); ok {
		if bi, ok := asInt(b); ok {
			return cmpOrdered(ai, bi)
		}
	}
	if af, ok := asFloat(a); ok {
		if bf, ok := asFloat(b); ok {
			return cmpOrdered(af, bf)
		}
	}
	if as, ok := asString(a); ok {
		if bs, ok := asString(b); ok {
			if fold {
				as, bs = c.folder.String(as), c.folder.String(bs)
			}
			return strings.Compare(as, bs)
		}
	}

	switch av := a.(type) {
	case []byte:
		if bv, ok := b.([]byte); ok {
			return bytes.Compare(av, bv)
		}
	case bool:
		if bv, ok := b.(bool); ok {
			switch {
			case av == bv:
				return 0
			case !av:
				return -1
			default:
				return 1
			}
		}
	case time.Time:
		if bv, ok := b.(time.Time); ok {
			return av.Compare(bv)
		}
	case pgtype.Timestamp:
		if bv, ok := b.(pgtype.Timestamp); ok {
			return av.Time.Compare(bv.Time)
		}
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}

func cmpOrdered[T int64 | float64 | string](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func asInt(v any) (int64, bool) {
	switch v := v.(type) {
	case int:
		return int64(v), true
	case int8:
		return int64(v), true
	case int16:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	case uint8:
		return int64(v), true
	case uint16:
		return int64(v), true
	case uint32:
		return int64(v), true
	}
	return 0, false
}

func asFloat(v any) (float64, bool) {
	if i, ok := asInt(v); ok {
		return float64(i), true
	}
	switch v := v.(type) {
	case float32:
		return float64(v), true
	case float64:
		return v, true
	case uint:
		return float64(v), true
	case uint64:
		return float64(v), true
	case pgtype.Numeric:
		f, err := v.Float64Value()
		if err != nil || !f.Valid {
			return 0, false
		}
		return f.Float64, true
	}
	return 0, false
}

func asString(v any) (string, bool) {
	switch v := v.(type) {
	case string:
		return v, true
	case pgtype.Text:
		return v.String, true
	}
	return "", false
}
