package catalog

import (
	"strings"

	"github.com/pg-sharding/shardplan/pkg/models/statement"
)

type columnEntry struct {
	owner string
	count int
}

// ColumnCatalog maps a bare column name to the table owning it together with
// the number of involved tables having a column of that name.
type ColumnCatalog struct {
	columns       map[string]columnEntry
	caseSensitive bool
}

// NewColumnCatalog indexes the columns of tables. A table listed twice
// (self join) counts once per reference.
func NewColumnCatalog(tables []statement.TableRef, md TableMetadata, caseSensitive bool) *ColumnCatalog {
	c := &ColumnCatalog{
		columns:       map[string]columnEntry{},
		caseSensitive: caseSensitive,
	}
	for _, t := range tables {
		cols, ok := md.Columns(t.Name)
		if !ok {
			continue
		}
		for _, col := range cols {
			key := c.key(col)
			e := c.columns[key]
			if e.count == 0 {
				e.owner = t.Name
			}
			e.count++
			c.columns[key] = e
		}
	}
	return c
}

func (c *ColumnCatalog) key(name string) string {
	if c.caseSensitive {
		return name
	}
	return strings.ToLower(name)
}

// Lookup returns the owner of column and its occurrence count.
// The owner is meaningful only when count is 1.
func (c *ColumnCatalog) Lookup(column string) (string, int) {
	e := c.columns[c.key(column)]
	return e.owner, e.count
}
