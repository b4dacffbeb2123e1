package merge

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// SQLCursor adapts a database/sql result set.
type SQLCursor struct {
	rows    *sqlx.Rows
	columns []string
	row     []any
}

var _ ShardCursor = &SQLCursor{}

func NewSQLCursor(rows *sqlx.Rows) (*SQLCursor, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	return &SQLCursor{rows: rows, columns: columns}, nil
}

func (c *SQLCursor) Columns() []string {
	return c.columns
}

func (c *SQLCursor) Next(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if !c.rows.Next() {
		c.row = nil
		return false, c.rows.Err()
	}
	row, err := c.rows.SliceScan()
	if err != nil {
		return false, err
	}
	for i, v := range row {
		if b, ok := v.([]byte); ok {
			row[i] = string(b)
		}
	}
	c.row = row
	return true, nil
}

func (c *SQLCursor) Values() []any {
	return c.row
}

func (c *SQLCursor) Close() error {
	return c.rows.Close()
}
