package merge

import (
	"context"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgproto3"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/pg-sharding/shardplan/pkg/shlog"
)

// BackendReceiver is the receiving half of a backend connection,
// e.g. *pgproto3.Frontend.
type BackendReceiver interface {
	Receive() (pgproto3.BackendMessage, error)
}

// PgCursor reads the result of one simple query from a backend message
// stream. It stops at CommandComplete and leaves ReadyForQuery to the owner
// of the connection.
type PgCursor struct {
	src     BackendReceiver
	tm      *pgtype.Map
	onClose func() error

	fields  []pgproto3.FieldDescription
	columns []string
	row     []any
	done    bool
}

var _ ShardCursor = &PgCursor{}

func NewPgCursor(src BackendReceiver, onClose func() error) *PgCursor {
	return &PgCursor{
		src:     src,
		tm:      pgtype.NewMap(),
		onClose: onClose,
	}
}

func (c *PgCursor) Columns() []string {
	return c.columns
}

func (c *PgCursor) Next(ctx context.Context) (bool, error) {
	for !c.done {
		if err := ctx.Err(); err != nil {
			return false, err
		}
		msg, err := c.src.Receive()
		if err != nil {
			return false, err
		}
		switch m := msg.(type) {
		case *pgproto3.RowDescription:
			c.describe(m)
		case *pgproto3.DataRow:
			if err := c.decode(m); err != nil {
				return false, err
			}
			return true, nil
		case *pgproto3.CommandComplete, *pgproto3.EmptyQueryResponse:
			c.done = true
		case *pgproto3.ErrorResponse:
			c.done = true
			return false, pgconn.ErrorResponseToPgError(m)
		default:
			shlog.Zero.Debug().Type("message", msg).Msg("pg cursor skips backend message")
		}
	}
	c.row = nil
	return false, nil
}

// describe copies the row description; the frontend reuses message buffers.
func (c *PgCursor) describe(m *pgproto3.RowDescription) {
	c.fields = make([]pgproto3.FieldDescription, len(m.Fields))
	c.columns = make([]string, len(m.Fields))
	for i, f := range m.Fields {
		c.fields[i] = f
		c.fields[i].Name = nil
		c.columns[i] = string(f.Name)
	}
}

func (c *PgCursor) decode(m *pgproto3.DataRow) error {
	row := make([]any, len(m.Values))
	for i, raw := range m.Values {
		if raw == nil {
			continue
		}
		if i >= len(c.fields) {
			row[i] = string(raw)
			continue
		}
		f := c.fields[i]
		dt, ok := c.tm.TypeForOID(f.DataTypeOID)
		if !ok {
			if f.Format == pgtype.TextFormatCode {
				row[i] = string(raw)
			} else {
				row[i] = append([]byte(nil), raw...)
			}
			continue
		}
		v, err := dt.Codec.DecodeValue(c.tm, f.DataTypeOID, f.Format, raw)
		if err != nil {
			return err
		}
		row[i] = v
	}
	c.row = row
	return nil
}

func (c *PgCursor) Values() []any {
	return c.row
}

func (c *PgCursor) Close() error {
	c.done = true
	c.row = nil
	if c.onClose == nil {
		return nil
	}
	return c.onClose()
}
