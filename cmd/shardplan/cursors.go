package main

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgproto3"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/pg-sharding/shardplan/pkg/config"
	"github.com/pg-sharding/shardplan/pkg/shlog"
	"github.com/pg-sharding/shardplan/router/merge"
	"github.com/pkg/errors"
	"github.com/sethvargo/go-retry"
)

const (
	protocolSQL = "sql"
	protocolPg  = "pg"
)

// opener runs query on one data source and returns its result as a cursor.
type opener func(ctx context.Context, ds config.DataSourceCfg, query string, retries int) (merge.ShardCursor, error)

// openCursors opens a cursor on every data source with a dsn. When one of
// them fails the cursors opened so far are closed.
func openCursors(ctx context.Context, sources []config.DataSourceCfg, open func(context.Context, config.DataSourceCfg) (merge.ShardCursor, error)) ([]merge.ShardCursor, error) {
	var cursors []merge.ShardCursor
	for _, ds := range sources {
		if ds.DSN == "" {
			shlog.Zero.Info().Str("data source", ds.Name).Msg("data source has no dsn, skipping")
			continue
		}
		c, err := open(ctx, ds)
		if err != nil {
			for _, opened := range cursors {
				if cerr := opened.Close(); cerr != nil {
					shlog.Zero.Debug().Err(cerr).Msg("failed to close shard cursor")
				}
			}
			return nil, errors.Wrapf(err, "query failed on %s", ds.Name)
		}
		cursors = append(cursors, c)
	}
	return cursors, nil
}

func withRetry(ctx context.Context, ds config.DataSourceCfg, retries int, f func(ctx context.Context) error) error {
	err := retry.Do(ctx, retry.WithMaxRetries(uint64(retries), retry.NewExponential(100*time.Millisecond)), func(ctx context.Context) error {
		if err := f(ctx); err != nil {
			shlog.Zero.Debug().Err(err).Str("data source", ds.Name).Msg("failed to connect, retrying")
			return retry.RetryableError(err)
		}
		return nil
	})
	return errors.Wrapf(err, "failed to connect to %s", ds.Name)
}

func connect(ctx context.Context, ds config.DataSourceCfg, retries int) (*sqlx.DB, error) {
	var db *sqlx.DB
	err := withRetry(ctx, ds, retries, func(ctx context.Context) error {
		var err error
		db, err = sqlx.ConnectContext(ctx, "postgres", ds.DSN)
		return err
	})
	return db, err
}

func openSQLCursor(ctx context.Context, ds config.DataSourceCfg, query string, retries int) (merge.ShardCursor, error) {
	db, err := connect(ctx, ds, retries)
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryxContext(ctx, query)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	c, err := merge.NewSQLCursor(rows)
	if err != nil {
		_ = rows.Close()
		_ = db.Close()
		return nil, err
	}
	return &dbCursor{SQLCursor: c, db: db}, nil
}

// dbCursor owns the pool its rows came from.
type dbCursor struct {
	*merge.SQLCursor
	db *sqlx.DB
}

func (c *dbCursor) Close() error {
	err := c.SQLCursor.Close()
	if cerr := c.db.Close(); err == nil {
		err = cerr
	}
	return err
}

// openPgCursor takes the wire connection over from pgconn after startup and
// reads the simple query result straight off the backend stream.
func openPgCursor(ctx context.Context, ds config.DataSourceCfg, query string, retries int) (merge.ShardCursor, error) {
	var conn *pgconn.PgConn
	err := withRetry(ctx, ds, retries, func(ctx context.Context) error {
		var err error
		conn, err = pgconn.Connect(ctx, ds.DSN)
		return err
	})
	if err != nil {
		return nil, err
	}

	hj, err := conn.Hijack()
	if err != nil {
		_ = conn.Close(ctx)
		return nil, err
	}
	hj.Frontend.Send(&pgproto3.Query{String: query})
	if err := hj.Frontend.Flush(); err != nil {
		_ = hj.Conn.Close()
		return nil, err
	}

	return merge.NewPgCursor(hj.Frontend, func() error {
		hj.Frontend.Send(&pgproto3.Terminate{})
		if err := hj.Frontend.Flush(); err != nil {
			shlog.Zero.Debug().Err(err).Str("data source", ds.Name).Msg("failed to send terminate")
		}
		return hj.Conn.Close()
	}), nil
}
