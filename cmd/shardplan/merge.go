package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/pg-sharding/shardplan/pkg/config"
	"github.com/pg-sharding/shardplan/pkg/models/statement"
	"github.com/pg-sharding/shardplan/router/merge"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var (
	query    string
	orderBy  []string
	protocol string
)

// parseOrderBy reads items like "created:desc:nulls_last" or "2".
func parseOrderBy(specs []string) ([]statement.OrderByItem, error) {
	items := make([]statement.OrderByItem, 0, len(specs))
	for _, spec := range specs {
		parts := strings.Split(spec, ":")
		if parts[0] == "" {
			return nil, errors.Errorf("empty order by item %q", spec)
		}
		var item statement.OrderByItem
		if idx, err := strconv.Atoi(parts[0]); err == nil {
			item.Index = idx
		} else {
			item.Name = parts[0]
		}
		for _, opt := range parts[1:] {
			switch strings.ToLower(opt) {
			case "asc":
				item.Direction = statement.Asc
			case "desc":
				item.Direction = statement.Desc
			case "nulls_first":
				item.Nulls = statement.NullsFirst
			case "nulls_last":
				item.Nulls = statement.NullsLast
			case "ci":
				item.CaseInsensitive = true
			default:
				return nil, errors.Errorf("unknown order by option %q in %q", opt, spec)
			}
		}
		items = append(items, item)
	}
	return items, nil
}

var mergeCmd = &cobra.Command{
	Use:   "merge",
	Short: "run a query on every data source and merge the ordered results",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, qr, closer, err := setup(cfgPath)
		if err != nil {
			return err
		}
		defer closer.Close()

		items, err := parseOrderBy(orderBy)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		var open opener
		switch protocol {
		case protocolSQL:
			open = openSQLCursor
		case protocolPg:
			open = openPgCursor
		default:
			return errors.Errorf("unknown protocol %q, expected %s or %s", protocol, protocolSQL, protocolPg)
		}

		cursors, err := openCursors(ctx, cfg.ShardingConfig.DataSources, func(ctx context.Context, ds config.DataSourceCfg) (merge.ShardCursor, error) {
			return open(ctx, ds, query, cfg.RouterConfig.ConnectRetries)
		})
		if err != nil {
			return err
		}

		m := qr.Merge(&statement.Statement{Kind: statement.Select, OrderBy: items}, cursors)
		defer m.Close()

		out := cmd.OutOrStdout()
		header := false
		for {
			ok, err := m.Next(ctx)
			if err != nil {
				return err
			}
			if !ok {
				return nil
			}
			if !header {
				fmt.Fprintln(out, strings.Join(m.Columns(), "\t"))
				header = true
			}
			vals := m.Values()
			cells := make([]string, len(vals))
			for i, v := range vals {
				if v == nil {
					cells[i] = "NULL"
					continue
				}
				cells[i] = fmt.Sprint(v)
			}
			fmt.Fprintln(out, strings.Join(cells, "\t"))
		}
	},
}

func init() {
	mergeCmd.Flags().StringVarP(&query, "query", "q", "", "query to run on every data source")
	mergeCmd.Flags().StringVar(&protocol, "protocol", protocolSQL, "how shards are queried: sql (database/sql driver) or pg (raw wire protocol)")
	mergeCmd.Flags().StringSliceVarP(&orderBy, "order-by", "o", nil, "order by items, e.g. user_id:desc or 2:nulls_first")
	_ = mergeCmd.MarkFlagRequired("query")
}
