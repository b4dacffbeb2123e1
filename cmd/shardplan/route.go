package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/pg-sharding/shardplan/pkg/models/statement"
	"github.com/pg-sharding/shardplan/pkg/shlog"
	"github.com/pg-sharding/shardplan/router/qrouter"
	"github.com/pg-sharding/shardplan/router/statistics"
	"github.com/spf13/cobra"
)

var stmtPath string

var routeCmd = &cobra.Command{
	Use:   "route",
	Short: "print the route units of a statement",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, qr, closer, err := setup(cfgPath)
		if err != nil {
			return err
		}
		defer func() {
			if err := closer.Close(); err != nil {
				shlog.Zero.Error().Err(err).Msg("failed to close tracer")
			}
		}()

		stmt, err := statement.LoadStatement(stmtPath)
		if err != nil {
			return err
		}

		sess := qrouter.NewSession()
		res, err := qr.Route(cmd.Context(), sess, stmt)
		if err != nil {
			return err
		}

		out, err := json.MarshalIndent(res, "", "  ")
		if err != nil {
			return err
		}
		if _, err := cmd.OutOrStdout().Write(append(out, '\n')); err != nil {
			return err
		}
		return writeQuantiles(cmd.ErrOrStderr(), sess, res.Engine)
	},
}

// writeQuantiles prints routing time quantiles in milliseconds when
// time_quantiles is configured.
func writeQuantiles(w io.Writer, h statistics.StatHolder, engine string) error {
	quantiles := *statistics.GetQuantiles()
	labels := *statistics.GetQuantilesStr()
	for i, q := range quantiles {
		_, err := fmt.Fprintf(w, "time quantile %s: session %.3fms, all %.3fms, engine phase %.3fms, %s %.3fms\n",
			labels[i],
			statistics.GetTimeQuantile(statistics.StatisticsTypeTotal, q, h),
			statistics.GetTotalTimeQuantile(statistics.StatisticsTypeTotal, q),
			statistics.GetTotalTimeQuantile(statistics.StatisticsTypeEngine, q),
			engine,
			statistics.GetEngineTimeQuantile(engine, q))
		if err != nil {
			return err
		}
	}
	return nil
}

func init() {
	routeCmd.Flags().StringVarP(&stmtPath, "statement", "s", "", "path to statement description")
	_ = routeCmd.MarkFlagRequired("statement")
}
