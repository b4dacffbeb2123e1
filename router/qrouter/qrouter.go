package qrouter

import (
	"context"
	"errors"
	"time"

	"github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/ext"
	"github.com/pg-sharding/shardplan/pkg/config"
	"github.com/pg-sharding/shardplan/pkg/models/planerror"
	"github.com/pg-sharding/shardplan/pkg/models/statement"
	"github.com/pg-sharding/shardplan/pkg/shlog"
	"github.com/pg-sharding/shardplan/router/catalog"
	"github.com/pg-sharding/shardplan/router/condition"
	"github.com/pg-sharding/shardplan/router/engine"
	"github.com/pg-sharding/shardplan/router/merge"
	"github.com/pg-sharding/shardplan/router/route"
	"github.com/pg-sharding/shardplan/router/rule"
	"github.com/pg-sharding/shardplan/router/statistics"
)

type QueryRouter interface {
	Route(ctx context.Context, sess *Session, stmt *statement.Statement) (*route.RouteResult, error)
	Merge(stmt *statement.Statement, cursors []merge.ShardCursor) *merge.OrderByMerger
}

// ShardingQrouter turns statements into route units. It only reads the rule
// and the metadata, so one instance serves any number of sessions.
type ShardingQrouter struct {
	rule      *rule.ShardingRule
	md        catalog.TableMetadata
	extractor *condition.Extractor
	cfg       config.RouterCfg
}

var _ QueryRouter = &ShardingQrouter{}

func NewQrouter(r *rule.ShardingRule, md catalog.TableMetadata, cfg config.RouterCfg) *ShardingQrouter {
	return &ShardingQrouter{
		rule:      r,
		md:        md,
		extractor: condition.NewExtractor(r, md, cfg.CaseSensitiveIdentifiers),
		cfg:       cfg,
	}
}

func (qr *ShardingQrouter) Rule() *rule.ShardingRule {
	return qr.rule
}

// Route computes the route of stmt. Nothing is contacted, so errors come
// back before any shard sees the statement. sess may be nil.
func (qr *ShardingQrouter) Route(ctx context.Context, sess *Session, stmt *statement.Statement) (*route.RouteResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var holder statistics.StatHolder
	if sess != nil {
		holder = sess
		sess.statements.Inc()
	}
	statistics.RecordStartTime(statistics.StatisticsTypeTotal, time.Now(), holder)

	span, ctx := opentracing.StartSpanFromContext(ctx, "route")
	defer span.Finish()
	span.SetTag("statement.kind", string(stmt.Kind))
	if sess != nil {
		span.SetTag("session", sess.ID())
	}

	conditions, err := qr.extractor.Extract(stmt, nil)
	if err != nil {
		return nil, qr.fail(span, sess, stmt, err)
	}
	shlog.Zero.Debug().
		Str("kind", string(stmt.Kind)).
		Interface("conditions", conditions).
		Msg("extracted sharding conditions")

	if err := ctx.Err(); err != nil {
		return nil, qr.fail(span, sess, stmt, err)
	}

	cs := qr.cfg.CaseSensitiveIdentifiers
	in := engine.InputFor(stmt, cs)
	kind := engine.Decide(in, qr.rule)
	span.SetTag("engine", kind.String())
	shlog.Zero.Debug().
		Strs("tables", in.Tables).
		Str("engine", kind.String()).
		Msg("chose routing engine")

	e, err := engine.New(kind, engine.Params{
		Rule:              qr.rule,
		Statement:         stmt,
		Tables:            in.Tables,
		Conditions:        conditions,
		MaxCartesianUnits: qr.cfg.MaxCartesianUnits,
	})
	if err != nil {
		return nil, qr.fail(span, sess, stmt, err)
	}

	statistics.RecordStartTime(statistics.StatisticsTypeEngine, time.Now(), holder)
	res, err := e.Route(ctx)
	if err != nil {
		return nil, qr.fail(span, sess, stmt, err)
	}
	statistics.RecordFinishedRoute(kind.String(), time.Now(), holder)

	span.SetTag("units", len(res.Units))
	shlog.Zero.Debug().
		Str("engine", res.Engine).
		Strs("data sources", res.DataSourceNames()).
		Int("units", len(res.Units)).
		Msg("routed statement")
	return res, nil
}

func (qr *ShardingQrouter) fail(span opentracing.Span, sess *Session, stmt *statement.Statement, err error) error {
	ext.Error.Set(span, true)
	span.SetTag("error.message", err.Error())

	code := planerror.SHARDPLAN_UNEXPECTED
	var pe *planerror.PlanError
	switch {
	case errors.As(err, &pe):
		code = pe.ErrorCode
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		code = "canceled"
	}
	statistics.RecordRouteError(code)

	ev := shlog.Zero.Error().Err(err).Str("kind", string(stmt.Kind)).Str("code", code)
	if sess != nil {
		ev = ev.Str("session", sess.ID())
	}
	ev.Msg("failed to route statement")
	return err
}

// Merge builds the streaming merger for the shard cursors of a routed
// statement, ordered by its ORDER BY items.
func (qr *ShardingQrouter) Merge(stmt *statement.Statement, cursors []merge.ShardCursor) *merge.OrderByMerger {
	return merge.NewOrderByMerger(cursors, stmt.OrderBy, merge.Options{
		PrefetchConcurrently: qr.cfg.PrefetchConcurrently,
		AssertOrdering:       qr.cfg.AssertOrdering,
	})
}
