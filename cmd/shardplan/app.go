package main

import (
	"io"

	"github.com/pg-sharding/shardplan/pkg/config"
	"github.com/pg-sharding/shardplan/pkg/shlog"
	"github.com/pg-sharding/shardplan/pkg/tracing"
	"github.com/pg-sharding/shardplan/router/catalog"
	"github.com/pg-sharding/shardplan/router/qrouter"
	"github.com/pg-sharding/shardplan/router/rule"
	"github.com/pg-sharding/shardplan/router/statistics"
	"github.com/pkg/errors"
)

// setup loads the config and builds the router it describes. The returned
// closer flushes the tracer.
func setup(path string) (*config.Config, *qrouter.ShardingQrouter, io.Closer, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, nil, err
	}
	shlog.ReloadLogger(cfg.LogFileName, cfg.LogLevel, cfg.PrettyLogging)

	if err := statistics.InitStatisticsStr(cfg.RouterConfig.TimeQuantiles); err != nil {
		return nil, nil, nil, errors.Wrap(err, "invalid time quantiles")
	}

	r, err := rule.NewShardingRule(&cfg.ShardingConfig, cfg.RouterConfig.CaseSensitiveIdentifiers)
	if err != nil {
		return nil, nil, nil, errors.Wrap(err, "failed to build sharding rule")
	}

	closer, err := tracing.InitTracer(cfg.JaegerConfig)
	if err != nil {
		return nil, nil, nil, errors.Wrap(err, "failed to init tracer")
	}

	qr := qrouter.NewQrouter(r, catalog.NewStaticMetadata(cfg.Metadata), cfg.RouterConfig)
	return cfg, qr, closer, nil
}
