package tracing

import (
	"fmt"
	"io"

	"github.com/opentracing/opentracing-go"
	"github.com/pg-sharding/shardplan/pkg/config"
	"github.com/pg-sharding/shardplan/pkg/shlog"
	jaegercfg "github.com/uber/jaeger-client-go/config"
	"github.com/uber/jaeger-lib/metrics"
)

const defaultServiceName = "shardplan"

// zeroJaegerLogger routes jaeger client messages to the global zerolog logger.
type zeroJaegerLogger struct{}

func (zeroJaegerLogger) Error(msg string) {
	shlog.Zero.Error().Str("component", "jaeger").Msg(msg)
}

func (zeroJaegerLogger) Infof(msg string, args ...interface{}) {
	shlog.Zero.Debug().Str("component", "jaeger").Msg(fmt.Sprintf(msg, args...))
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// InitTracer installs the global opentracing tracer. With tracing disabled
// the global tracer stays a no-op one.
func InitTracer(cfg config.JaegerCfg) (io.Closer, error) {
	if !cfg.Enabled {
		opentracing.SetGlobalTracer(opentracing.NoopTracer{})
		return nopCloser{}, nil
	}

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = defaultServiceName
	}

	jcfg := jaegercfg.Configuration{
		ServiceName: serviceName,
		Sampler: &jaegercfg.SamplerConfig{
			Type:              "const",
			Param:             1,
			SamplingServerURL: cfg.SamplingServerURL,
		},
		Reporter: &jaegercfg.ReporterConfig{
			LogSpans:           false,
			LocalAgentHostPort: cfg.AgentAddress,
		},
		Gen128Bit: true,
		Tags: []opentracing.Tag{
			{Key: "span.kind", Value: "server"},
		},
	}

	closer, err := jcfg.InitGlobalTracer(
		serviceName,
		jaegercfg.Logger(zeroJaegerLogger{}),
		jaegercfg.Metrics(metrics.NullFactory),
	)
	if err != nil {
		return nil, err
	}
	shlog.Zero.Info().Str("service", serviceName).Str("agent", cfg.AgentAddress).Msg("jaeger tracer initialized")
	return closer, nil
}
