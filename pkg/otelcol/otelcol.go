package otelcol

import (
	"context"

	"license-sync/pkg/config"
	"license-sync/pkg/otelcol/exporters"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("otelcol",
	fx.Provide(
		exporters.ProvideGrpc,
		ProvideTrace,
	),
	fx.Invoke(Register),
)

func ProvideTrace(cfg *config.Config, exporter trace.SpanExporter) *trace.TracerProvider {
	res, err := resource.Merge(resource.Default(), resource.NewSchemaless(
		semconv.ServiceName(cfg.AppName),
		semconv.ServiceVersion(cfg.AppVersion),
		semconv.DeploymentEnvironment(cfg.AppEnv),
	))
	if err != nil {
		res = resource.Default()
	}

	opts := []trace.TracerProviderOption{trace.WithResource(res)}
	if exporter != nil {
		opts = append(opts, trace.WithBatcher(exporter))
	}

	return trace.NewTracerProvider(opts...)
}

// Register installs the tracer provider globally when an OTLP collector is
// configured; without one, spans stay no-op.
func Register(lc fx.Lifecycle, cfg *config.Config, tp *trace.TracerProvider) {
	if cfg.Otel.Addr == "" {
		return
	}

	otel.SetTracerProvider(tp)
	zap.L().Info("otel tracing enabled", zap.String("collector_addr", cfg.Otel.Addr))

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return tp.Shutdown(ctx)
		},
	})
}
