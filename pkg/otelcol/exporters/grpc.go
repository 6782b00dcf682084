package exporters

import (
	"context"
	"time"

	"license-sync/pkg/config"

	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/trace"
)

// ProvideGrpc builds the OTLP gRPC exporter. Without a collector address
// there is nothing to export to, so no exporter (and no background dialing)
// is created at all.
func ProvideGrpc(cfg *config.Config) (trace.SpanExporter, error) {
	if cfg.Otel.Addr == "" {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return otlptrace.New(ctx, otlptracegrpc.NewClient(
		otlptracegrpc.WithCompressor("gzip"),
		otlptracegrpc.WithInsecure(),
		otlptracegrpc.WithEndpoint(cfg.Otel.Addr),
	))
}
