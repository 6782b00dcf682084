package otelcol

import (
	"testing"

	"github.com/stretchr/testify/require"

	"license-sync/pkg/config"
	"license-sync/pkg/otelcol/exporters"
)

func TestNoExporterWithoutCollectorAddr(t *testing.T) {
	cfg := &config.Config{}

	exporter, err := exporters.ProvideGrpc(cfg)
	require.NoError(t, err)
	require.Nil(t, exporter)

	// The tracer provider still exists so instrumented code keeps working,
	// it just has nowhere to batch spans to.
	tp := ProvideTrace(cfg, exporter)
	require.NotNil(t, tp)
}
