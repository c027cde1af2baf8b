// Package observability wires OpenTelemetry tracing into Genkit's
// tracer provider. Spans are exported over OTLP HTTP to a local
// collector agent, which handles buffering and forwarding.
package observability

import (
	"context"
	"os"

	"github.com/firebase/genkit/go/core/tracing"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/steelhand/steelhand/internal/log"
)

// DefaultAgentHost is the default OTLP HTTP collector endpoint.
const DefaultAgentHost = "localhost:4318"

// Config for trace export.
type Config struct {
	// AgentHost is the collector's OTLP HTTP endpoint.
	AgentHost string
	// Environment tags spans with the deployment environment.
	Environment string
	// ServiceName is the name shown in the APM backend.
	ServiceName string
}

// Setup registers an OTLP span exporter with Genkit's TracerProvider.
// Must run before genkit.Init so generation spans are captured. The
// returned shutdown flushes pending spans. Exporter construction
// failures disable tracing rather than failing startup.
func Setup(ctx context.Context, cfg Config, logger log.Logger) (shutdown func(context.Context) error, err error) {
	agentHost := cfg.AgentHost
	if agentHost == "" {
		agentHost = DefaultAgentHost
	}

	// Genkit's TracerProvider reads these at span creation.
	if cfg.ServiceName != "" {
		_ = os.Setenv("OTEL_SERVICE_NAME", cfg.ServiceName)
	}
	if cfg.Environment != "" {
		_ = os.Setenv("OTEL_RESOURCE_ATTRIBUTES", "deployment.environment="+cfg.Environment)
	}

	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpoint(agentHost),
		otlptracehttp.WithInsecure(),
	)
	if err != nil {
		logger.Warn("creating trace exporter, tracing disabled", "error", err)
		return func(context.Context) error { return nil }, nil
	}

	processor := sdktrace.NewBatchSpanProcessor(exporter)
	tracing.TracerProvider().RegisterSpanProcessor(processor)

	logger.Debug("tracing enabled",
		"agent", agentHost,
		"service", cfg.ServiceName,
		"environment", cfg.Environment)

	return tracing.TracerProvider().Shutdown, nil
}
