// Package cmd provides common initialization functions for command-line applications.
package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dukex/clawtomations/pkg/browser"
	"github.com/dukex/clawtomations/pkg/eventbus"
	"github.com/dukex/clawtomations/pkg/otelhelper"
	"github.com/dukex/clawtomations/pkg/workflow"
	"go.opentelemetry.io/otel/trace"
)

const ServiceName = "clawtomations"

// NewTracer returns an OTLP tracer when enabled, or a no-op tracer otherwise.
func NewTracer(ctx context.Context, enabled bool) (trace.Tracer, otelhelper.ShutdownFunc, error) {
	if !enabled {
		return otelhelper.NewNoopTracer(), func(context.Context) error { return nil }, nil
	}

	tracer, shutdown, err := otelhelper.NewTracer(ctx, ServiceName)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to set up tracing: %w", err)
	}

	return tracer, shutdown, nil
}

// NewEngine wires the Playwright driver. The tracer and publisher are optional.
func NewEngine(logger *slog.Logger, tracer trace.Tracer, publisher eventbus.EventPublisher) *workflow.Engine {
	driver := browser.NewPlaywrightDriver(logger, browser.WithInstall(true))

	opts := []workflow.Option{workflow.WithLogger(logger)}

	if tracer != nil {
		opts = append(opts, workflow.WithTracer(tracer))
	}

	if publisher != nil {
		opts = append(opts, workflow.WithPublisher(publisher))
	}

	return workflow.NewEngine(driver, opts...)
}
