// Package observability wires OpenTelemetry tracing for the shop process.
package observability

import (
	"context"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"google.golang.org/grpc/credentials"

	"github.com/tbourn/go-rewards-shop/internal/config"
)

// Test seams.
var (
	newOTLPClient = otlptracegrpc.NewClient

	newOTLPExporterFn = func(ctx context.Context, client otlptrace.Client) (*otlptrace.Exporter, error) {
		return otlptrace.New(ctx, client)
	}

	newServiceResourceFn = func(ctx context.Context, serviceName, version, env string) (*resource.Resource, error) {
		return resource.New(
			ctx,
			resource.WithAttributes(
				semconv.ServiceName(serviceName),
				semconv.ServiceVersion(version),
				semconv.DeploymentEnvironment(env),
			),
			resource.WithProcessPID(),
			resource.WithHost(),
		)
	}
)

// Options configures SetupOTel.
type Options struct {
	Config      config.OTELConfig
	Version     string
	Environment string // e.g. the gin mode: debug, release, test
	Logger      *zerolog.Logger
}

// SetupOTel installs the global tracer provider and propagator and returns
// its shutdown function. With tracing disabled it returns a no-op shutdown
// and leaves the globals untouched.
func SetupOTel(ctx context.Context, opts Options) (func(context.Context) error, error) {
	cfg := opts.Config
	if !cfg.Enabled {
		return func(context.Context) error { return nil }, nil
	}

	grpcOpts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		grpcOpts = append(grpcOpts, otlptracegrpc.WithInsecure())
	} else {
		grpcOpts = append(grpcOpts, otlptracegrpc.WithTLSCredentials(credentials.NewClientTLSFromCert(nil, "")))
	}

	exp, err := newOTLPExporterFn(ctx, newOTLPClient(grpcOpts...))
	if err != nil {
		return nil, err
	}
	res, err := newServiceResourceFn(ctx, cfg.ServiceName, opts.Version, opts.Environment)
	if err != nil {
		_ = exp.Shutdown(ctx)
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRatio))),
		sdktrace.WithResource(res),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{}, propagation.Baggage{},
	))
	if opts.Logger != nil {
		otel.SetErrorHandler(errorHandler(*opts.Logger))
		opts.Logger.Info().
			Str("endpoint", cfg.Endpoint).
			Float64("sample_ratio", cfg.SampleRatio).
			Msg("tracing enabled")
	}
	return tp.Shutdown, nil
}

// errorHandler sends exporter and SDK errors to the process log instead of
// the standard library logger.
func errorHandler(l zerolog.Logger) otel.ErrorHandler {
	l = l.With().Str("component", "otel").Logger()
	return otel.ErrorHandlerFunc(func(err error) {
		l.Warn().Err(err).Msg("telemetry error")
	})
}
