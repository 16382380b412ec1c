package otel

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
)

const defaultServiceName = "printdesk"

// Init installs the global tracer provider with an OTLP exporter chosen by
// OTEL_EXPORTER_OTLP_PROTOCOL. The returned function flushes and stops the provider.
// Exporter failures degrade to the no-op provider instead of failing startup.
func Init(ctx context.Context, log logrus.FieldLogger) (func(context.Context) error, error) {
	log = log.WithField("component", "tracing")
	noop := func(context.Context) error { return nil }

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))

	if os.Getenv("OTEL_SDK_DISABLED") == "true" {
		log.WithFields(logrus.Fields{"event": "tracing_configured", "tracing_enabled": false}).Info("tracing disabled")
		return noop, nil
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceNameKey.String(getEnv("OTEL_SERVICE_NAME", defaultServiceName)),
		),
		resource.WithFromEnv(),
		resource.WithProcess(),
		resource.WithTelemetrySDK(),
		resource.WithHost(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	protocol := getEnv("OTEL_EXPORTER_OTLP_PROTOCOL", "grpc")
	exporter, err := newExporter(ctx, protocol)
	if err != nil {
		log.WithField("event", "tracing_init_failed").WithError(err).Error("falling back to no-op tracer")
		return noop, nil
	}

	s := samplerFromEnv()
	tp := trace.NewTracerProvider(
		trace.WithBatcher(exporter),
		trace.WithResource(res),
		trace.WithSampler(s.sampler),
	)
	otel.SetTracerProvider(tp)

	endpoint := os.Getenv("OTEL_EXPORTER_OTLP_TRACES_ENDPOINT")
	if endpoint == "" {
		endpoint = os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	}
	log.WithFields(logrus.Fields{
		"event":           "tracing_configured",
		"tracing_enabled": true,
		"otlp_protocol":   protocol,
		"otlp_endpoint":   endpoint,
		"sampler":         s.name,
		"sampler_arg":     s.ratio,
	}).Info("tracing enabled")

	return tp.Shutdown, nil
}

func newExporter(ctx context.Context, protocol string) (*otlptrace.Exporter, error) {
	switch protocol {
	case "grpc":
		return otlptracegrpc.New(ctx)
	case "http/protobuf":
		return otlptracehttp.New(ctx)
	default:
		return nil, fmt.Errorf("unsupported OTLP protocol: %s", protocol)
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

type samplerChoice struct {
	name    string
	ratio   float64
	sampler trace.Sampler
}

// samplerFromEnv accepts the OTEL_TRACES_SAMPLER names understood by the OpenTelemetry SDKs.
// Unknown names fall back to parentbased_always_on.
func samplerFromEnv() samplerChoice {
	name := getEnv("OTEL_TRACES_SAMPLER", "parentbased_traceidratio")
	ratio, err := strconv.ParseFloat(os.Getenv("OTEL_TRACES_SAMPLER_ARG"), 64)
	if err != nil || ratio < 0 || ratio > 1 {
		ratio = 1.0
	}

	c := samplerChoice{name: name, ratio: ratio}
	switch name {
	case "always_on":
		c.sampler = trace.AlwaysSample()
	case "always_off":
		c.sampler = trace.NeverSample()
	case "traceidratio":
		c.sampler = trace.TraceIDRatioBased(ratio)
	case "parentbased_always_on":
		c.sampler = trace.ParentBased(trace.AlwaysSample())
	case "parentbased_always_off":
		c.sampler = trace.ParentBased(trace.NeverSample())
	case "parentbased_traceidratio":
		c.sampler = trace.ParentBased(trace.TraceIDRatioBased(ratio))
	default:
		c.name = "parentbased_always_on"
		c.sampler = trace.ParentBased(trace.AlwaysSample())
	}
	return c
}
