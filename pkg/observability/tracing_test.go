package observability

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

func TestStartSpan_NoProvider(t *testing.T) {
	ctx, span := StartSpan(context.Background(), "catalog.create", attribute.String("name", "PROSPECT_READ"))
	if span == nil {
		t.Fatal("Expected a span")
	}
	if span.IsRecording() {
		t.Error("Expected a non-recording span without an installed provider")
	}
	if trace.SpanFromContext(ctx) == nil {
		t.Error("Expected span in context")
	}

	EndSpan(span, errors.New("boom"))
	EndSpan(span, nil)
}

func TestEndSpan_RecordsError(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	previous := otel.GetTracerProvider()
	otel.SetTracerProvider(provider)
	defer otel.SetTracerProvider(previous)

	_, span := StartSpan(context.Background(), "catalog.delete", attribute.String("id", "p-1"))
	EndSpan(span, errors.New("system permission"))

	_, plain := StartSpan(context.Background(), "catalog.get")
	EndSpan(plain, nil)

	spans := recorder.Ended()
	if len(spans) != 2 {
		t.Fatalf("Expected 2 ended spans, got %d", len(spans))
	}
	if spans[0].Name() != "catalog.delete" || spans[0].Status().Code != codes.Error {
		t.Errorf("Expected errored catalog.delete span, got %s %v", spans[0].Name(), spans[0].Status())
	}
	if len(spans[0].Events()) == 0 {
		t.Error("Expected the error to be recorded as an event")
	}
	if spans[1].Status().Code != codes.Unset {
		t.Errorf("Expected unset status, got %v", spans[1].Status())
	}
	if spans[0].InstrumentationScope().Name != TracerName {
		t.Errorf("Expected scope %s, got %s", TracerName, spans[0].InstrumentationScope().Name)
	}
}
