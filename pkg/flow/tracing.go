package flow

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	traceScope = "bookclub.flow"

	traceSpanSubmit = "bookclub.flow.submit"

	traceAttrSessionID = "bookclub.session_id"
	traceAttrStep      = "bookclub.step"
	traceAttrStatus    = "bookclub.status"
)

func startSubmitSpan(ctx context.Context, sessionID string, step int) (context.Context, trace.Span) {
	return otel.Tracer(traceScope).Start(ctx, traceSpanSubmit, trace.WithAttributes(
		attribute.String(traceAttrSessionID, sessionID),
		attribute.Int(traceAttrStep, step),
	))
}

func markSpanResult(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.String(traceAttrStatus, "error"))
		return
	}
	span.SetStatus(codes.Ok, "")
	span.SetAttributes(attribute.String(traceAttrStatus, "success"))
}
