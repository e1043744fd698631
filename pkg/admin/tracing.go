package admin

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const traceScope = "bookclub.admin"

func startSpan(ctx context.Context, op string) (context.Context, trace.Span) {
	return otel.Tracer(traceScope).Start(ctx, "bookclub.admin."+op,
		trace.WithAttributes(attribute.String("bookclub.admin.op", op)))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
