package services

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/yungbote/esteira-backend/internal/platform/dbctx"
)

var tracer = otel.Tracer("github.com/yungbote/esteira-backend/internal/services")

// inTx runs fn inside dbc.Tx when the caller already holds a transaction,
// otherwise inside a new one. Every repo call in fn must use the dbctx it is
// given.
func inTx(db *gorm.DB, dbc dbctx.Context, fn func(txc dbctx.Context) error) error {
	if dbc.Tx != nil {
		return fn(dbctx.Context{Ctx: dbc.Context(), Tx: dbc.Tx})
	}
	return db.WithContext(dbc.Context()).Transaction(func(tx *gorm.DB) error {
		return fn(dbctx.Context{Ctx: dbc.Context(), Tx: tx})
	})
}

func startSpan(dbc dbctx.Context, name string, attrs ...attribute.KeyValue) (dbctx.Context, trace.Span) {
	ctx, span := tracer.Start(dbc.Context(), name, trace.WithAttributes(attrs...))
	return dbctx.Context{Ctx: ctx, Tx: dbc.Tx}, span
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
