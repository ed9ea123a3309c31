package ctxutil

import (
	"context"

	"github.com/google/uuid"
)

type requestDataKey struct{}

// RequestData carries per-request identifiers set by the HTTP middleware.
// ActorID is the operator the gateway authenticated; it is uuid.Nil when the
// request carries no usable X-User-Id.
type RequestData struct {
	TraceID   string
	RequestID string
	ActorID   uuid.UUID
}

func WithRequestData(ctx context.Context, rd *RequestData) context.Context {
	return context.WithValue(ctx, requestDataKey{}, rd)
}

func GetRequestData(ctx context.Context) *RequestData {
	if rd, ok := ctx.Value(requestDataKey{}).(*RequestData); ok {
		return rd
	}
	return nil
}

// WithActor returns ctx with id set as the request actor. The stored
// RequestData is copied, never mutated.
func WithActor(ctx context.Context, id uuid.UUID) context.Context {
	next := RequestData{}
	if rd := GetRequestData(ctx); rd != nil {
		next = *rd
	}
	next.ActorID = id
	return WithRequestData(ctx, &next)
}

// ActorID returns the request actor's id, or uuid.Nil.
func ActorID(ctx context.Context) uuid.UUID {
	if rd := GetRequestData(ctx); rd != nil {
		return rd.ActorID
	}
	return uuid.Nil
}
