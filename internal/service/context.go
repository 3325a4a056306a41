package service

import "context"

type ctxKey int

const ctxKeyRequestID ctxKey = iota

// ContextWithRequestID attaches the request ID that journal entries carry.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKeyRequestID, id)
}

func RequestIDFromContext(ctx context.Context) string {
	v, _ := ctx.Value(ctxKeyRequestID).(string)
	return v
}
