package util

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

type ContextKey string

const (
	CorrelationIdKey ContextKey = "CorrelationId"
)

func valueFromCtx[T any](ctx context.Context, key ContextKey) (T, error) {
	var zero T
	raw := ctx.Value(key)
	if raw == nil {
		return zero, NewUtilError(ErrCodeValueNotFoundInContext, fmt.Sprintf("%v not found in context", key), nil, nil)
	}
	value, ok := raw.(T)
	if !ok {
		return zero, NewUtilError(ErrCodeInvalidValueInContext, fmt.Sprintf("%v is not of type %T on context", key, zero), nil, nil)
	}
	return value, nil
}

// CorrelationIdToCtx tags ctx with the id of the HTTP request or broker
// message being served.
func CorrelationIdToCtx(ctx context.Context, correlationId string) context.Context {
	return context.WithValue(ctx, CorrelationIdKey, correlationId)
}

func CorrelationIdFromCtx(ctx context.Context) (string, error) {
	return valueFromCtx[string](ctx, CorrelationIdKey)
}

// LoggerWithCorrelationId adds a correlation_id field to lg when ctx carries one.
func LoggerWithCorrelationId(ctx context.Context, lg *zap.Logger) *zap.Logger {
	correlationId, err := CorrelationIdFromCtx(ctx)
	if err != nil {
		return lg
	}
	return lg.With(zap.String("correlation_id", correlationId))
}
