package services

import "context"

type contextKey string

const (
	receiptIDKey contextKey = "receipt_id"
	stepKey      contextKey = "step"
	requestIDKey contextKey = "request_id"
)

// WithReceiptID annotates context with the receipt identifier.
func WithReceiptID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, receiptIDKey, id)
}

// ReceiptIDFromContext extracts the receipt identifier if present.
func ReceiptIDFromContext(ctx context.Context) (string, bool) {
	if str, ok := ctx.Value(receiptIDKey).(string); ok && str != "" {
		return str, true
	}
	return "", false
}

// WithStep annotates context with the pipeline step name.
func WithStep(ctx context.Context, step string) context.Context {
	if step == "" {
		return ctx
	}
	return context.WithValue(ctx, stepKey, step)
}

// StepFromContext returns the pipeline step name if present.
func StepFromContext(ctx context.Context) (string, bool) {
	if str, ok := ctx.Value(stepKey).(string); ok && str != "" {
		return str, true
	}
	return "", false
}

// WithRequestID annotates context with a correlation identifier.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext returns the correlation identifier if present.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	if str, ok := ctx.Value(requestIDKey).(string); ok && str != "" {
		return str, true
	}
	return "", false
}
