package instrument

import "context"

type correlationKey struct{}

// SetCorrelationID stores the correlation id carried through logs, spans and messages.
func SetCorrelationID(ctx context.Context, cID string) context.Context {
	return context.WithValue(ctx, correlationKey{}, cID)
}

// GetCorrelationID returns the correlation id stored in ctx, or an empty string.
func GetCorrelationID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	cID, _ := ctx.Value(correlationKey{}).(string)
	return cID
}
