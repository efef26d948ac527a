// Package auth carries the authenticated caller through a request context.
package auth

import "context"

type callerKey struct{}

// Caller is the identity resolved for the current request.
type Caller struct {
	UserID int64
}

// SetCaller stores c in ctx.
func SetCaller(ctx context.Context, c Caller) context.Context {
	return context.WithValue(ctx, callerKey{}, c)
}

// GetCaller returns the caller stored in ctx, or nil when the request is anonymous.
func GetCaller(ctx context.Context) *Caller {
	c, ok := ctx.Value(callerKey{}).(Caller)
	if !ok || c.UserID <= 0 {
		return nil
	}

	return &c
}
