// Package authz carries the caller's capability through a request context.
// The engine only asks whether the capability is present; how it was
// established is up to the transport layer.
package authz

import (
	"context"
	"errors"
)

var ErrForbidden = errors.New("forbidden")

type Capability struct {
	Subject string
	Admin   bool
}

type ctxKey struct{}

func WithCapability(ctx context.Context, c Capability) context.Context {
	return context.WithValue(ctx, ctxKey{}, c)
}

func FromContext(ctx context.Context) (Capability, bool) {
	c, ok := ctx.Value(ctxKey{}).(Capability)
	return c, ok
}

// AsAdmin is shorthand for jobs and tests that act with full rights.
func AsAdmin(ctx context.Context, subject string) context.Context {
	return WithCapability(ctx, Capability{Subject: subject, Admin: true})
}

func RequireAdmin(ctx context.Context) error {
	if c, ok := FromContext(ctx); ok && c.Admin {
		return nil
	}
	return ErrForbidden
}
