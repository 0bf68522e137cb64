// Package session carries the authenticated caller through request contexts.
package session

import "context"

type ctxKey string

const userKey ctxKey = "tnvr.user"

// User identifies the authenticated caller. Role is the role claim from the
// token; privileged paths re-verify it against the stored profile.
type User struct {
	ID   string
	Role string
}

// WithUser stores the caller in context.
func WithUser(ctx context.Context, u User) context.Context {
	return context.WithValue(ctx, userKey, u)
}

// FromContext extracts the caller if present.
func FromContext(ctx context.Context) (User, bool) {
	val := ctx.Value(userKey)
	if val == nil {
		return User{}, false
	}
	u, ok := val.(User)
	return u, ok && u.ID != ""
}
