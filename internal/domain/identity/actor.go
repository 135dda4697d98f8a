package identity

import (
	"context"
	"errors"
)

type Role string

const (
	RoleEmployee Role = "employee"
	RoleManager  Role = "manager"
)

func (r Role) Valid() bool { return r == RoleEmployee || r == RoleManager }

var ErrNoActor = errors.New("no actor in context")

// Actor is the resolved user an operation runs on behalf of. IP and UserAgent
// are carried for the operation log only.
type Actor struct {
	ID        string `json:"id"`
	Role      Role   `json:"role"`
	IP        string `json:"-"`
	UserAgent string `json:"-"`
}

func (a Actor) IsManager() bool { return a.Role == RoleManager }

type ctxKey struct{}

func WithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, ctxKey{}, a)
}

func FromContext(ctx context.Context) (Actor, error) {
	a, ok := ctx.Value(ctxKey{}).(Actor)
	if !ok || a.ID == "" {
		return Actor{}, ErrNoActor
	}
	return a, nil
}
