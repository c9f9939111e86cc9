package models

import (
	"context"
)

type userContextKey struct{}

// SetUserContext returns a copy of ctx carrying the signed-in user.
// A nil user leaves ctx unchanged.
func SetUserContext(ctx context.Context, user *User) context.Context {
	if user == nil {
		return ctx
	}
	return context.WithValue(ctx, userContextKey{}, user)
}

// GetUserFromContext returns the user stored by SetUserContext, or nil.
func GetUserFromContext(ctx context.Context) *User {
	if ctx == nil {
		return nil
	}
	user, _ := ctx.Value(userContextKey{}).(*User)
	return user
}

func GetUserIDFromContext(ctx context.Context) string {
	if user := GetUserFromContext(ctx); user != nil {
		return user.ID
	}
	return ""
}

func GetEmailFromContext(ctx context.Context) string {
	if user := GetUserFromContext(ctx); user != nil {
		return user.Email
	}
	return ""
}
