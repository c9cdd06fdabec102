package auth

import "context"

type contextKey string

const (
	contextKeyUserID contextKey = "auth.user_id"
	contextKeyToken  contextKey = "auth.token"
)

// WithIdentity stores the platform user id and token in context.
func WithIdentity(ctx context.Context, userID, token string) context.Context {
	ctx = context.WithValue(ctx, contextKeyUserID, userID)
	ctx = context.WithValue(ctx, contextKeyToken, token)
	return ctx
}

// UserIDFromContext extracts the user id from context.
func UserIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if userID, ok := ctx.Value(contextKeyUserID).(string); ok {
		return userID
	}
	return ""
}

// TokenFromContext extracts the platform token from context.
func TokenFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if token, ok := ctx.Value(contextKeyToken).(string); ok {
		return token
	}
	return ""
}
