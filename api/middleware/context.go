package middleware

import "context"

type userIDKey struct{}

// UserIDFromContext is 0 on unauthenticated requests.
func UserIDFromContext(ctx context.Context) int64 {
	id, _ := AuthenticatedUser(ctx)
	return id
}

// AuthenticatedUser reports the user id Auth stored, if any.
func AuthenticatedUser(ctx context.Context) (int64, bool) {
	if ctx == nil {
		return 0, false
	}
	id, ok := ctx.Value(userIDKey{}).(int64)
	return id, ok && id > 0
}

func WithUserID(ctx context.Context, userID int64) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, userIDKey{}, userID)
}
