package utils

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type contextKey string

const ContextUserIDKey contextKey = "userID"

func GetUserIDFromContext(ctx context.Context) (string, bool) {
	userID := ctx.Value(ContextUserIDKey)
	userIDStr, ok := userID.(string)
	return userIDStr, ok
}

// SessionData is the slice of a session the middleware needs; keeping it here
// avoids an import cycle between middleware and auth.
type SessionData struct {
	UserID    string
	ExpiresAt time.Time
}

func GenerateUUID() string {
	return uuid.NewString()
}
