package utils

type contextKey string

// Keys under which the auth middleware stores verified token claims.
const (
	ContextKeyUserID    contextKey = "user_id"
	ContextKeyTokenID   contextKey = "token_id"
	ContextKeyScope     contextKey = "scope"
	ContextKeyExpiresAt contextKey = "expires_at"
)
