package models

import (
	"time"

	"github.com/google/uuid"
)

// ActiveToken is the bookkeeping row for a currently-valid, not-yet-revoked
// access token. At most one row exists per token ID (JTI).
type ActiveToken struct {
	ID         uuid.UUID `json:"id"`
	TokenID    string    `json:"token_id"` // JTI (JWT ID) claim from the token
	UserID     uuid.UUID `json:"user_id"`
	ExpiresAt  time.Time `json:"expires_at"`
	CreatedAt  time.Time `json:"created_at"`
	DeviceInfo string    `json:"device_info,omitempty"` // client descriptor captured at login
}

func (at *ActiveToken) IsExpired() bool {
	return time.Now().After(at.ExpiresAt)
}
