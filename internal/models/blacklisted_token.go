package models

import (
	"time"

	"github.com/google/uuid"
)

// Revocation reasons recorded on blacklisted tokens.
const (
	ReasonLogout           = "LOGOUT"
	ReasonAdminForceLogout = "ADMIN_FORCE_LOGOUT"
)

// BlacklistedToken represents a revoked or invalidated access token.
// Once a token is blacklisted it stays blacklisted until the row is pruned
// by a cleanup sweep; there is no un-revoke.
type BlacklistedToken struct {
	ID            uuid.UUID `json:"id"`
	TokenID       string    `json:"token_id"`   // JTI (JWT ID) claim from the token
	UserID        uuid.UUID `json:"user_id"`
	ExpiresAt     time.Time `json:"expires_at"` // copied from the active record, so the row can be pruned once the token would have expired anyway
	BlacklistedAt time.Time `json:"blacklisted_at"`
	Reason        string    `json:"reason,omitempty"`
}
