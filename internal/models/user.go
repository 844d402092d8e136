package models

import (
	"time"

	"github.com/google/uuid"
)

// Roles carried in the token scope claim.
const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

// User is the minimal account record the ledger and login path need.
type User struct {
	ID          uuid.UUID `json:"id"`
	Email       string    `json:"email"`
	Password    string    `json:"-"` // bcrypt hash
	DisplayName string    `json:"display_name"`
	Role        string    `json:"role"`
	CreatedAt   time.Time `json:"created_at"`
}
