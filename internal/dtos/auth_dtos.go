package dtos

// ----------------------
// Register
// ----------------------

type RegisterRequest struct {
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=8"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=Password"`
	DisplayName     string `json:"display_name" validate:"required,max=100"`
}

type RegisterResponse struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role"`
}

// ----------------------
// Login
// ----------------------

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	Success bool   `json:"success"`
	Token   string `json:"token"`
}

// ----------------------
// Logout
// ----------------------

type LogoutResponse struct {
	Message string `json:"message"`
}

// ----------------------
// Introspect
// ----------------------

type IntrospectTokenRequest struct {
	Token string `json:"token" validate:"required"`
}
