package controllers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/vietlong-68/auth-service/internal/dtos"
	"github.com/vietlong-68/auth-service/internal/services"
	"github.com/vietlong-68/auth-service/internal/utils"
)

var validate = validator.New()

type AuthController struct {
	authService services.AuthService
	jwtService  services.JWTService
}

func NewAuthController(authService services.AuthService, jwtService services.JWTService) *AuthController {
	return &AuthController{
		authService: authService,
		jwtService:  jwtService,
	}
}

func (c *AuthController) Register(w http.ResponseWriter, r *http.Request) {
	var req dtos.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondErrorWithCode(
			w, http.StatusBadRequest, utils.ErrCodeInvalidPayload, "Invalid payload", nil, err,
		)
		return
	}
	if err := validate.Struct(req); err != nil {
		utils.RespondErrorWithCode(
			w, http.StatusBadRequest, utils.ErrCodeValidation, "Invalid registration data", nil, err,
		)
		return
	}

	user, err := c.authService.Register(r.Context(), req.Email, req.Password, req.DisplayName)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusCreated, dtos.RegisterResponse{
		ID:          user.ID.String(),
		Email:       user.Email,
		DisplayName: user.DisplayName,
		Role:        user.Role,
	})
}

func (c *AuthController) Login(w http.ResponseWriter, r *http.Request) {
	var req dtos.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondErrorWithCode(
			w, http.StatusBadRequest, utils.ErrCodeInvalidPayload, "Invalid payload", nil, err,
		)
		return
	}
	if err := validate.Struct(req); err != nil {
		utils.RespondErrorWithCode(
			w, http.StatusBadRequest, utils.ErrCodeValidation, "Invalid login data", nil, err,
		)
		return
	}

	token, err := c.authService.Login(r.Context(), req.Email, req.Password, r.UserAgent())
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, dtos.LoginResponse{
		Success: true,
		Token:   token,
	})
}

// Logout blacklists the token that authenticated this request. The claims
// were stored on the context by the auth middleware.
func (c *AuthController) Logout(w http.ResponseWriter, r *http.Request) {
	tokenID, _ := r.Context().Value(utils.ContextKeyTokenID).(string)
	userIDStr, _ := r.Context().Value(utils.ContextKeyUserID).(string)
	expiresAt, _ := r.Context().Value(utils.ContextKeyExpiresAt).(time.Time)

	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		utils.RespondErrorWithCode(
			w, http.StatusUnauthorized, utils.ErrCodeInvalidToken, "Invalid token", nil, err,
		)
		return
	}

	if err := c.authService.Logout(r.Context(), tokenID, userID, expiresAt); err != nil {
		utils.HandleAppError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, dtos.LogoutResponse{Message: "Logged out"})
}

// Introspect never fails for a malformed token; it reports Valid=false.
func (c *AuthController) Introspect(w http.ResponseWriter, r *http.Request) {
	var req dtos.IntrospectTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondErrorWithCode(
			w, http.StatusBadRequest, utils.ErrCodeInvalidPayload, "Invalid payload", nil, err,
		)
		return
	}
	if err := validate.Struct(req); err != nil {
		utils.RespondErrorWithCode(
			w, http.StatusBadRequest, utils.ErrCodeValidation, "Token is required", nil, err,
		)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, c.jwtService.Introspect(req.Token))
}
