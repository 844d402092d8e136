package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/vietlong-68/auth-service/internal/models"
	"github.com/vietlong-68/auth-service/internal/services"
	"github.com/vietlong-68/auth-service/internal/utils"
)

// AuthMiddleware extracts the bearer token, rejects revoked tokens before
// full verification, and stores the verified claims on the request context.
func AuthMiddleware(jwtService services.JWTService) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				utils.RespondErrorWithCode(
					w, http.StatusUnauthorized, utils.ErrCodeUnauthorized,
					"Missing or malformed Authorization header", nil,
				)
				return
			}

			tokenString := strings.TrimPrefix(header, "Bearer ")
			claims, err := jwtService.DecodeAndCheckRevocation(r.Context(), tokenString)
			if err != nil {
				utils.RespondErrorWithCode(
					w, http.StatusUnauthorized, utils.ErrCodeInvalidToken,
					"Invalid token", nil, err,
				)
				return
			}

			ctx := context.WithValue(r.Context(), utils.ContextKeyUserID, claims.UserID)
			ctx = context.WithValue(ctx, utils.ContextKeyTokenID, claims.ID)
			ctx = context.WithValue(ctx, utils.ContextKeyScope, claims.Scope)
			var expiresAt time.Time
			if claims.ExpiresAt != nil {
				expiresAt = claims.ExpiresAt.Time
			}
			ctx = context.WithValue(ctx, utils.ContextKeyExpiresAt, expiresAt)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AdminMiddleware requires the ADMIN scope; runs after AuthMiddleware.
func AdminMiddleware() mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			scope, _ := r.Context().Value(utils.ContextKeyScope).(string)
			if scope != models.RoleAdmin {
				utils.RespondErrorWithCode(
					w, http.StatusForbidden, utils.ErrCodeForbidden,
					"Admin role required", nil,
				)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
