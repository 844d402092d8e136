package controllers

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/vietlong-68/auth-service/internal/dtos"
	"github.com/vietlong-68/auth-service/internal/models"
	"github.com/vietlong-68/auth-service/internal/services"
	"github.com/vietlong-68/auth-service/internal/utils"
)

// AdminBlacklistController exposes the administrative surface of the token
// ledger: stats, manual sweeps, and per-user revocation operations.
type AdminBlacklistController struct {
	ledger services.TokenLedgerService
}

func NewAdminBlacklistController(ledger services.TokenLedgerService) *AdminBlacklistController {
	return &AdminBlacklistController{ledger: ledger}
}

func parseUserID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	userID, err := uuid.Parse(mux.Vars(r)["userId"])
	if err != nil {
		utils.RespondErrorWithCode(
			w, http.StatusBadRequest, utils.ErrCodeValidation, "Invalid user id", nil, err,
		)
		return uuid.Nil, false
	}
	return userID, true
}

func (c *AdminBlacklistController) GetBlacklistStats(w http.ResponseWriter, r *http.Request) {
	stats, err := c.ledger.GetBlacklistStats(r.Context())
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, stats)
}

func (c *AdminBlacklistController) ManualCleanup(w http.ResponseWriter, r *http.Request) {
	deleted, err := c.ledger.ManualCleanup(r.Context())
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}

	message := "No expired tokens to delete"
	if deleted > 0 {
		message = fmt.Sprintf("Deleted %d expired blacklisted tokens", deleted)
	}
	utils.RespondWithJSON(w, http.StatusOK, dtos.CleanupResponse{
		DeletedCount: deleted,
		Message:      message,
	})
}

func (c *AdminBlacklistController) CleanupOrphanedTokens(w http.ResponseWriter, r *http.Request) {
	deleted, err := c.ledger.ManualCleanupOrphaned(r.Context())
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}

	message := "No orphaned tokens to delete"
	if deleted > 0 {
		message = fmt.Sprintf("Deleted %d orphaned tokens", deleted)
	}
	utils.RespondWithJSON(w, http.StatusOK, dtos.CleanupResponse{
		DeletedCount: deleted,
		Message:      message,
	})
}

func (c *AdminBlacklistController) GetUserBlacklistCount(w http.ResponseWriter, r *http.Request) {
	userID, ok := parseUserID(w, r)
	if !ok {
		return
	}

	count, err := c.ledger.GetBlacklistedTokenCount(r.Context(), userID)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dtos.BlacklistCountResponse{
		UserID: userID.String(),
		Count:  count,
	})
}

func (c *AdminBlacklistController) ForceLogoutUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := parseUserID(w, r)
	if !ok {
		return
	}

	reason := r.URL.Query().Get("reason")
	if reason == "" {
		reason = models.ReasonAdminForceLogout
	}

	if err := c.ledger.BlacklistAllUserTokens(r.Context(), userID, reason); err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dtos.ForceLogoutResponse{Message: "User force logged out"})
}

func (c *AdminBlacklistController) GetUserActiveTokens(w http.ResponseWriter, r *http.Request) {
	userID, ok := parseUserID(w, r)
	if !ok {
		return
	}

	tokens, err := c.ledger.GetActiveTokensByUserID(r.Context(), userID)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	if tokens == nil {
		tokens = []*models.ActiveToken{}
	}
	utils.RespondWithJSON(w, http.StatusOK, tokens)
}
