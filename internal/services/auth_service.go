package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/vietlong-68/auth-service/internal/models"
	"github.com/vietlong-68/auth-service/internal/repositories"
	"github.com/vietlong-68/auth-service/internal/utils"
)

// AuthService is the issuance-side collaborator: it authenticates users,
// hands out signed tokens, and records/revokes their ledger entries.
type AuthService interface {
	Register(ctx context.Context, email, password, displayName string) (*models.User, error)

	// Login verifies credentials and issues a token. Recording the active
	// token in the ledger is best-effort: a ledger write failure is logged
	// and the token is still returned (revocation correctness only needs
	// the blacklist side).
	Login(ctx context.Context, email, password, deviceInfo string) (string, error)

	// Logout blacklists the presented token.
	Logout(ctx context.Context, tokenID string, userID uuid.UUID, expiresAt time.Time) error
}

type authService struct {
	userRepo repositories.UserRepository
	ledger   TokenLedgerService
	jwt      JWTService
}

func NewAuthService(userRepo repositories.UserRepository, ledger TokenLedgerService, jwt JWTService) AuthService {
	return &authService{
		userRepo: userRepo,
		ledger:   ledger,
		jwt:      jwt,
	}
}

func (s *authService) Register(ctx context.Context, email, password, displayName string) (*models.User, error) {
	existing, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		utils.Logger.WithError(err).Error("Failed to look up user by email")
		return nil, utils.ErrInternal
	}
	if existing != nil {
		return nil, utils.ErrEmailExists
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		utils.Logger.WithError(err).Error("Failed to hash password")
		return nil, utils.ErrInternal
	}

	user := &models.User{
		ID:          uuid.New(),
		Email:       email,
		Password:    hash,
		DisplayName: displayName,
		Role:        models.RoleUser,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		utils.Logger.WithError(err).Error("Failed to create user")
		return nil, utils.ErrInternal
	}
	return user, nil
}

func (s *authService) Login(ctx context.Context, email, password, deviceInfo string) (string, error) {
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		utils.Logger.WithError(err).Error("Failed to look up user by email")
		return "", utils.ErrInternal
	}
	if user == nil {
		return "", utils.ErrUserNotFound
	}

	if !utils.CheckPasswordHash(password, user.Password) {
		return "", utils.ErrInvalidCredentials
	}

	token, tokenID, expiresAt, err := s.jwt.GenerateToken(user)
	if err != nil {
		utils.Logger.WithError(err).Error("Failed to generate token")
		return "", utils.ErrInternal
	}

	// Availability over ledger completeness: the login succeeds even if the
	// active record cannot be written.
	if err := s.ledger.SaveActiveToken(ctx, tokenID, user.ID, expiresAt, deviceInfo); err != nil {
		utils.Logger.WithError(err).Errorf("Failed to save active token for user %s", user.Email)
	}

	return token, nil
}

func (s *authService) Logout(ctx context.Context, tokenID string, userID uuid.UUID, expiresAt time.Time) error {
	return s.ledger.BlacklistToken(ctx, tokenID, userID, expiresAt, models.ReasonLogout)
}
