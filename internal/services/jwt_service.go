package services

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/vietlong-68/auth-service/internal/models"
	"github.com/vietlong-68/auth-service/internal/utils"
)

// Token issuer/audience constants embedded in every signed token.
const (
	TokenIssuer   = "https://vietlong.example.com"
	TokenAudience = "https://vietlong.example.com"
)

// AccessClaims combines standard claims with the service-specific ones.
type AccessClaims struct {
	jwt.RegisteredClaims
	UserID string `json:"userId"`
	Email  string `json:"email"`
	Scope  string `json:"scope"`
}

// IntrospectResult is the fail-closed introspection outcome. When Valid is
// false no other field is populated.
type IntrospectResult struct {
	Valid     bool       `json:"is_valid"`
	Scope     string     `json:"scope,omitempty"`
	ClientID  string     `json:"client_id,omitempty"`
	Username  string     `json:"username,omitempty"`
	TokenID   string     `json:"jti,omitempty"`
	IssuedAt  *time.Time `json:"issued_at,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// JWTService signs and verifies access tokens with a shared HS512 key and
// consults the token ledger before trusting any inbound token.
type JWTService interface {
	// GenerateToken signs a fresh token for the user and returns the token
	// string together with its ledger coordinates (token ID and expiry).
	GenerateToken(user *models.User) (tokenString string, tokenID string, expiresAt time.Time, err error)

	// Introspect verifies the token and reports its claims. It fails closed:
	// any parse, signature, expiry, or audience fault yields Valid=false and
	// a nil error.
	Introspect(token string) *IntrospectResult

	// DecodeAndCheckRevocation parses the token, checks the blacklist by
	// token ID before full verification, then verifies signature and claims.
	DecodeAndCheckRevocation(ctx context.Context, token string) (*AccessClaims, error)
}

type jwtService struct {
	signerKey []byte
	tokenTTL  time.Duration
	ledger    TokenLedgerService
}

func NewJWTService(signerKey []byte, tokenTTL time.Duration, ledger TokenLedgerService) JWTService {
	return &jwtService{
		signerKey: signerKey,
		tokenTTL:  tokenTTL,
		ledger:    ledger,
	}
}

func (j *jwtService) GenerateToken(user *models.User) (string, string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(j.tokenTTL)
	tokenID := uuid.NewString()

	claims := AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.Email,
			Issuer:    TokenIssuer,
			Audience:  jwt.ClaimStrings{TokenAudience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        tokenID,
		},
		UserID: user.ID.String(),
		Email:  user.Email,
		Scope:  user.Role,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS512, claims)
	signed, err := token.SignedString(j.signerKey)
	if err != nil {
		return "", "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, tokenID, expiresAt, nil
}

func (j *jwtService) verify(tokenString string) (*AccessClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &AccessClaims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return j.signerKey, nil
	}, jwt.WithAudience(TokenAudience), jwt.WithIssuer(TokenIssuer))
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, utils.ErrInvalidToken
	}

	claims, ok := token.Claims.(*AccessClaims)
	if !ok {
		return nil, utils.ErrInvalidToken
	}
	return claims, nil
}

func (j *jwtService) Introspect(tokenString string) *IntrospectResult {
	claims, err := j.verify(tokenString)
	if err != nil {
		utils.Logger.WithError(err).Warn("Token introspection failed")
		return &IntrospectResult{Valid: false}
	}

	result := &IntrospectResult{
		Valid:    true,
		Scope:    claims.Scope,
		ClientID: TokenAudience,
		Username: claims.Email,
		TokenID:  claims.ID,
	}
	if claims.IssuedAt != nil {
		issuedAt := claims.IssuedAt.Time
		result.IssuedAt = &issuedAt
	}
	if claims.ExpiresAt != nil {
		expiresAt := claims.ExpiresAt.Time
		result.ExpiresAt = &expiresAt
	}
	return result
}

func (j *jwtService) DecodeAndCheckRevocation(ctx context.Context, tokenString string) (*AccessClaims, error) {
	// The revocation check is cheap, so it runs on the unverified claims and
	// short-circuits before signature verification.
	var unverified AccessClaims
	if _, _, err := jwt.NewParser().ParseUnverified(tokenString, &unverified); err != nil {
		return nil, utils.ErrInvalidToken
	}

	if unverified.ID != "" {
		blacklisted, err := j.ledger.IsTokenBlacklisted(ctx, unverified.ID)
		if err != nil {
			return nil, utils.ErrInvalidToken
		}
		if blacklisted {
			return nil, utils.ErrInvalidToken
		}
	}

	claims, err := j.verify(tokenString)
	if err != nil {
		return nil, utils.ErrInvalidToken
	}
	return claims, nil
}
