package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/vietlong-68/auth-service/internal/models"
	"github.com/vietlong-68/auth-service/internal/utils"
)

var testSignerKey = []byte(strings.Repeat("0123456789abcdef", 4))

func newJWTForTest(ttl time.Duration) (JWTService, TokenLedgerService, *memoryStore) {
	ledger, store := newLedgerForTest()
	return NewJWTService(testSignerKey, ttl, ledger), ledger, store
}

func testUser() *models.User {
	return &models.User{
		ID:          uuid.New(),
		Email:       "user@example.com",
		DisplayName: "Test User",
		Role:        models.RoleUser,
	}
}

func TestGenerateAndIntrospect(t *testing.T) {
	jwtSvc, _, _ := newJWTForTest(time.Hour)
	user := testUser()

	token, tokenID, expiresAt, err := jwtSvc.GenerateToken(user)
	require.NoError(t, err)
	require.NotEmpty(t, token)
	require.NotEmpty(t, tokenID)
	require.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	result := jwtSvc.Introspect(token)
	require.True(t, result.Valid)
	require.Equal(t, models.RoleUser, result.Scope)
	require.Equal(t, user.Email, result.Username)
	require.Equal(t, tokenID, result.TokenID)
	require.NotNil(t, result.IssuedAt)
	require.NotNil(t, result.ExpiresAt)
	require.Equal(t, expiresAt.Unix(), result.ExpiresAt.Unix())
}

func TestIntrospectFailsClosed(t *testing.T) {
	jwtSvc, _, _ := newJWTForTest(time.Hour)
	user := testUser()

	t.Run("malformed token", func(t *testing.T) {
		require.False(t, jwtSvc.Introspect("not-a-token").Valid)
		require.False(t, jwtSvc.Introspect("").Valid)
	})

	t.Run("tampered payload", func(t *testing.T) {
		token, _, _, err := jwtSvc.GenerateToken(user)
		require.NoError(t, err)

		parts := strings.Split(token, ".")
		require.Len(t, parts, 3)
		parts[1] += "xx"
		require.False(t, jwtSvc.Introspect(strings.Join(parts, ".")).Valid)
	})

	t.Run("wrong signing key", func(t *testing.T) {
		otherSvc := NewJWTService([]byte(strings.Repeat("k", 64)), time.Hour, nil)
		token, _, _, err := otherSvc.GenerateToken(user)
		require.NoError(t, err)

		require.False(t, jwtSvc.Introspect(token).Valid)
	})

	t.Run("expired token", func(t *testing.T) {
		expiredSvc, _, _ := newJWTForTest(-time.Minute)
		token, _, _, err := expiredSvc.GenerateToken(user)
		require.NoError(t, err)

		require.False(t, expiredSvc.Introspect(token).Valid)
	})
}

func TestDecodeAndCheckRevocation(t *testing.T) {
	ctx := context.Background()

	t.Run("accepts a live token", func(t *testing.T) {
		jwtSvc, _, _ := newJWTForTest(time.Hour)
		user := testUser()

		token, tokenID, _, err := jwtSvc.GenerateToken(user)
		require.NoError(t, err)

		claims, err := jwtSvc.DecodeAndCheckRevocation(ctx, token)
		require.NoError(t, err)
		require.Equal(t, tokenID, claims.ID)
		require.Equal(t, user.ID.String(), claims.UserID)
		require.Equal(t, models.RoleUser, claims.Scope)
	})

	t.Run("rejects a blacklisted token before signature verification", func(t *testing.T) {
		jwtSvc, ledger, _ := newJWTForTest(time.Hour)
		user := testUser()

		token, tokenID, expiresAt, err := jwtSvc.GenerateToken(user)
		require.NoError(t, err)
		require.NoError(t, ledger.BlacklistToken(ctx, tokenID, user.ID, expiresAt, models.ReasonLogout))

		_, err = jwtSvc.DecodeAndCheckRevocation(ctx, token)
		require.ErrorIs(t, err, utils.ErrInvalidToken)
	})

	t.Run("rejects malformed tokens", func(t *testing.T) {
		jwtSvc, _, _ := newJWTForTest(time.Hour)

		_, err := jwtSvc.DecodeAndCheckRevocation(ctx, "garbage")
		require.ErrorIs(t, err, utils.ErrInvalidToken)
	})

	t.Run("rejects a token signed with another key", func(t *testing.T) {
		jwtSvc, _, _ := newJWTForTest(time.Hour)
		otherSvc := NewJWTService([]byte(strings.Repeat("k", 64)), time.Hour, nil)

		token, _, _, err := otherSvc.GenerateToken(testUser())
		require.NoError(t, err)

		_, err = jwtSvc.DecodeAndCheckRevocation(ctx, token)
		require.ErrorIs(t, err, utils.ErrInvalidToken)
	})
}
