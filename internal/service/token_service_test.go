package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/studyboost/tutor-market-api/internal/models"
	"github.com/studyboost/tutor-market-api/pkg/config"
	appErrors "github.com/studyboost/tutor-market-api/pkg/errors"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		AccessSecret:  "access-secret",
		RefreshSecret: "refresh-secret",
		AccessExpiry:  30 * time.Minute,
		RefreshExpiry: 7 * 24 * time.Hour,
		ResetExpiry:   time.Hour,
		Issuer:        "tutor-market-api",
	}
}

func testUser() *models.User {
	return &models.User{ID: "u1", Name: "Student One", Email: "student@example.com", Role: models.RoleStudent, Active: true}
}

func TestIssueLoginTokensRoundTrip(t *testing.T) {
	svc := NewTokenService(testJWTConfig(), zap.NewNop())

	pair, err := svc.IssueLoginTokens(testUser())
	require.NoError(t, err)
	assert.Equal(t, "bearer", pair.TokenType)
	assert.Equal(t, int64(1800), pair.ExpiresIn)

	claims, err := svc.VerifyAccessToken(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.Subject)
	assert.Equal(t, models.RoleStudent, claims.Role)
	assert.Equal(t, models.TokenTypeAccess, claims.TokenType)

	refreshClaims, err := svc.VerifyRefreshToken(pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, "u1", refreshClaims.Subject)
	assert.Equal(t, models.TokenTypeRefresh, refreshClaims.TokenType)
}

func TestVerifyRejectsWrongTokenKind(t *testing.T) {
	svc := NewTokenService(testJWTConfig(), zap.NewNop())

	pair, err := svc.IssueLoginTokens(testUser())
	require.NoError(t, err)

	_, err = svc.VerifyAccessToken(pair.RefreshToken)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidToken.Code, appErrors.FromError(err).Code)

	_, err = svc.VerifyRefreshToken(pair.AccessToken)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidToken.Code, appErrors.FromError(err).Code)

	_, err = svc.VerifyPasswordResetToken(pair.AccessToken)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidToken.Code, appErrors.FromError(err).Code)
}

func TestVerifyRejectsTamperedSecret(t *testing.T) {
	svc := NewTokenService(testJWTConfig(), zap.NewNop())
	pair, err := svc.IssueLoginTokens(testUser())
	require.NoError(t, err)

	other := testJWTConfig()
	other.AccessSecret = "different-secret"
	otherSvc := NewTokenService(other, zap.NewNop())

	_, err = otherSvc.VerifyAccessToken(pair.AccessToken)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidToken.Code, appErrors.FromError(err).Code)
}

func TestVerifyExpiryBoundary(t *testing.T) {
	svc := NewTokenService(testJWTConfig(), zap.NewNop())
	issuedAt := time.Now()
	svc.now = func() time.Time { return issuedAt }

	pair, err := svc.IssueLoginTokens(testUser())
	require.NoError(t, err)

	svc.now = func() time.Time { return issuedAt.Add(30*time.Minute - time.Second) }
	_, err = svc.VerifyAccessToken(pair.AccessToken)
	assert.NoError(t, err)

	svc.now = func() time.Time { return issuedAt.Add(30*time.Minute + time.Second) }
	_, err = svc.VerifyAccessToken(pair.AccessToken)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidToken.Code, appErrors.FromError(err).Code)
}

func TestPasswordResetTokenRoundTrip(t *testing.T) {
	svc := NewTokenService(testJWTConfig(), zap.NewNop())

	token, err := svc.CreatePasswordResetToken(testUser())
	require.NoError(t, err)

	claims, err := svc.VerifyPasswordResetToken(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.Subject)
	assert.Equal(t, models.TokenTypePasswordReset, claims.TokenType)

	// A reset token must never pass as an access token.
	_, err = svc.VerifyAccessToken(token)
	assert.Error(t, err)
}
