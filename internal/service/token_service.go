package service

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/studyboost/tutor-market-api/internal/models"
	"github.com/studyboost/tutor-market-api/pkg/config"
	appErrors "github.com/studyboost/tutor-market-api/pkg/errors"
)

// TokenService issues and verifies the three JWT kinds. Access and
// password-reset tokens share the access secret; refresh tokens are signed
// with their own secret so one kind can never verify as the other.
type TokenService struct {
	config config.JWTConfig
	logger *zap.Logger
	now    func() time.Time
}

// NewTokenService constructs a TokenService instance.
func NewTokenService(cfg config.JWTConfig, logger *zap.Logger) *TokenService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TokenService{config: cfg, logger: logger, now: time.Now}
}

// IssueLoginTokens returns a fresh access and refresh token pair for the
// user.
func (s *TokenService) IssueLoginTokens(user *models.User) (*models.TokenPair, error) {
	accessToken, err := s.sign(user, models.TokenTypeAccess, s.config.AccessExpiry, s.config.AccessSecret)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create access token")
	}
	refreshToken, err := s.sign(user, models.TokenTypeRefresh, s.config.RefreshExpiry, s.config.RefreshSecret)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create refresh token")
	}
	return &models.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "bearer",
		ExpiresIn:    int64(s.config.AccessExpiry.Seconds()),
	}, nil
}

// CreatePasswordResetToken issues a short-lived token that only the reset
// flow accepts.
func (s *TokenService) CreatePasswordResetToken(user *models.User) (string, error) {
	token, err := s.sign(user, models.TokenTypePasswordReset, s.config.ResetExpiry, s.config.AccessSecret)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create reset token")
	}
	return token, nil
}

// VerifyAccessToken validates an access token and returns its claims.
func (s *TokenService) VerifyAccessToken(tokenString string) (*models.TokenClaims, error) {
	return s.verify(tokenString, models.TokenTypeAccess, s.config.AccessSecret)
}

// VerifyRefreshToken validates a refresh token and returns its claims.
func (s *TokenService) VerifyRefreshToken(tokenString string) (*models.TokenClaims, error) {
	return s.verify(tokenString, models.TokenTypeRefresh, s.config.RefreshSecret)
}

// VerifyPasswordResetToken validates a reset token and returns its claims.
func (s *TokenService) VerifyPasswordResetToken(tokenString string) (*models.TokenClaims, error) {
	return s.verify(tokenString, models.TokenTypePasswordReset, s.config.AccessSecret)
}

func (s *TokenService) sign(user *models.User, kind models.TokenType, expiry time.Duration, secret string) (string, error) {
	issuedAt := s.now().UTC()
	claims := &models.TokenClaims{
		Email:     user.Email,
		Role:      user.Role,
		Name:      user.Name,
		TokenType: kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.config.Issuer,
			Subject:   user.ID,
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(expiry)),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// verify folds every failure mode, bad signature, expiry, wrong kind, into
// the one invalid-token error so callers cannot tell them apart.
func (s *TokenService) verify(tokenString string, kind models.TokenType, secret string) (*models.TokenClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.TokenClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	}, jwt.WithTimeFunc(func() time.Time { return s.now() }))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInvalidToken.Code, appErrors.ErrInvalidToken.Status, appErrors.ErrInvalidToken.Message)
	}

	claims, ok := token.Claims.(*models.TokenClaims)
	if !ok || !token.Valid {
		return nil, appErrors.Clone(appErrors.ErrInvalidToken, "")
	}
	if claims.TokenType != kind {
		return nil, appErrors.Clone(appErrors.ErrInvalidToken, "")
	}
	if claims.Subject == "" {
		return nil, appErrors.Clone(appErrors.ErrInvalidToken, "")
	}
	if _, err := models.ParseRole(string(claims.Role)); err != nil {
		return nil, appErrors.Clone(appErrors.ErrInvalidToken, "")
	}
	return claims, nil
}
