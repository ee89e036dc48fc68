// File: internal/auth/service.go
package auth

import (
	"errors"
	"fmt"
	"time"

	"ezm_trade_backend/internal/config"
	"ezm_trade_backend/internal/platform/crypto"
	"ezm_trade_backend/internal/shared"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

const issuer = "ezm_trade_backend"

type JWTService struct {
	secret []byte
	expiry time.Duration
	logger *zap.Logger
}

// NewJWTService creates a new JWT service. Without JWT_SECRET_KEY (only allowed outside
// release mode) a random per-process secret is used, so tokens do not survive a restart.
func NewJWTService(cfg *config.Config, logger *zap.Logger) (shared.TokenService, error) {
	secret := cfg.JWTSecretKey
	if secret == "" {
		generated, err := crypto.GenerateSecureRandomString(32)
		if err != nil {
			return nil, fmt.Errorf("could not generate ephemeral JWT secret: %w", err)
		}
		logger.Warn("JWT_SECRET_KEY is not set; using an ephemeral secret")
		secret = generated
	}
	expiry := cfg.JWTAccessTokenExpiryMinutes
	if expiry <= 0 {
		expiry = time.Hour
	}
	return &JWTService{secret: []byte(secret), expiry: expiry, logger: logger}, nil
}

func (s *JWTService) GenerateAccessToken(userData shared.UserDataForToken) (string, time.Time, error) {
	now := time.Now()
	expirationTime := now.Add(s.expiry)

	claims := &shared.Claims{
		UserID: userData.GetID(),
		Email:  userData.GetEmail(),
		Role:   userData.GetRole(),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expirationTime),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    issuer,
			Subject:   userData.GetID().String(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.secret)
	if err != nil {
		s.logger.Error("Failed to sign access token", zap.Error(err))
		return "", time.Time{}, fmt.Errorf("could not sign access token: %w", err)
	}
	return tokenString, expirationTime, nil
}

// ValidateToken validates a JWT token and returns its claims.
func (s *JWTService) ValidateToken(tokenString string) (*shared.Claims, error) {
	claims := &shared.Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
	)
	if err != nil {
		s.logger.Debug("Failed to validate token", zap.Error(err))
		return nil, fmt.Errorf("invalid token: %w", err)
	}
	if !token.Valid {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}
