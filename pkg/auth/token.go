package auth

import (
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/streeteats-connect/pkg/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var jwtSigningMethod = jwt.SigningMethodHS256

// NewSessionKey returns a fresh opaque session key.
func NewSessionKey() string {
	return uuid.NewString()
}

// MintSessionToken signs a session token carrying sessionKey.
func MintSessionToken(cfg config.SessionConfig, now time.Time, sessionKey string) (string, error) {
	if cfg.Secret == "" {
		return "", fmt.Errorf("session secret is required")
	}
	if cfg.TTL <= 0 {
		return "", fmt.Errorf("session ttl must be positive")
	}
	sessionKey = strings.TrimSpace(sessionKey)
	if sessionKey == "" {
		return "", fmt.Errorf("session key is required")
	}

	claims := SessionClaims{
		SessionKey: sessionKey,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cfg.Issuer,
			Subject:   sessionKey,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(cfg.TTL)),
			ID:        uuid.NewString(),
		},
	}

	signed, err := jwt.NewWithClaims(jwtSigningMethod, claims).SignedString([]byte(cfg.Secret))
	if err != nil {
		return "", fmt.Errorf("signing session token: %w", err)
	}
	return signed, nil
}

// ParseSessionToken validates the token and returns its claims.
func ParseSessionToken(cfg config.SessionConfig, tokenString string) (*SessionClaims, error) {
	if cfg.Secret == "" {
		return nil, fmt.Errorf("session secret is required")
	}

	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwtSigningMethod.Alg()})}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}

	claims := &SessionClaims{}
	_, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(token *jwt.Token) (interface{}, error) {
			if token.Method != jwtSigningMethod {
				return nil, fmt.Errorf("unexpected signing method %s", token.Header["alg"])
			}
			return []byte(cfg.Secret), nil
		},
		opts...,
	)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(claims.SessionKey) == "" {
		return nil, fmt.Errorf("session token missing session key")
	}
	return claims, nil
}
