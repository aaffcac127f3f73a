package utils

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/projectflow/backend/internal/config"
)

var ErrInvalidToken = errors.New("could not validate credentials")

// Claims carries the user's email as the token subject.
type Claims struct {
	Email string `json:"-"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies bearer tokens with the configured secret.
type TokenIssuer struct {
	secret []byte
	method jwt.SigningMethod
	ttl    time.Duration
}

func NewTokenIssuer(cfg *config.JWTConfig) (*TokenIssuer, error) {
	if cfg.Secret == "" {
		return nil, errors.New("jwt secret is empty")
	}

	method := jwt.GetSigningMethod(cfg.Algorithm)
	if method == nil {
		method = jwt.SigningMethodHS256
	}
	if _, ok := method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unsupported jwt algorithm: %s", cfg.Algorithm)
	}

	minutes := cfg.ExpireMinutes
	if minutes <= 0 {
		minutes = 30
	}

	return &TokenIssuer{
		secret: []byte(cfg.Secret),
		method: method,
		ttl:    time.Duration(minutes) * time.Minute,
	}, nil
}

// TTL is the lifetime of newly issued tokens.
func (i *TokenIssuer) TTL() time.Duration {
	return i.ttl
}

// GenerateToken issues a token for email that expires after the configured TTL.
func (i *TokenIssuer) GenerateToken(email string) (string, time.Time, error) {
	return i.GenerateTokenWithTTL(email, i.ttl)
}

func (i *TokenIssuer) GenerateTokenWithTTL(email string, ttl time.Duration) (string, time.Time, error) {
	now := time.Now()
	expireAt := now.Add(ttl)
	claims := jwt.RegisteredClaims{
		Subject:   email,
		ExpiresAt: jwt.NewNumericDate(expireAt),
		IssuedAt:  jwt.NewNumericDate(now),
	}

	token := jwt.NewWithClaims(i.method, claims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expireAt, nil
}

// ParseToken verifies the signature and expiry and returns the claims.
// Any failure is reported as ErrInvalidToken.
func (i *TokenIssuer) ParseToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, &claims.RegisteredClaims, func(token *jwt.Token) (interface{}, error) {
		if token.Method.Alg() != i.method.Alg() {
			return nil, ErrInvalidToken
		}
		return i.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	if claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	claims.Email = claims.Subject
	return claims, nil
}
