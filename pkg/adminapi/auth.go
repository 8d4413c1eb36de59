package adminapi

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Errors returned by JWTService.
var (
	ErrInvalidToken        = errors.New("adminapi: invalid token")
	ErrExpiredToken        = errors.New("adminapi: token has expired")
	ErrInvalidSecretLength = errors.New("adminapi: JWT secret must be at least 32 characters")
)

// Claims is the JWT payload issued to an admin API caller. There is
// one role, "admin" — this API has no per-user or per-group model,
// only an administrative bearer token for bucket lifecycle operations.
type Claims struct {
	jwt.RegisteredClaims
	Subject string `json:"sub"`
}

// JWTService issues and validates admin API bearer tokens.
type JWTService struct {
	secret   string
	issuer   string
	lifetime time.Duration
}

// NewJWTService constructs a JWTService. secret must be at least 32 bytes.
func NewJWTService(secret string, lifetime time.Duration) (*JWTService, error) {
	if len(secret) < 32 {
		return nil, ErrInvalidSecretLength
	}
	if lifetime == 0 {
		lifetime = time.Hour
	}
	return &JWTService{secret: secret, issuer: "bucketfs-admin", lifetime: lifetime}, nil
}

// IssueToken returns a signed token identifying subject (typically an
// operator name or service account).
func (s *JWTService) IssueToken(subject string) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(s.lifetime)
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Subject: subject,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.secret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("adminapi: sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// ValidateToken parses and verifies tokenString, returning its claims.
func (s *JWTService) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.secret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
