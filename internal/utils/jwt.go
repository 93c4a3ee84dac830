package utils

import (
	"errors"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"
)

const tokenIssuer = "homeserver"

var (
	jwtSecret []byte
	jwtExpiry time.Duration
)

// JWTClaims carries the authenticated admin username.
type JWTClaims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// InitJWT sets the token signing secret and lifetime. An empty secret falls
// back to JWT_SECRET, then to an insecure development default.
func InitJWT(secret string, expiry time.Duration) {
	if secret == "" {
		secret = os.Getenv("JWT_SECRET")
	}
	if secret == "" {
		secret = "homeserver-dev-secret-set-JWT_SECRET-in-production"
		log.Warn().Msg("No JWT secret configured, using the development default")
	}
	jwtSecret = []byte(secret)

	jwtExpiry = expiry
	if jwtExpiry == 0 {
		jwtExpiry = 24 * time.Hour
	}
}

// GenerateToken signs a token for the admin session.
func GenerateToken(username string) (string, error) {
	now := time.Now()
	claims := JWTClaims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			ExpiresAt: jwt.NewNumericDate(now.Add(jwtExpiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(jwtSecret)
}

// ValidateToken parses and verifies a token issued by GenerateToken.
func ValidateToken(tokenString string) (*JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return jwtSecret, nil
	}, jwt.WithIssuer(tokenIssuer))

	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*JWTClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}

	return claims, nil
}
