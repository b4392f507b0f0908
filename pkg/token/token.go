package token

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// RoleType set member role
type RoleType string

const (
	// RoleStudio studio account, posts jobs and gigs
	RoleStudio RoleType = "studio"
	// RoleInstructor instructor account, answers offers
	RoleInstructor RoleType = "instructor"
	// RoleAdmin is the admin role
	RoleAdmin RoleType = "admin"
)

// Claims structure for custom claims in JWT
type Claims struct {
	MemberID string `json:"user_id"`
	Role     string `json:"role"`
	Name     string `json:"name,omitempty"`
	Avatar   string `json:"avatar,omitempty"`
	jwt.RegisteredClaims
}

// Secret Key for JWT signing and validation, the default is only for local runs and tests
var (
	JWTSecret       = []byte("secure_secret_key")
	tokenExpiration = 60 * time.Minute
)

// ErrEmptySecret jwt_secret not configured
var ErrEmptySecret = errors.New("jwt secret is empty")

// SetSecret replace the signing secret
func SetSecret(secret string) error {
	if secret == "" {
		return ErrEmptySecret
	}
	JWTSecret = []byte(secret)
	return nil
}

// GenerateJWT generates a JWT token
func GenerateJWT(c Claims, issuer string) (string, error) {
	c.RegisteredClaims = jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(tokenExpiration)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		Issuer:    issuer,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	return token.SignedString(JWTSecret)
}

// ParseJWT parses a JWT and extracts the Claims
func ParseJWT(tokenStr string) (*Claims, error) {
	tokenStr = strings.TrimPrefix(tokenStr, "Bearer ")

	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		// Check if the signing method is HMAC
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return JWTSecret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.MemberID == "" {
		return nil, errors.New("token without user id")
	}

	return claims, nil
}
