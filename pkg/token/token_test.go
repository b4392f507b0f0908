package token

import (
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndParseJWT(t *testing.T) {
	tok, err := GenerateJWT(Claims{MemberID: "studio-1", Role: string(RoleStudio), Name: "Sunrise Yoga"}, "chat_service")
	require.NoError(t, err)

	claims, err := ParseJWT(tok)
	require.NoError(t, err)
	assert.Equal(t, "studio-1", claims.MemberID)
	assert.Equal(t, "Sunrise Yoga", claims.Name)
	assert.Equal(t, "chat_service", claims.Issuer)

	claims, err = ParseJWT("Bearer " + tok)
	require.NoError(t, err)
	assert.Equal(t, "studio-1", claims.MemberID)
}

func TestParseJWT_Rejects(t *testing.T) {
	_, err := ParseJWT("not-a-token")
	assert.Error(t, err)

	noUser, err := GenerateJWT(Claims{Role: string(RoleInstructor)}, "chat_service")
	require.NoError(t, err)
	_, err = ParseJWT(noUser)
	assert.Error(t, err)

	other := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{MemberID: "x"})
	forged, err := other.SignedString([]byte("another-secret"))
	require.NoError(t, err)
	_, err = ParseJWT(forged)
	assert.Error(t, err)
}

func TestParseJWTWrapper_Overridable(t *testing.T) {
	orig := ParseJWTFunc
	defer func() { ParseJWTFunc = orig }()

	ParseJWTFunc = func(string) (*Claims, error) { return &Claims{MemberID: "mocked"}, nil }
	claims, err := ParseJWTWrapper("anything")
	require.NoError(t, err)
	assert.Equal(t, "mocked", claims.MemberID)
}

func TestSetSecret(t *testing.T) {
	orig := JWTSecret
	defer func() { JWTSecret = orig }()

	assert.ErrorIs(t, SetSecret(""), ErrEmptySecret)
	assert.Equal(t, orig, JWTSecret)

	require.NoError(t, SetSecret("prod-secret"))
	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{MemberID: "studio-1"}).SignedString(orig)
	require.NoError(t, err)
	_, err = ParseJWT(forged)
	assert.Error(t, err)

	tok, err := GenerateJWT(Claims{MemberID: "studio-1"}, "chat_service")
	require.NoError(t, err)
	claims, err := ParseJWT(tok)
	require.NoError(t, err)
	assert.Equal(t, "studio-1", claims.MemberID)
}
