package token

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
)

func TestGenerateAndParseJWT(t *testing.T) {
	tokenStr, err := GenerateJWT("u1", "alice", "chat_service")
	assert.NoError(t, err)
	assert.NotEmpty(t, tokenStr)

	claims, err := ParseJWT(tokenStr)
	assert.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, "chat_service", claims.Issuer)
}

func TestParseJWT_Garbage(t *testing.T) {
	_, err := ParseJWT("not.a.token")
	assert.Error(t, err)
}

func TestParseJWT_WrongSecret(t *testing.T) {
	claims := Claims{
		UserID:   "u1",
		Username: "alice",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString([]byte("some_other_key"))
	assert.NoError(t, err)

	_, err = ParseJWT(signed)
	assert.Error(t, err)
}

func TestClaims_ExpiresWithin(t *testing.T) {
	soon := &Claims{RegisteredClaims: jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(2 * time.Minute)),
	}}
	assert.True(t, soon.ExpiresWithin(5*time.Minute))
	assert.False(t, soon.ExpiresWithin(time.Minute))

	unbounded := &Claims{}
	assert.False(t, unbounded.ExpiresWithin(5*time.Minute))
}
