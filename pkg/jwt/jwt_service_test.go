package jwt_test

import (
	"bookflower-loyalty/domain"
	"bookflower-loyalty/pkg/jwt"
	"testing"
	"time"

	gojwt "github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	svc := jwt.NewJWTService("secret")

	token := svc.GenerateTokenUser("reader-1", domain.RoleUser)
	userID, role, err := svc.GetUserIDByToken(token)
	require.NoError(t, err)
	assert.Equal(t, "reader-1", userID)
	assert.Equal(t, domain.RoleUser, role)
}

func TestTokenSignedWithOtherSecretIsInvalid(t *testing.T) {
	token := jwt.NewJWTService("other").GenerateTokenUser("reader-1", domain.RoleUser)

	_, _, err := jwt.NewJWTService("secret").GetUserIDByToken(token)
	assert.ErrorIs(t, err, domain.ErrTokenInvalid)
}

func TestExpiredToken(t *testing.T) {
	claims := gojwt.MapClaims{
		"user_id": "reader-1",
		"role":    domain.RoleUser,
		"exp":     time.Now().Add(-time.Minute).Unix(),
	}
	token, err := gojwt.NewWithClaims(gojwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	require.NoError(t, err)

	_, _, err = jwt.NewJWTService("secret").GetUserIDByToken(token)
	assert.ErrorIs(t, err, domain.ErrTokenExpired)
}
