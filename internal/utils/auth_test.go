package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xelth-com/eckposgo/internal/models"
)

func TestPasswordHashing(t *testing.T) {
	password := "secret123"

	hash, err := HashPassword(password)
	require.NoError(t, err)
	assert.NotEmpty(t, hash)
	assert.NotEqual(t, password, hash)

	assert.True(t, CheckPasswordHash(password, hash))
	assert.False(t, CheckPasswordHash("wrongpassword", hash))
}

func TestJWT(t *testing.T) {
	secret := "test-secret-key-12345"
	user := &models.StaffUser{ID: "uuid-1234", Username: "anna", Role: models.RoleManager}

	token, err := GenerateToken(user, secret, 0)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := ValidateToken(token, secret)
	require.NoError(t, err)
	who, err := IdentityFromClaims(claims)
	require.NoError(t, err)
	assert.Equal(t, Identity{ID: "uuid-1234", Username: "anna", Role: models.RoleManager}, who)

	_, err = ValidateToken(token, "wrong-key")
	assert.Error(t, err)
}

func TestExpiredToken(t *testing.T) {
	secret := "test-secret-key-12345"
	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":   "uuid-1234",
		"role": models.RoleCashier,
		"exp":  time.Now().Add(-time.Minute).Unix(),
	})
	token, err := expired.SignedString([]byte(secret))
	require.NoError(t, err)

	_, err = ValidateToken(token, secret)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestIdentityRequiresRole(t *testing.T) {
	_, err := IdentityFromClaims(jwt.MapClaims{"id": "x"})
	assert.Error(t, err)
}
