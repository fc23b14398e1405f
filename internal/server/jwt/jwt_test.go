package jwt

import (
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidateToken(t *testing.T) {
	service := NewService("test-secret-key", 15*time.Minute)

	token, err := service.GenerateToken("user123", "clinician")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := service.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user123", claims.UserID)
	assert.Equal(t, "clinician", claims.Role)
	assert.NotNil(t, claims.ExpiresAt)
	assert.True(t, claims.ExpiresAt.After(time.Now()))
}

func TestValidateToken_Expired(t *testing.T) {
	service := NewService("test-secret-key", 1*time.Nanosecond)

	token, err := service.GenerateToken("user123", "caregiver")
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)

	_, err = service.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateToken_WrongSecret(t *testing.T) {
	token, err := NewService("secret-1", 15*time.Minute).GenerateToken("user123", "caregiver")
	require.NoError(t, err)

	_, err = NewService("secret-2", 15*time.Minute).ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateToken_Malformed(t *testing.T) {
	service := NewService("test-secret-key", 15*time.Minute)

	tests := []string{
		"",
		"not-a-token",
		"aaa.bbb.ccc",
	}
	for _, token := range tests {
		_, err := service.ValidateToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	}
}

func TestValidateToken_RejectsUnsignedToken(t *testing.T) {
	service := NewService("test-secret-key", 15*time.Minute)

	// Токен с alg=none не проходит проверку метода подписи
	unsigned := jwtlib.NewWithClaims(jwtlib.SigningMethodNone, Claims{
		UserID: "user123",
		Role:   "clinician",
		RegisteredClaims: jwtlib.RegisteredClaims{
			ExpiresAt: jwtlib.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	token, err := unsigned.SignedString(jwtlib.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = service.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
