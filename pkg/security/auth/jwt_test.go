package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifierValidateToken(t *testing.T) {
	userID := uuid.New()
	verifier := NewVerifier("secret", "habit-hero")

	t.Run("valid token", func(t *testing.T) {
		token, err := GenerateToken(userID, "a@b.c", "secret", "habit-hero", time.Hour)
		require.NoError(t, err)

		claims, err := verifier.ValidateToken(token)
		require.NoError(t, err)
		got, err := claims.UserID()
		require.NoError(t, err)
		assert.Equal(t, userID, got)
		assert.Equal(t, "a@b.c", claims.Email)
	})

	t.Run("wrong secret", func(t *testing.T) {
		token, err := GenerateToken(userID, "", "other", "habit-hero", time.Hour)
		require.NoError(t, err)

		_, err = verifier.ValidateToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		token, err := GenerateToken(userID, "", "secret", "someone-else", time.Hour)
		require.NoError(t, err)

		_, err = verifier.ValidateToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		token, err := GenerateToken(userID, "", "secret", "habit-hero", -time.Minute)
		require.NoError(t, err)

		_, err = verifier.ValidateToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("subject is not a uuid", func(t *testing.T) {
		claims := Claims{RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "service-role",
			Issuer:    "habit-hero",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		}}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
		require.NoError(t, err)

		_, err = verifier.ValidateToken(token)
		assert.ErrorIs(t, err, ErrInvalidSubject)
	})
}
