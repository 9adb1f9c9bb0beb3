package accounts_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	accounts "github.com/meridian-labs/go-accounts"
	"github.com/stretchr/testify/assert"
)

func TestJWTClaimsAccessors(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	claims := &accounts.JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "sub-id",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
		UID: "account-id",
	}

	assert.Equal(t, "sub-id", claims.Subject())
	assert.Equal(t, "account-id", claims.AccountID())
	assert.Equal(t, now, claims.IssuedAt())
	assert.Equal(t, now.Add(time.Hour), claims.Expires())
}

func TestJWTClaimsAccountIDFallsBackToSubject(t *testing.T) {
	claims := &accounts.JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "sub-id"},
	}

	assert.Equal(t, "sub-id", claims.AccountID())
}

func TestJWTClaimsZeroTimes(t *testing.T) {
	claims := &accounts.JWTClaims{}

	assert.True(t, claims.Expires().IsZero())
	assert.True(t, claims.IssuedAt().IsZero())
}
