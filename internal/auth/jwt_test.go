package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTRoundTrip(t *testing.T) {
	a := NewJWTAuthenticator("s3cret", "prodexa", "prodexa", time.Hour)

	token, err := a.GenerateToken("user-1", "admin")
	require.NoError(t, err)

	claims, err := a.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, "admin", claims.Role)
}

func TestJWTRejects(t *testing.T) {
	a := NewJWTAuthenticator("s3cret", "prodexa", "prodexa", time.Hour)
	token, err := a.GenerateToken("user-1", "admin")
	require.NoError(t, err)

	expired, err := NewJWTAuthenticator("s3cret", "prodexa", "prodexa", -time.Minute).GenerateToken("user-1", "admin")
	require.NoError(t, err)

	otherAud, err := NewJWTAuthenticator("s3cret", "elsewhere", "prodexa", time.Hour).GenerateToken("user-1", "admin")
	require.NoError(t, err)

	noneAlg, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "user-1"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := map[string]struct {
		auth  *JWTAuthenticator
		token string
	}{
		"wrong secret":   {NewJWTAuthenticator("other", "prodexa", "prodexa", time.Hour), token},
		"expired":        {a, expired},
		"wrong audience": {a, otherAud},
		"none algorithm": {a, noneAlg},
		"garbage":        {a, "not.a.jwt"},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := tt.auth.ValidateToken(tt.token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}
