package security

import (
	"context"
	"testing"
	"time"

	"skillbridge-backend/internal/domain"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestTokenRoundTrip(t *testing.T) {
	m := NewTokenManager(testSecret, time.Minute)

	token, err := m.GenerateAccessToken("ngo-1", domain.RoleNGO)
	require.NoError(t, err)

	claims, err := m.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "ngo-1", claims.ProfileID)

	actor, err := claims.Actor()
	require.NoError(t, err)
	assert.Equal(t, domain.NgoAdmin{ID: "ngo-1"}, actor)
}

func TestValidateToken_Rejects(t *testing.T) {
	m := NewTokenManager(testSecret, time.Minute)

	t.Run("Wrong secret", func(t *testing.T) {
		other := NewTokenManager("another-secret-another-secret-123", time.Minute)
		token, err := other.GenerateAccessToken("v1", domain.RoleVolunteer)
		require.NoError(t, err)
		_, err = m.ValidateToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("Expired", func(t *testing.T) {
		claims := ProfileClaims{
			ProfileID: "v1",
			Role:      domain.RoleVolunteer,
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
				Issuer:    issuer,
				Audience:  jwt.ClaimStrings{audience},
			},
		}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
		require.NoError(t, err)
		_, err = m.ValidateToken(token)
		assert.ErrorIs(t, err, ErrExpiredToken)
	})

	foreign := func(iss, aud string) string {
		claims := ProfileClaims{
			ProfileID: "v1",
			Role:      domain.RoleVolunteer,
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
				Issuer:    iss,
				Audience:  jwt.ClaimStrings{aud},
			},
		}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
		require.NoError(t, err)
		return token
	}

	t.Run("Wrong issuer", func(t *testing.T) {
		_, err := m.ValidateToken(foreign("someone-else", audience))
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("Wrong audience", func(t *testing.T) {
		_, err := m.ValidateToken(foreign(issuer, "another-api"))
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("Garbage", func(t *testing.T) {
		_, err := m.ValidateToken("not.a.token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("Unknown role", func(t *testing.T) {
		token, err := m.GenerateAccessToken("x", domain.Role("admin"))
		require.NoError(t, err)
		claims, err := m.ValidateToken(token)
		require.NoError(t, err)
		_, err = claims.Actor()
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestActorContext(t *testing.T) {
	ctx := context.Background()
	assert.Nil(t, ActorFromContext(ctx))

	ctx = WithActor(ctx, domain.Volunteer{ID: "v1"})
	assert.Equal(t, domain.Volunteer{ID: "v1"}, ActorFromContext(ctx))
}

func TestBearerToken(t *testing.T) {
	assert.Equal(t, "abc", BearerToken("Bearer abc"))
	assert.Equal(t, "abc", BearerToken("bearer abc"))
	assert.Equal(t, "abc", BearerToken("abc"))
}
