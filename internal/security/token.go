package security

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"skillbridge-backend/internal/domain"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
)

const (
	issuer   = "skillbridge-auth"
	audience = "skillbridge-api"
)

// ProfileClaims are issued by the auth collaborator. ProfileID is the
// profile's id and Role one of "volunteer" or "ngo".
type ProfileClaims struct {
	ProfileID string      `json:"profile_id"`
	Role      domain.Role `json:"role"`
	jwt.RegisteredClaims
}

// Actor converts the claims into the authenticated caller.
func (c *ProfileClaims) Actor() (domain.Actor, error) {
	actor, err := domain.NewActor(c.ProfileID, c.Role)
	if err != nil {
		return nil, ErrInvalidToken
	}
	return actor, nil
}

type TokenManager interface {
	GenerateAccessToken(profileID string, role domain.Role) (string, error)
	ValidateToken(tokenString string) (*ProfileClaims, error)
}

type tokenManager struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenManager signs and verifies HS256 tokens. ttl applies to tokens it
// generates; zero means one hour.
func NewTokenManager(secret string, ttl time.Duration) TokenManager {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &tokenManager{
		secret: []byte(secret),
		ttl:    ttl,
	}
}

func (m *tokenManager) GenerateAccessToken(profileID string, role domain.Role) (string, error) {
	now := time.Now()
	claims := ProfileClaims{
		ProfileID: profileID,
		Role:      role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   profileID,
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    issuer,
			Audience:  jwt.ClaimStrings{audience},
			ID:        generateJTI(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

func (m *tokenManager) ValidateToken(tokenString string) (*ProfileClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &ProfileClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return m.secret, nil
	}, jwt.WithIssuer(issuer), jwt.WithAudience(audience))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	if claims, ok := token.Claims.(*ProfileClaims); ok && token.Valid {
		if claims.ProfileID == "" {
			claims.ProfileID = claims.Subject
		}
		if claims.ProfileID == "" {
			return nil, ErrInvalidToken
		}
		return claims, nil
	}

	return nil, ErrInvalidToken
}

// BearerToken strips an optional "Bearer " prefix from an Authorization
// header value.
func BearerToken(header string) string {
	if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
		return header[7:]
	}
	return header
}

func generateJTI() string {
	return strconv.FormatInt(time.Now().UnixNano(), 16)
}
