package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/peterldowns/testy/check"
)

const testSecret = "test-secret"

func TestTokenRoundTrip(t *testing.T) {
	userID := uuid.New()

	token, err := IssueToken(testSecret, userID, RoleAuctioneer, time.Hour)
	check.Nil(t, err)

	actor, err := ParseToken(testSecret, token)
	check.Nil(t, err)
	check.Equal(t, userID, actor.ID)
	check.Equal(t, RoleAuctioneer, actor.Role)
	check.True(t, !actor.IsAdmin())
}

func TestParseTokenWrongSecret(t *testing.T) {
	token, err := IssueToken(testSecret, uuid.New(), RoleBidder, time.Hour)
	check.Nil(t, err)

	_, err = ParseToken("some-other-secret", token)
	check.True(t, errors.Is(err, ErrInvalidToken))
}

func TestParseTokenExpired(t *testing.T) {
	token, err := IssueToken(testSecret, uuid.New(), RoleBidder, -time.Minute)
	check.Nil(t, err)

	_, err = ParseToken(testSecret, token)
	check.True(t, errors.Is(err, ErrInvalidToken))
}

func TestParseTokenGarbage(t *testing.T) {
	_, err := ParseToken(testSecret, "not-a-token")
	check.True(t, errors.Is(err, ErrInvalidToken))
}

func TestParseTokenMissingRole(t *testing.T) {
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   uuid.New().String(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	check.Nil(t, err)

	_, err = ParseToken(testSecret, token)
	check.True(t, errors.Is(err, ErrInvalidToken))
}

func TestParseTokenBadSubject(t *testing.T) {
	claims := Claims{
		Role: RoleBidder,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "not-a-uuid",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	check.Nil(t, err)

	_, err = ParseToken(testSecret, token)
	check.True(t, errors.Is(err, ErrInvalidToken))
}

func TestAdminActor(t *testing.T) {
	token, err := IssueToken(testSecret, uuid.New(), RoleAdmin, time.Hour)
	check.Nil(t, err)

	actor, err := ParseToken(testSecret, token)
	check.Nil(t, err)
	check.True(t, actor.IsAdmin())
}
