package token

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"krishi/entities"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func newService(c *clock) *Service {
	return New(Config{
		AccessSecret:  "access-secret",
		RefreshSecret: "refresh-secret",
		Issuer:        "krishi-ai",
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    24 * time.Hour,
		RememberTTL:   7 * 24 * time.Hour,
	}, WithClock(c.now))
}

var farmer = &entities.Farmer{ID: "f-1", Email: "raj@example.com", Name: "Raj Kumar"}

func TestAccessTokenRoundTrip(t *testing.T) {
	c := &clock{t: time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC)}
	s := newService(c)

	raw, err := s.IssueAccessToken(farmer)
	require.NoError(t, err)

	claims, err := s.VerifyAccessToken(raw)
	require.NoError(t, err)
	assert.Equal(t, "f-1", claims.UserID)
	assert.Equal(t, "raj@example.com", claims.Email)
	assert.Equal(t, "Raj Kumar", claims.Name)
	assert.True(t, c.t.Add(15*time.Minute).Equal(claims.ExpiresAt.Time))
}

func TestAccessTokenExpiresExactlyAtTTL(t *testing.T) {
	start := time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC)
	c := &clock{t: start}
	s := newService(c)
	raw, err := s.IssueAccessToken(farmer)
	require.NoError(t, err)

	c.t = start.Add(15*time.Minute - time.Second)
	_, err = s.VerifyAccessToken(raw)
	assert.NoError(t, err)

	c.t = start.Add(15 * time.Minute)
	_, err = s.VerifyAccessToken(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRefreshTTLDependsOnRemember(t *testing.T) {
	start := time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC)
	c := &clock{t: start}
	s := newService(c)

	short, err := s.IssueRefreshToken("f-1", false)
	require.NoError(t, err)
	long, err := s.IssueRefreshToken("f-1", true)
	require.NoError(t, err)

	c.t = start.Add(25 * time.Hour)
	_, err = s.VerifyRefreshToken(short)
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)

	claims, err := s.VerifyRefreshToken(long)
	require.NoError(t, err)
	assert.Equal(t, "f-1", claims.UserID)

	c.t = start.Add(7 * 24 * time.Hour)
	_, err = s.VerifyRefreshToken(long)
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)
}

func TestTokensAreNotInterchangeable(t *testing.T) {
	s := newService(&clock{t: time.Now()})

	access, err := s.IssueAccessToken(farmer)
	require.NoError(t, err)
	refresh, err := s.IssueRefreshToken("f-1", false)
	require.NoError(t, err)

	_, err = s.VerifyRefreshToken(access)
	assert.Error(t, err)
	_, err = s.VerifyAccessToken(refresh)
	assert.Error(t, err)
}

func TestRejectsForeignAlgorithmAndGarbage(t *testing.T) {
	s := newService(&clock{t: time.Now()})

	none := jwt.NewWithClaims(jwt.SigningMethodNone, AccessClaims{UserID: "f-1"})
	raw, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = s.VerifyAccessToken(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
	_, err = s.VerifyAccessToken("not-a-jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)
	_, err = s.VerifyAccessToken("")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRejectsWrongIssuer(t *testing.T) {
	c := &clock{t: time.Now()}
	other := New(Config{AccessSecret: "access-secret", Issuer: "someone-else", AccessTTL: time.Minute}, WithClock(c.now))
	raw, err := other.IssueAccessToken(farmer)
	require.NoError(t, err)

	_, err = newService(c).VerifyAccessToken(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
