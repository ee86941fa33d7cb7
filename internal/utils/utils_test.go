package utils

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	tok, err := NewAccessToken("s3cret", Identity{UserID: 7, Role: "teacher", TeacherID: 3}, 10)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(10*time.Minute), tok.Exp, 5*time.Second)

	id, err := ParseAccessToken("s3cret", tok.Token)
	require.NoError(t, err)
	assert.Equal(t, Identity{UserID: 7, Role: "teacher", TeacherID: 3}, id)
}

func TestParseAccessTokenRejects(t *testing.T) {
	good, err := NewAccessToken("s3cret", Identity{UserID: 1, Role: "admin"}, 10)
	require.NoError(t, err)

	_, err = ParseAccessToken("other", good.Token)
	assert.Error(t, err, "wrong secret")

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "1", "role": "admin", "exp": time.Now().Add(-time.Minute).Unix(),
	})
	raw, err := expired.SignedString([]byte("s3cret"))
	require.NoError(t, err)
	_, err = ParseAccessToken("s3cret", raw)
	assert.Error(t, err, "expired")

	noRole := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "1", "exp": time.Now().Add(time.Minute).Unix(),
	})
	raw, err = noRole.SignedString([]byte("s3cret"))
	require.NoError(t, err)
	_, err = ParseAccessToken("s3cret", raw)
	assert.Error(t, err, "missing role")
}

func TestVerificationToken(t *testing.T) {
	a, err := NewVerificationToken()
	require.NoError(t, err)
	b, err := NewVerificationToken()
	require.NoError(t, err)

	assert.Len(t, a, 64)
	assert.NotEqual(t, a, b)
	assert.True(t, IsVerificationToken(a))
	assert.False(t, IsVerificationToken("deadbeef"))
	assert.False(t, IsVerificationToken(strings.Repeat("z", 64)))
}

func TestPasswordHelpers(t *testing.T) {
	hash, err := HashPassword("correct horse", bcrypt.MinCost)
	require.NoError(t, err)
	assert.True(t, VerifyPassword(hash, "correct horse"))
	assert.False(t, VerifyPassword(hash, "wrong"))

	assert.ErrorIs(t, CheckPassword("short"), ErrPasswordTooShort)
	assert.ErrorIs(t, CheckPassword(strings.Repeat("a", 80)), ErrPasswordTooLong)
	assert.NoError(t, CheckPassword("long enough"))
}
