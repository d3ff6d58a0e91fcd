package session

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prompt-studio/shared/models"
)

func TestCookieCodec_RoundTrip(t *testing.T) {
	codec, err := NewCookieCodec("secret", time.Hour)
	require.NoError(t, err)

	sid := NewSessionID()
	token, err := codec.Issue(sid)
	require.NoError(t, err)

	got, err := codec.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, sid, got)
	assert.Equal(t, 3600, codec.MaxAge())
}

func TestCookieCodec_RejectsForeignAndExpiredTokens(t *testing.T) {
	codec, _ := NewCookieCodec("secret", time.Hour)
	other, _ := NewCookieCodec("other-secret", time.Hour)

	token, err := other.Issue("sid")
	require.NoError(t, err)
	_, err = codec.Parse(token)
	assert.ErrorIs(t, err, models.ErrSessionInvalid)

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, sessionClaims{
		SessionID: "sid",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	})
	signed, err := expired.SignedString([]byte("secret"))
	require.NoError(t, err)
	_, err = codec.Parse(signed)
	assert.ErrorIs(t, err, models.ErrSessionInvalid)

	_, err = codec.Parse("garbage")
	assert.ErrorIs(t, err, models.ErrSessionInvalid)
}

func TestNewCookieCodec_EmptySecret(t *testing.T) {
	_, err := NewCookieCodec("", time.Hour)
	assert.Error(t, err)
}
