package auth

import (
	"testing"
	"time"

	"github.com/angelmondragon/streeteats-connect/pkg/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func testSessionConfig() config.SessionConfig {
	return config.SessionConfig{Secret: "secret", Issuer: "streeteats", TTL: time.Hour}
}

func TestMintAndParseSessionToken(t *testing.T) {
	cfg := testSessionConfig()
	key := NewSessionKey()

	token, err := MintSessionToken(cfg, time.Now().UTC(), key)
	require.NoError(t, err)

	claims, err := ParseSessionToken(cfg, token)
	require.NoError(t, err)
	require.Equal(t, key, claims.SessionKey)
	require.Equal(t, "streeteats", claims.Issuer)
	require.NotEmpty(t, claims.ID)
}

func TestParseSessionTokenRejectsExpired(t *testing.T) {
	cfg := testSessionConfig()
	token, err := MintSessionToken(cfg, time.Now().Add(-2*time.Hour), "sess")
	require.NoError(t, err)

	_, err = ParseSessionToken(cfg, token)
	require.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestParseSessionTokenRejectsWrongSecret(t *testing.T) {
	token, err := MintSessionToken(testSessionConfig(), time.Now(), "sess")
	require.NoError(t, err)

	other := testSessionConfig()
	other.Secret = "other"
	_, err = ParseSessionToken(other, token)
	require.Error(t, err)
}

func TestMintSessionTokenValidatesInput(t *testing.T) {
	_, err := MintSessionToken(config.SessionConfig{TTL: time.Hour}, time.Now(), "sess")
	require.Error(t, err)

	_, err = MintSessionToken(testSessionConfig(), time.Now(), " ")
	require.Error(t, err)
}
