package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"spesecli/internal/config"
)

func TestClientCredentials(t *testing.T) {
	_, err := clientCredentials(&config.Config{})
	assert.Error(t, err)

	b, err := clientCredentials(&config.Config{GoogleOAuthClientJSON: `{"installed":{}}`})
	require.NoError(t, err)
	assert.JSONEq(t, `{"installed":{}}`, string(b))

	path := filepath.Join(t.TempDir(), "client.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"web":{}}`), 0o600))
	b, err = clientCredentials(&config.Config{GoogleOAuthClientFile: path})
	require.NoError(t, err)
	assert.JSONEq(t, `{"web":{}}`, string(b))

	_, err = clientCredentials(&config.Config{GoogleOAuthClientFile: filepath.Join(t.TempDir(), "missing.json")})
	assert.Error(t, err)
}

func TestWriteToken(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.json")
	require.NoError(t, writeToken(path, &oauth2.Token{AccessToken: "a", RefreshToken: "r", TokenType: "Bearer"}))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var tok oauth2.Token
	require.NoError(t, json.Unmarshal(raw, &tok))
	assert.Equal(t, "r", tok.RefreshToken)
}
