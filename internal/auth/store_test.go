package auth_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/waabox/logicsh/internal/auth"
)

func TestFileStore_SaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logicsh", "token.json")
	store := auth.NewFileStore(path)
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		name string
		resp auth.TokenResponse
	}{
		{"with expiry", auth.TokenResponse{AccessToken: "at", RefreshToken: "rt", TokenType: "Bearer", Scope: "openid profile", ExpiresIn: 3600}},
		{"without expiry or type", auth.TokenResponse{AccessToken: "at2"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			written := auth.NewStoredToken(tc.resp, now)
			require.NoError(t, store.Save(written))

			read, err := store.Load()
			require.NoError(t, err)
			assert.Equal(t, *written, *read)
			assert.Equal(t, "Bearer", read.TokenType)
		})
	}
}

func TestFileStore_SaveSetsPermissionsAndLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "token.json")
	store := auth.NewFileStore(path)

	require.NoError(t, store.Save(&auth.StoredToken{AccessToken: "one"}))
	require.NoError(t, store.Save(&auth.StoredToken{AccessToken: "two"}))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "token.json", entries[0].Name())

	tok, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "two", tok.AccessToken)
}

func TestFileStore_LoadMissingFile(t *testing.T) {
	store := auth.NewFileStore(filepath.Join(t.TempDir(), "token.json"))
	_, err := store.Load()
	assert.ErrorIs(t, err, auth.ErrTokenNotFound)
}

func TestFileStore_LoadCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0600))

	_, err := auth.NewFileStore(path).Load()
	var storageErr *auth.StorageError
	require.ErrorAs(t, err, &storageErr)
	assert.Equal(t, "decode", storageErr.Op)
}

func TestFileStore_Delete(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.json")
	store := auth.NewFileStore(path)
	require.NoError(t, store.Save(&auth.StoredToken{AccessToken: "at"}))

	require.NoError(t, store.Delete())
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	assert.ErrorIs(t, store.Delete(), auth.ErrTokenNotFound)
}

func TestFileStore_ReadsTokenWrittenByNodeCLI(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.json")
	content := `{
  "access_token": "abc",
  "token_type": "Bearer",
  "scope": "openid profile email",
  "expires_at": null,
  "created_at": "2025-03-01T12:00:00.000Z"
}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	tok, err := auth.NewFileStore(path).Load()
	require.NoError(t, err)
	assert.Equal(t, "abc", tok.AccessToken)
	assert.Empty(t, tok.ExpiresAt)
	assert.True(t, auth.IsTokenExpired(tok, time.Now()))
}
