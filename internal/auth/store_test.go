package auth

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koyomi/koyomi/internal/core/domain"
)

func testCredential() *domain.Credential {
	return &domain.Credential{
		AccessToken:  "access-token",
		RefreshToken: "refresh-token",
		TokenURI:     "https://oauth2.googleapis.com/token",
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		Scopes:       []string{"https://www.googleapis.com/auth/gmail.send"},
		Expiry:       time.Now().Add(time.Hour).UTC(),
	}
}

func TestFileStore_SaveLoadRoundTrip(t *testing.T) {
	store := NewFileStore()
	path := filepath.Join(t.TempDir(), "token.json")
	cred := testCredential()

	require.NoError(t, store.Save(path, cred))

	loaded, err := store.Load(path, cred.Scopes)
	require.NoError(t, err)
	require.NotNil(t, loaded)

	assert.Equal(t, cred.AccessToken, loaded.AccessToken)
	assert.Equal(t, cred.RefreshToken, loaded.RefreshToken)
	assert.Equal(t, cred.TokenURI, loaded.TokenURI)
	assert.Equal(t, cred.ClientID, loaded.ClientID)
	assert.Equal(t, cred.ClientSecret, loaded.ClientSecret)
	assert.Equal(t, cred.Scopes, loaded.Scopes)
	assert.WithinDuration(t, cred.Expiry, loaded.Expiry, time.Second)
}

func TestFileStore_LoadAbsentFile(t *testing.T) {
	store := NewFileStore()

	loaded, err := store.Load(filepath.Join(t.TempDir(), "missing.json"), nil)

	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestFileStore_LoadCorruptedFileDiscardsIt(t *testing.T) {
	store := NewFileStore()
	path := filepath.Join(t.TempDir(), "token.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0600))

	loaded, err := store.Load(path, nil)
	require.NoError(t, err)
	assert.Nil(t, loaded)

	// The bad file was removed, so a second load is a clean miss too.
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr), "corrupted file should be deleted")

	loaded, err = store.Load(path, nil)
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestFileStore_LoadScopeMismatchDiscardsFile(t *testing.T) {
	store := NewFileStore()
	path := filepath.Join(t.TempDir(), "token.json")
	require.NoError(t, store.Save(path, testCredential()))

	loaded, err := store.Load(path, []string{"https://www.googleapis.com/auth/calendar"})

	require.NoError(t, err)
	assert.Nil(t, loaded)
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestFileStore_LoadMissingAccessTokenDiscardsFile(t *testing.T) {
	store := NewFileStore()
	path := filepath.Join(t.TempDir(), "token.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"refresh_token":"r"}`), 0600))

	loaded, err := store.Load(path, nil)

	require.NoError(t, err)
	assert.Nil(t, loaded)
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestFileStore_SaveRestrictsPermissions(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix permission bits")
	}

	store := NewFileStore()
	dir := filepath.Join(t.TempDir(), "nested", "tokens")
	path := filepath.Join(dir, "token.json")

	require.NoError(t, store.Save(path, testCredential()))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm(), "token file must be owner-only")

	dirInfo, err := os.Stat(dir)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0700), dirInfo.Mode().Perm(), "token dir must be owner-only")
}

func TestFileStore_SaveOverwritesExisting(t *testing.T) {
	store := NewFileStore()
	path := filepath.Join(t.TempDir(), "token.json")

	first := testCredential()
	require.NoError(t, store.Save(path, first))

	second := testCredential()
	second.AccessToken = "rotated"
	require.NoError(t, store.Save(path, second))

	loaded, err := store.Load(path, second.Scopes)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, "rotated", loaded.AccessToken)
}

func TestFileStore_SecureDelete(t *testing.T) {
	store := NewFileStore()
	path := filepath.Join(t.TempDir(), "token.json")
	require.NoError(t, store.Save(path, testCredential()))

	require.NoError(t, store.SecureDelete(path))

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestFileStore_SecureDeleteAbsentFile(t *testing.T) {
	store := NewFileStore()

	err := store.SecureDelete(filepath.Join(t.TempDir(), "missing.json"))

	assert.NoError(t, err)
}
