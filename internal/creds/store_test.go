package creds

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSetGetRoundtrip(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Set("192.168.1.50", "operator", "s3cret"))

	cred, err := store.Get("192.168.1.50")
	require.NoError(t, err)
	assert.Equal(t, "operator", cred.Username)
	assert.Equal(t, "s3cret", cred.Password)
	assert.False(t, cred.LastUpdated.IsZero())
}

func TestPasswordIsEncryptedAtRest(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.Set("192.168.1.50", "operator", "plaintext-marker"))
	require.NoError(t, store.Close())

	raw, err := os.ReadFile(filepath.Join(dir, "credentials.db"))
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "plaintext-marker")
}

func TestGetOrDefaultFallsBackToAdmin(t *testing.T) {
	store := newTestStore(t)

	user, pass := store.GetOrDefault("10.0.0.1")
	assert.Equal(t, "admin", user)
	assert.Equal(t, "admin", pass)

	require.NoError(t, store.Set("10.0.0.1", "svc", "pw"))
	user, pass = store.GetOrDefault("10.0.0.1")
	assert.Equal(t, "svc", user)
	assert.Equal(t, "pw", pass)
}

func TestSetOverwrites(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Set("10.0.0.1", "a", "one"))
	require.NoError(t, store.Set("10.0.0.1", "b", "two"))

	cred, err := store.Get("10.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, "b", cred.Username)
	assert.Equal(t, "two", cred.Password)
}

func TestRemoveAndList(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Set("10.0.0.1", "a", "one"))
	require.NoError(t, store.Set("10.0.0.2", "b", "two"))

	list, err := store.List()
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Empty(t, list[0].Password, "List must not expose passwords")

	require.NoError(t, store.Remove("10.0.0.1"))
	require.NoError(t, store.Remove("10.0.0.1")) // idempotent

	_, err = store.Get("10.0.0.1")
	assert.ErrorIs(t, err, ErrNoCredentials)

	list, err = store.List()
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestKeyPersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()

	store, err := NewStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.Set("10.0.0.1", "a", "one"))
	require.NoError(t, store.Close())

	store, err = NewStore(dir)
	require.NoError(t, err)
	defer store.Close()

	cred, err := store.Get("10.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, "one", cred.Password)
}
