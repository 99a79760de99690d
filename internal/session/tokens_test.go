package session

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileTokenStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tokens.json")
	store := NewFileTokenStore(path)

	// empty file is an empty pair, not an error
	pair, err := store.Load()
	require.NoError(t, err)
	assert.Empty(t, pair.Access)

	want := TokenPair{Access: "a1", Refresh: "r1"}
	require.NoError(t, store.Save(want))

	got, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, want, got)

	require.NoError(t, store.Clear())

	got, err = store.Load()
	require.NoError(t, err)
	assert.Empty(t, got.Access)

	// clearing twice is fine
	assert.NoError(t, store.Clear())
}

func TestMemoryTokenStore(t *testing.T) {
	store := NewMemoryTokenStore()

	want := TokenPair{Access: "a1", Refresh: "r1"}
	require.NoError(t, store.Save(want))

	got, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, want, got)

	require.NoError(t, store.Clear())

	got, err = store.Load()
	require.NoError(t, err)
	assert.Equal(t, TokenPair{}, got)
}
