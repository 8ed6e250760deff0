package credstore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openStores(t *testing.T) map[string]Store {
	t.Helper()

	boltStore, err := OpenBolt(filepath.Join(t.TempDir(), "credentials.db"))
	require.NoError(t, err)
	t.Cleanup(func() { boltStore.Close() })

	return map[string]Store{
		"bolt":   boltStore,
		"memory": NewMemory(),
	}
}

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, store := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			_, err := store.Get(ctx, "authToken")
			assert.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, store.Set(ctx, "authToken", "abc"))
			value, err := store.Get(ctx, "authToken")
			require.NoError(t, err)
			assert.Equal(t, "abc", value)

			// Overwrites silently.
			require.NoError(t, store.Set(ctx, "authToken", "def"))
			value, err = store.Get(ctx, "authToken")
			require.NoError(t, err)
			assert.Equal(t, "def", value)

			require.NoError(t, store.Delete(ctx, "authToken"))
			_, err = store.Get(ctx, "authToken")
			assert.ErrorIs(t, err, ErrNotFound)

			// Delete is idempotent.
			require.NoError(t, store.Delete(ctx, "authToken"))
			require.NoError(t, store.Delete(ctx, "neverSet"))
		})
	}
}

func TestStoreSlotsAreIndependent(t *testing.T) {
	ctx := context.Background()
	for name, store := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, store.Set(ctx, "authToken", "access"))
			require.NoError(t, store.Set(ctx, "refreshToken", "refresh"))

			require.NoError(t, store.Delete(ctx, "authToken"))

			value, err := store.Get(ctx, "refreshToken")
			require.NoError(t, err)
			assert.Equal(t, "refresh", value)
		})
	}
}

func TestBoltStorePersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "credentials.db")

	store, err := OpenBolt(path)
	require.NoError(t, err)
	require.NoError(t, store.Set(ctx, "authToken", "persisted"))
	require.NoError(t, store.Close())

	reopened, err := OpenBolt(path)
	require.NoError(t, err)
	defer reopened.Close()

	value, err := reopened.Get(ctx, "authToken")
	require.NoError(t, err)
	assert.Equal(t, "persisted", value)
}
