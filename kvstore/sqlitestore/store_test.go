package sqlitestore_test

import (
	"path/filepath"
	"testing"

	apperrors "github.com/jrsteele09/go-seller-session/internal/errors"
	"github.com/jrsteele09/go-seller-session/kvstore"
	"github.com/jrsteele09/go-seller-session/kvstore/kvstoretest"
	"github.com/jrsteele09/go-seller-session/kvstore/sqlitestore"
	"github.com/stretchr/testify/require"
)

func openStore(t *testing.T, path string) *sqlitestore.Store {
	t.Helper()

	store, err := sqlitestore.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStore_Contract(t *testing.T) {
	kvstoretest.RunRepoContract(t, func(t *testing.T) kvstore.Repo {
		return openStore(t, filepath.Join(t.TempDir(), "kv.db"))
	})
}

func TestStore_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "kv.db")

	first, err := sqlitestore.Open(path)
	require.NoError(t, err)
	require.NoError(t, first.SetItem("rememberSeller", "s@shop.com"))
	require.NoError(t, first.Close())

	second := openStore(t, path)
	value, err := second.GetItem("rememberSeller")
	require.NoError(t, err)
	require.Equal(t, "s@shop.com", value)
}

func TestStore_ClosedIsUnavailable(t *testing.T) {
	store, err := sqlitestore.Open(filepath.Join(t.TempDir(), "kv.db"))
	require.NoError(t, err)
	require.NoError(t, store.Close())

	err = store.SetItem("userRole", "seller")
	require.Error(t, err)
	require.True(t, apperrors.Is(err, apperrors.ErrStorageUnavailable))

	_, err = store.GetItem("userRole")
	require.True(t, apperrors.Is(err, apperrors.ErrStorageUnavailable))
}
