// Package kvstoretest holds the behaviour every kvstore.Repo backend must share.
package kvstoretest

import (
	"testing"

	apperrors "github.com/jrsteele09/go-seller-session/internal/errors"
	"github.com/jrsteele09/go-seller-session/kvstore"
	"github.com/stretchr/testify/require"
)

// RunRepoContract runs the shared Repo behaviour against repos produced by newRepo.
// Each subtest receives a fresh repo.
func RunRepoContract(t *testing.T, newRepo func(t *testing.T) kvstore.Repo) {
	t.Helper()

	t.Run("missing key is not found", func(t *testing.T) {
		repo := newRepo(t)
		_, err := repo.GetItem("sellerData")
		require.Error(t, err)
		require.True(t, apperrors.Is(err, apperrors.ErrNotFound))
	})

	t.Run("set then get", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.SetItem("rememberSeller", "s@shop.com"))

		value, err := repo.GetItem("rememberSeller")
		require.NoError(t, err)
		require.Equal(t, "s@shop.com", value)
	})

	t.Run("set overwrites", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.SetItem("userRole", "buyer"))
		require.NoError(t, repo.SetItem("userRole", "seller"))

		value, err := repo.GetItem("userRole")
		require.NoError(t, err)
		require.Equal(t, "seller", value)
	})

	t.Run("empty value is stored", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.SetItem("rememberSeller", ""))

		value, err := repo.GetItem("rememberSeller")
		require.NoError(t, err)
		require.Empty(t, value)
	})

	t.Run("remove deletes", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.SetItem("sellerData", `{"email":"a@x.com"}`))
		require.NoError(t, repo.RemoveItem("sellerData"))

		_, err := repo.GetItem("sellerData")
		require.True(t, apperrors.Is(err, apperrors.ErrNotFound))
	})

	t.Run("remove missing key succeeds", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.RemoveItem("never-set"))
		require.NoError(t, repo.RemoveItem("never-set"))
	})

	t.Run("prefixed namespaces are isolated", func(t *testing.T) {
		repo := newRepo(t)
		a := kvstore.NewPrefixed(repo, "client-a")
		b := kvstore.NewPrefixed(repo, "client-b")

		require.NoError(t, a.SetItem("userRole", "seller"))

		_, err := b.GetItem("userRole")
		require.True(t, apperrors.Is(err, apperrors.ErrNotFound))

		value, err := repo.GetItem("client-a:userRole")
		require.NoError(t, err)
		require.Equal(t, "seller", value)

		require.NoError(t, b.RemoveItem("userRole"))
		value, err = a.GetItem("userRole")
		require.NoError(t, err)
		require.Equal(t, "seller", value)
	})
}
