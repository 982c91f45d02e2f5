package store_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/listenupapp/shelf/internal/store"
	"github.com/listenupapp/shelf/internal/store/storetest"
)

func TestBadgerCatalogContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T, emitter store.EventEmitter) store.Catalog {
		s, err := store.New(filepath.Join(t.TempDir(), "badger"), nil, emitter)
		require.NoError(t, err)
		t.Cleanup(func() { _ = s.Close() })
		return s
	})
}

func TestBadgerCatalogCascade(t *testing.T) {
	storetest.RunCascade(t, func(t *testing.T, beforeBookDelete func(string) error) storetest.Hooked {
		s, err := store.New(filepath.Join(t.TempDir(), "badger"), nil, nil)
		require.NoError(t, err)
		t.Cleanup(func() { _ = s.Close() })
		store.SetBeforeBookDelete(s, beforeBookDelete)
		return storetest.Hooked{
			Catalog: s,
			CountBooks: func(userID, collectionID string) int {
				return store.StoredBookCount(s, userID, collectionID)
			},
		}
	})
}
