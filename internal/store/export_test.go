package store

import (
	"github.com/dgraph-io/badger/v4"
)

// SetBeforeBookDelete installs the cascade hook for tests outside the package.
func SetBeforeBookDelete(s *Store, fn func(bookID string) error) {
	s.beforeBookDelete = fn
}

// StoredBookCount counts book keys under a collection, orphans included.
func StoredBookCount(s *Store, userID, collectionID string) int {
	var n int
	_ = s.db.View(func(txn *badger.Txn) error {
		n = len(keysWithPrefix(txn, collectionBooksPrefix(userID, collectionID)))
		return nil
	})
	return n
}
