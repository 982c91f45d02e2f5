package store

import (
	"net/url"
	"strings"
)

// Key prefixes for BadgerDB.
//
//	coll:{user}:{collection}        → collection document
//	book:{user}:{collection}:{book} → book document
//
// User ids are opaque, so they are query-escaped to keep ':' out of the key.
// Nanoid collection and book ids never contain ':'.
const (
	collectionPrefix = "coll:"
	bookPrefix       = "book:"
)

func userSegment(userID string) string {
	return url.QueryEscape(userID)
}

func collectionKey(userID, collectionID string) []byte {
	return []byte(collectionPrefix + userSegment(userID) + ":" + collectionID)
}

func userCollectionsPrefix(userID string) []byte {
	return []byte(collectionPrefix + userSegment(userID) + ":")
}

func bookKey(userID, collectionID, bookID string) []byte {
	return []byte(bookPrefix + userSegment(userID) + ":" + collectionID + ":" + bookID)
}

func userBooksPrefix(userID string) []byte {
	return []byte(bookPrefix + userSegment(userID) + ":")
}

func collectionBooksPrefix(userID, collectionID string) []byte {
	return []byte(bookPrefix + userSegment(userID) + ":" + collectionID + ":")
}

// collectionOfBookKey extracts the collection id from a book key.
func collectionOfBookKey(key []byte) string {
	parts := strings.Split(string(key), ":")
	if len(parts) != 4 {
		return ""
	}
	return parts[2]
}
