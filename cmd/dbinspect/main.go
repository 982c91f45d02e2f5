// Package main prints per-user counts from a Badger catalog, including orphaned books.
//
// Usage:
//
//	DB_PATH=~/shelf/db go run ./cmd/dbinspect
package main

import (
	"fmt"
	"log"
	"net/url"
	"os"
	"sort"
	"strings"

	"github.com/dgraph-io/badger/v4"
)

type userStats struct {
	collections map[string]bool
	books       map[string]int // per collection id
}

func main() {
	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		dbPath = os.ExpandEnv("$HOME/shelf/db")
	}

	opts := badger.DefaultOptions(dbPath).
		WithReadOnly(true).
		WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	stats := make(map[string]*userStats)
	get := func(escapedUser string) *userStats {
		s, ok := stats[escapedUser]
		if !ok {
			s = &userStats{collections: map[string]bool{}, books: map[string]int{}}
			stats[escapedUser] = s
		}
		return s
	}

	err = db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.IteratorOptions{PrefetchValues: false})
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			parts := strings.Split(string(it.Item().Key()), ":")
			switch {
			case parts[0] == "coll" && len(parts) == 3:
				get(parts[1]).collections[parts[2]] = true
			case parts[0] == "book" && len(parts) == 4:
				get(parts[1]).books[parts[2]]++
			}
		}
		return nil
	})
	if err != nil {
		log.Fatalf("Failed to scan database: %v", err)
	}

	users := make([]string, 0, len(stats))
	for u := range stats {
		users = append(users, u)
	}
	sort.Strings(users)

	fmt.Println("=== Catalog Inspection ===")
	for _, escaped := range users {
		s := stats[escaped]
		user, err := url.QueryUnescape(escaped)
		if err != nil {
			user = escaped
		}

		var books, orphans int
		for cid, n := range s.books {
			books += n
			if !s.collections[cid] {
				orphans += n
			}
		}

		fmt.Printf("%-30s collections=%-4d books=%-6d orphaned=%d\n", user, len(s.collections), books, orphans)
	}
}
