// Package main seeds a catalog with sample collections and books for local testing.
//
// Usage:
//
//	DB_PATH=~/shelf/db go run ./cmd/seed --user alice
//	DB_PATH=~/shelf/catalog.sqlite go run ./cmd/seed --backend sqlite --user alice
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/listenupapp/shelf/internal/domain"
	"github.com/listenupapp/shelf/internal/store"
	"github.com/listenupapp/shelf/internal/store/sqlite"
)

var (
	backend = flag.String("backend", "badger", "Store backend: badger or sqlite")
	userID  = flag.String("user", "demo", "User that owns the seeded catalog")
)

type seedCollection struct {
	name  string
	books []domain.BookDraft
}

var catalog = []seedCollection{
	{
		name: "Science Fiction",
		books: []domain.BookDraft{
			{Title: "Dune", Author: "Frank Herbert", ISBN: domain.Ptr("9780441013593"), Year: domain.Ptr("1965"), Publisher: domain.Ptr("Ace")},
			{Title: "The Left Hand of Darkness", Author: "Ursula K. Le Guin", ISBN: domain.Ptr("9780441478125"), Year: domain.Ptr("1969")},
			{Title: "Neuromancer", Author: "William Gibson", Year: domain.Ptr("1984")},
		},
	},
	{
		name: "Classics",
		books: []domain.BookDraft{
			{Title: "Emma", Author: "Jane Austen", ISBN: domain.Ptr("9780141439587"), Year: domain.Ptr("1815")},
			{Title: "Middlemarch", Author: "George Eliot", Year: domain.Ptr("1871")},
		},
	},
	{name: "To Read"},
}

func main() {
	flag.Parse()

	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		dbPath = os.ExpandEnv("$HOME/shelf/db")
	}

	fmt.Printf("Opening %s store at: %s\n", *backend, dbPath)

	var (
		s   store.Catalog
		err error
	)
	switch *backend {
	case "badger":
		s, err = store.New(dbPath, nil, store.NewNoopEmitter())
	case "sqlite":
		s, err = sqlite.Open(dbPath, nil, store.NewNoopEmitter())
	default:
		log.Fatalf("Unknown backend %q", *backend)
	}
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer s.Close()

	ctx := context.Background()

	var books int
	for _, sc := range catalog {
		c, err := s.CreateCollection(ctx, *userID, sc.name)
		if err != nil {
			log.Fatalf("Failed to create collection %q: %v", sc.name, err)
		}
		fmt.Printf("  %s (%s)\n", c.Name, c.ID)

		for _, d := range sc.books {
			b, err := s.AddBook(ctx, *userID, c.ID, d)
			if err != nil {
				log.Fatalf("Failed to add %q: %v", d.Title, err)
			}
			fmt.Printf("    + %s by %s (%s)\n", b.Title, b.Author, b.ID)
			books++
		}
	}

	fmt.Printf("\nSeeded %d collections and %d books for user %q\n", len(catalog), books, *userID)
}
