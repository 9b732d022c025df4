// Package main prints the document tree stored in a Popcorn database.
//
// Usage:
//
//	DB_PATH=~/popcorn/db go run ./cmd/dbinspect [path]
//
// With a path, only nodes under it are printed; otherwise every node plus per-root counts.
package main

import (
	"fmt"
	"log"
	"os"
	"sort"
	"strings"

	"github.com/dgraph-io/badger/v4"
)

const nodePrefix = "node:"

// maxValueLen truncates long values such as stored movies.
const maxValueLen = 120

func main() {
	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		dbPath = os.ExpandEnv("$HOME/popcorn/db")
	}

	under := ""
	if len(os.Args) > 1 {
		under = strings.Trim(os.Args[1], "/")
	}

	opts := badger.DefaultOptions(dbPath).
		WithReadOnly(true).
		WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	fmt.Println("=== Document Tree ===")
	fmt.Println()

	prefix := nodePrefix
	if under != "" {
		prefix += under
	}

	roots := map[string]int{}
	accounts := 0
	revoked := 0

	err = db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			key := string(item.Key())

			switch {
			case strings.HasPrefix(key, "account:") && !strings.HasPrefix(key, "account:idx:"):
				accounts++
				continue
			case strings.HasPrefix(key, "revoked:"):
				revoked++
				continue
			case !strings.HasPrefix(key, prefix):
				continue
			}

			path := strings.TrimPrefix(key, nodePrefix)
			root, _, _ := strings.Cut(path, "/")
			roots[root]++

			if err := item.Value(func(val []byte) error {
				fmt.Printf("%s = %s\n", path, truncate(string(val)))
				return nil
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Fatalf("Failed to read database: %v", err)
	}

	fmt.Println()
	fmt.Println("=== Summary ===")
	names := make([]string, 0, len(roots))
	for name := range roots {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("%-10s %d nodes\n", name, roots[name])
	}
	fmt.Printf("Accounts:  %d\n", accounts)
	fmt.Printf("Revoked:   %d tokens\n", revoked)
}

func truncate(s string) string {
	if len(s) <= maxValueLen {
		return s
	}
	return s[:maxValueLen] + "..."
}
