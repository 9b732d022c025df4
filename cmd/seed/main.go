// Package main seeds a Popcorn database with demo users, connections and ratings.
//
// Usage:
//
//	DB_PATH=~/popcorn/db go run ./cmd/seed
//	DB_PATH=~/popcorn/db go run ./cmd/seed --users 8 --ratings 12
//	DB_PATH=~/popcorn/db go run ./cmd/seed --legacy-edges
//
// With --legacy-edges connections are appended under generated keys, the layout older
// clients wrote. Disconnecting removes them like target-keyed edges.
//
// Every demo account logs in with the password "popcorn123".
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"math/rand/v2"
	"os"
	"time"

	"github.com/popcornapp/popcorn-server/internal/auth"
	"github.com/popcornapp/popcorn-server/internal/domain"
	"github.com/popcornapp/popcorn-server/internal/id"
	"github.com/popcornapp/popcorn-server/internal/normalize"
	"github.com/popcornapp/popcorn-server/internal/store"
)

var (
	numUsers   = flag.Int("users", 5, "Demo users to create")
	numRatings = flag.Int("ratings", 8, "Ratings per user")
	numMovies  = flag.Int("movies", 25, "Rate movies top1..topN")
	legacy     = flag.Bool("legacy-edges", false, "Store connections under generated keys")
)

const demoPassword = "popcorn123"

var demoNames = [][2]string{
	{"Ada", "Lovelace"},
	{"Grace", "Hopper"},
	{"Alan", "Turing"},
	{"Katherine", "Johnson"},
	{"Edsger", "Dijkstra"},
	{"Barbara", "Liskov"},
	{"Dennis", "Ritchie"},
	{"Frances", "Allen"},
}

func main() {
	flag.Parse()

	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		dbPath = os.ExpandEnv("$HOME/popcorn/db")
	}

	fmt.Printf("Opening database at: %s\n", dbPath)

	s, err := store.New(dbPath, nil, store.NewNoopEmitter())
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer s.Close()

	ctx := context.Background()
	hasher := auth.NewPasswordHasher(auth.DefaultArgon2Params)

	userIDs := createUsers(ctx, s, hasher, *numUsers)
	if len(userIDs) == 0 {
		log.Fatal("No users created")
	}

	rng := rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0))

	connections := 0
	ratings := 0
	for _, uid := range userIDs {
		// Each user follows about half of the others.
		for _, other := range userIDs {
			if other == uid || rng.IntN(2) == 0 {
				continue
			}
			if err := connect(ctx, s, uid, other); err != nil {
				log.Printf("Failed to connect %s -> %s: %v", uid, other, err)
				continue
			}
			connections++
		}

		for _, n := range rng.Perm(*numMovies)[:min(*numRatings, *numMovies)] {
			movieID := fmt.Sprintf("top%d", n+1)
			value := 1 + rng.IntN(domain.MaxRating)
			if err := s.SetRating(ctx, movieID, uid, value); err != nil {
				log.Printf("Failed to rate %s for %s: %v", movieID, uid, err)
				continue
			}
			ratings++
		}

		if err := s.SaveSettings(ctx, uid, &domain.UserSettings{DarkMode: rng.IntN(2) == 0}); err != nil {
			log.Printf("Failed to save settings for %s: %v", uid, err)
		}
	}

	fmt.Printf("\nCreated %d users, %d connections, %d ratings\n", len(userIDs), connections, ratings)
	fmt.Printf("Log in with any demo email and password %q\n", demoPassword)
}

func connect(ctx context.Context, s *store.Store, uid, target string) error {
	if *legacy {
		_, err := s.Push(ctx, domain.ConnectionsPath(uid), target)
		return err
	}
	return s.AddConnection(ctx, uid, target)
}

// createUsers creates up to n demo accounts with profiles, skipping emails that already exist.
func createUsers(ctx context.Context, s *store.Store, hasher *auth.PasswordHasher, n int) []string {
	hash, err := hasher.Hash(demoPassword)
	if err != nil {
		log.Fatalf("Failed to hash password: %v", err)
	}

	var ids []string
	for i := range min(n, len(demoNames)) {
		first, last := demoNames[i][0], demoNames[i][1]
		email := fmt.Sprintf("%s@popcorn.test", normalize.Fold(first))

		if existing, err := s.Accounts.GetByIndex(ctx, "email", email); err == nil {
			fmt.Printf("  %s already exists (%s)\n", email, existing.ID)
			ids = append(ids, existing.ID)
			continue
		}

		userID, err := id.Generate(id.PrefixUser)
		if err != nil {
			log.Fatalf("Failed to generate id: %v", err)
		}

		account := &domain.Account{ID: userID, Email: email, PasswordHash: hash}
		account.InitTimestamps()
		if err := s.Accounts.Create(ctx, userID, account); err != nil {
			if errors.Is(err, store.ErrAlreadyExists) {
				continue
			}
			log.Fatalf("Failed to create account %s: %v", email, err)
		}

		profile := &domain.UserProfile{
			ID:        userID,
			Username:  normalize.Fold(first),
			FirstName: first,
			LastName:  last,
		}
		if err := s.SaveProfile(ctx, profile); err != nil {
			log.Fatalf("Failed to save profile %s: %v", email, err)
		}

		fmt.Printf("  Created %s (%s)\n", email, userID)
		ids = append(ids, userID)
	}
	return ids
}

