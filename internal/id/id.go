// Package id generates identifiers for accounts, subscriptions and tree keys.
package id

import (
	"fmt"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Prefixes used across the server.
const (
	PrefixUser         = "usr"
	PrefixSubscription = "sub"
	PrefixRequest      = "req"
)

const pushAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// Generate creates a prefixed NanoID, e.g. "usr-V1StGXR8_Z5jdHi6B-myT".
func Generate(prefix string) (string, error) {
	id, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return prefix + "-" + id, nil
}

// MustGenerate is like Generate but panics if the system has no entropy.
func MustGenerate(prefix string) string {
	id, err := Generate(prefix)
	if err != nil {
		panic(fmt.Sprintf("failed to generate ID: %v", err))
	}
	return id
}

// PushKey returns an auto-generated child key for append-style writes.
// Keys sort by creation millisecond; keys created within the same millisecond have no defined order.
func PushKey() (string, error) {
	suffix, err := gonanoid.Generate(pushAlphabet, 8)
	if err != nil {
		return "", fmt.Errorf("generate push key: %w", err)
	}
	return fmt.Sprintf("%012x%s", time.Now().UnixMilli(), suffix), nil
}
