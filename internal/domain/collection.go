package domain

import "fmt"

// CollectionKind names a per-user movie list.
type CollectionKind string

// Collection kinds. The value is also the tree segment under users/{uid}.
const (
	CollectionFavorites CollectionKind = "favorites"
	CollectionWatchlist CollectionKind = "watchlist"
)

// CollectionKinds lists every kind.
var CollectionKinds = []CollectionKind{CollectionFavorites, CollectionWatchlist}

// Valid reports whether k is a known kind.
func (k CollectionKind) Valid() bool {
	return k == CollectionFavorites || k == CollectionWatchlist
}

// ParseCollectionKind validates a kind from user input.
func ParseCollectionKind(s string) (CollectionKind, error) {
	k := CollectionKind(s)
	if !k.Valid() {
		return "", fmt.Errorf("unknown collection %q", s)
	}
	return k, nil
}

// ItemState tracks one movie's membership in a locally mirrored collection.
type ItemState int

const (
	// ItemIdle means the movie is not in the collection and no write is outstanding.
	ItemIdle ItemState = iota
	// ItemPendingWrite means an add or remove was issued and no snapshot has reflected it yet.
	ItemPendingWrite
	// ItemConfirmed means the last snapshot contained the movie.
	ItemConfirmed
)

func (s ItemState) String() string {
	switch s {
	case ItemIdle:
		return "idle"
	case ItemPendingWrite:
		return "pending_write"
	case ItemConfirmed:
		return "confirmed"
	default:
		return fmt.Sprintf("ItemState(%d)", int(s))
	}
}

// MarshalText renders the state by name in API responses.
func (s ItemState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
