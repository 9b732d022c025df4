package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dgraph-io/badger/v4"
	json "github.com/goccy/go-json"

	"github.com/popcornapp/popcorn-server/internal/domain"
	"github.com/popcornapp/popcorn-server/internal/id"
	"github.com/popcornapp/popcorn-server/internal/metrics"
	"github.com/popcornapp/popcorn-server/internal/sse"
)

// Tree nodes live under this key prefix, e.g. "node:users/u1/favorites/top1".
const nodePrefix = "node:"

// cleanPath validates a slash-separated tree path. Leading and trailing slashes are ignored;
// empty, "." and ".." segments are rejected, so a missing user id cannot address a sibling node.
func cleanPath(path string) (string, error) {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return "", ErrInvalidPath.WithMessage("empty tree path")
	}
	for seg := range strings.SplitSeq(trimmed, "/") {
		if seg == "" || seg == "." || seg == ".." {
			return "", ErrInvalidPath.WithMessage(fmt.Sprintf("invalid segment in tree path %q", path))
		}
	}
	return trimmed, nil
}

func nodeKey(path string) []byte {
	return []byte(nodePrefix + path)
}

func rootOf(path string) string {
	root, _, _ := strings.Cut(path, "/")
	return root
}

func (s *Store) emitChange(path, op string) {
	metrics.TreeWrites.WithLabelValues(op, rootOf(path)).Inc()
	s.eventEmitter.Emit(sse.NewNodeChangedEvent(path, op))
}

// Set writes value at path, replacing whatever was there.
func (s *Store) Set(ctx context.Context, path string, value any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := cleanPath(path)
	if err != nil {
		return err
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal value at %s: %w", path, err)
	}

	if err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(nodeKey(path), data)
	}); err != nil {
		return fmt.Errorf("set %s: %w", path, err)
	}

	s.emitChange(path, sse.OpSet)
	return nil
}

// Get decodes the value at path into dest. Returns ErrNotFound if absent.
func (s *Store) Get(ctx context.Context, path string, dest any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := cleanPath(path)
	if err != nil {
		return err
	}

	return s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(nodeKey(path))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound.WithMessage("no value at " + path)
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, dest)
		})
	})
}

// Delete removes the value at path. Deleting an absent node succeeds and emits nothing.
// Children of path are left in place.
func (s *Store) Delete(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := cleanPath(path)
	if err != nil {
		return err
	}

	existed := false
	if err := s.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get(nodeKey(path))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		existed = true
		return txn.Delete(nodeKey(path))
	}); err != nil {
		return fmt.Errorf("delete %s: %w", path, err)
	}

	if existed {
		s.emitChange(path, sse.OpDelete)
	}
	return nil
}

// Push writes value under an auto-generated, time-ordered child key of parent and returns the key.
func (s *Store) Push(ctx context.Context, parent string, value any) (string, error) {
	key, err := id.PushKey()
	if err != nil {
		return "", err
	}
	if err := s.Set(ctx, parent+"/"+key, value); err != nil {
		return "", err
	}
	return key, nil
}

// scanChildren calls fn for each direct child of path that holds a value, in key order.
func scanChildren(txn *badger.Txn, path string, fn func(key string, val []byte) error) error {
	prefix := nodeKey(path + "/")
	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix

	it := txn.NewIterator(opts)
	defer it.Close()

	for it.Rewind(); it.Valid(); it.Next() {
		rest := string(it.Item().Key()[len(prefix):])
		if strings.Contains(rest, "/") {
			continue
		}
		if err := it.Item().Value(func(val []byte) error {
			return fn(rest, val)
		}); err != nil {
			return err
		}
	}
	return nil
}

// Children returns the direct children of path. Grandchildren are not included.
func (s *Store) Children(ctx context.Context, path string) ([]domain.Child, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, err := cleanPath(path)
	if err != nil {
		return nil, err
	}

	var children []domain.Child
	err = s.db.View(func(txn *badger.Txn) error {
		return scanChildren(txn, path, func(key string, val []byte) error {
			children = append(children, domain.Child{Key: key, Value: bytes.Clone(val)})
			return nil
		})
	})
	return children, err
}

// Snapshot reads the value at path and its direct children in one transaction.
func (s *Store) Snapshot(ctx context.Context, path string) (*domain.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, err := cleanPath(path)
	if err != nil {
		return nil, err
	}

	snap := &domain.Snapshot{Path: path, Children: []domain.Child{}}
	err = s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(nodeKey(path))
		switch {
		case err == nil:
			if snap.Value, err = item.ValueCopy(nil); err != nil {
				return err
			}
		case !errors.Is(err, badger.ErrKeyNotFound):
			return err
		}

		return scanChildren(txn, path, func(key string, val []byte) error {
			snap.Children = append(snap.Children, domain.Child{Key: key, Value: bytes.Clone(val)})
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("snapshot %s: %w", path, err)
	}
	return snap, nil
}

// QueryEqual returns the direct children of path whose value equals value.
func (s *Store) QueryEqual(ctx context.Context, path string, value any) ([]domain.Child, error) {
	want, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}

	children, err := s.Children(ctx, path)
	if err != nil {
		return nil, err
	}

	var matches []domain.Child
	for _, c := range children {
		if bytes.Equal(c.Value, want) {
			matches = append(matches, c)
		}
	}
	return matches, nil
}

// DeleteWhereEqual deletes every direct child of path whose value equals value and
// returns how many were removed. No match is not an error.
func (s *Store) DeleteWhereEqual(ctx context.Context, path string, value any) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	path, err := cleanPath(path)
	if err != nil {
		return 0, err
	}
	want, err := json.Marshal(value)
	if err != nil {
		return 0, err
	}

	var removed []string
	err = s.db.Update(func(txn *badger.Txn) error {
		var keys []string
		if err := scanChildren(txn, path, func(key string, val []byte) error {
			if bytes.Equal(val, want) {
				keys = append(keys, key)
			}
			return nil
		}); err != nil {
			return err
		}
		for _, k := range keys {
			if err := txn.Delete(nodeKey(path + "/" + k)); err != nil {
				return err
			}
		}
		removed = keys
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("delete matching children of %s: %w", path, err)
	}

	for _, k := range removed {
		s.emitChange(path+"/"+k, sse.OpDelete)
	}
	return len(removed), nil
}
