package domain

import json "github.com/goccy/go-json"

// Snapshot is the full state of one document tree node at a point in time.
type Snapshot struct {
	Path string `json:"path"`
	// Value is the JSON stored at Path itself, nil when absent.
	Value json.RawMessage `json:"value,omitempty"`
	// Children holds the direct children, ordered by key.
	Children []Child `json:"children"`
}

// Child is one direct child of a snapshot node.
type Child struct {
	Key   string          `json:"key"`
	Value json.RawMessage `json:"value"`
}

// Exists reports whether the node has a value or any children.
func (s *Snapshot) Exists() bool {
	return s != nil && (s.Value != nil || len(s.Children) > 0)
}
