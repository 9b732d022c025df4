// Package sse fans document tree changes out to subscribers: in-process collection mirrors and
// remote clients connected over Server-Sent Events.
package sse

import (
	"time"

	"github.com/popcornapp/popcorn-server/internal/domain"
)

// EventType represents the type of an Event.
type EventType string

const (
	// EventNodeChanged reports a write to one tree node. Raw streams receive it as is.
	EventNodeChanged EventType = "node.changed"
	// EventSnapshot carries the full state of a watched node.
	EventSnapshot EventType = "snapshot"
	// EventCatalogReplaced reports that a new catalog was loaded.
	EventCatalogReplaced EventType = "catalog.replaced"
	// EventConnectionAdded tells a user that someone connected to them.
	EventConnectionAdded EventType = "connection.added"
	// EventHeartbeat keeps idle connections open.
	EventHeartbeat EventType = "heartbeat"

	// eventPrime asks the broadcast loop to send the initial snapshot to one new watcher.
	eventPrime EventType = "internal.prime"
)

// Node operations.
const (
	OpSet    = "set"
	OpDelete = "delete"
)

// Event is delivered to subscribers.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
	Type      EventType `json:"type"`

	// UserID restricts delivery to one user. Empty means every user.
	UserID string `json:"-"`
	// Path is the changed node for node events and the watched node for snapshots.
	Path string `json:"-"`

	clientID string
}

// NodeChangedData is the payload of EventNodeChanged.
type NodeChangedData struct {
	Path string `json:"path"`
	Op   string `json:"op"`
}

// CatalogReplacedData is the payload of EventCatalogReplaced.
type CatalogReplacedData struct {
	Movies int `json:"movies"`
}

// ConnectionAddedData is the payload of EventConnectionAdded.
type ConnectionAddedData struct {
	UserID string `json:"user_id"`
}

// NewNodeChangedEvent creates an event for a write at path.
// Nodes under users/{uid} are only visible to that user.
func NewNodeChangedEvent(path, op string) Event {
	return Event{
		Type:      EventNodeChanged,
		Timestamp: time.Now(),
		Path:      path,
		UserID:    domain.PathOwner(path),
		Data:      NodeChangedData{Path: path, Op: op},
	}
}

// NewSnapshotEvent wraps a node snapshot.
func NewSnapshotEvent(snap *domain.Snapshot) Event {
	return Event{
		Type:      EventSnapshot,
		Timestamp: time.Now(),
		Path:      snap.Path,
		Data:      snap,
	}
}

// NewCatalogReplacedEvent creates a public catalog event.
func NewCatalogReplacedEvent(movies int) Event {
	return Event{
		Type:      EventCatalogReplaced,
		Timestamp: time.Now(),
		Data:      CatalogReplacedData{Movies: movies},
	}
}

// NewConnectionAddedEvent creates an event announcing that fromUserID connected to the recipient.
// Deliver it with Manager.EmitToUser.
func NewConnectionAddedEvent(fromUserID string) Event {
	return Event{
		Type:      EventConnectionAdded,
		Timestamp: time.Now(),
		Data:      ConnectionAddedData{UserID: fromUserID},
	}
}

// NewHeartbeatEvent creates a keepalive event.
func NewHeartbeatEvent() Event {
	return Event{
		Type:      EventHeartbeat,
		Timestamp: time.Now(),
		Data:      struct{}{},
	}
}

func newPrimeEvent(clientID, path string) Event {
	return Event{Type: eventPrime, Timestamp: time.Now(), Path: path, clientID: clientID}
}
