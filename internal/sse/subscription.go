package sse

import (
	"sync"

	"github.com/popcornapp/popcorn-server/internal/domain"
)

// Subscription is a scoped watch on one tree node. Close releases it; the event
// channel is closed when the subscription ends for any reason.
type Subscription struct {
	manager *Manager
	client  *Client
	once    sync.Once
}

// ID returns the subscription id.
func (s *Subscription) ID() string { return s.client.ID }

// Path returns the watched node.
func (s *Subscription) Path() string { return s.client.WatchPath }

// Events delivers snapshot events.
func (s *Subscription) Events() <-chan Event { return s.client.EventChan }

// Done is closed when the subscription ends.
func (s *Subscription) Done() <-chan struct{} { return s.client.Done }

// Close releases the subscription. Safe to call more than once.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.manager.Disconnect(s.client.ID)
	})
}

// SnapshotOf extracts the snapshot carried by an EventSnapshot.
func SnapshotOf(event Event) (*domain.Snapshot, bool) {
	snap, ok := event.Data.(*domain.Snapshot)
	return snap, ok && event.Type == EventSnapshot
}
