package sse

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/popcornapp/popcorn-server/internal/domain"
	"github.com/popcornapp/popcorn-server/internal/id"
	"github.com/popcornapp/popcorn-server/internal/metrics"
)

// ErrShutdown is returned when subscribing to a stopped manager.
var ErrShutdown = errors.New("sse: manager shut down")

// Client is one registered subscriber.
type Client struct {
	ConnectedAt time.Time
	EventChan   chan Event
	Done        chan struct{}
	ID          string
	// UserID filters user-owned events. Empty receives every event.
	UserID string
	// WatchPath turns the client into a watcher that receives snapshots of this node
	// instead of raw events.
	WatchPath string
}

// SnapshotLoader reads the current state of a tree node.
type SnapshotLoader func(ctx context.Context, path string) (*domain.Snapshot, error)

// Manager owns the subscriber set and the single broadcast loop.
// Snapshots are loaded on the broadcast goroutine, so a watcher always sees them in write order.
type Manager struct {
	loadSnapshot      SnapshotLoader
	clients           map[string]*Client
	events            chan Event
	logger            *slog.Logger
	stopped           chan struct{}
	heartbeatInterval time.Duration
	snapshotTimeout   time.Duration
	mu                sync.RWMutex
	started           atomic.Bool

	shutdownMu sync.RWMutex
	shutdown   bool
}

// NewManager creates a new Manager. Call Start to run the broadcast loop.
func NewManager(logger *slog.Logger) *Manager {
	return &Manager{
		clients:           make(map[string]*Client),
		events:            make(chan Event, 1000),
		logger:            logger,
		stopped:           make(chan struct{}),
		heartbeatInterval: 30 * time.Second,
		snapshotTimeout:   5 * time.Second,
	}
}

// SetSnapshotLoader sets the function used to read watched nodes.
// The store cannot be passed directly since it emits into the manager.
func (m *Manager) SetSnapshotLoader(fn SnapshotLoader) {
	m.loadSnapshot = fn
}

// Start runs the broadcast loop until ctx is canceled or Shutdown drains the queue.
func (m *Manager) Start(ctx context.Context) {
	if !m.started.CompareAndSwap(false, true) {
		return
	}
	defer close(m.stopped)

	m.logger.Info("SSE manager starting")

	heartbeatTicker := time.NewTicker(m.heartbeatInterval)
	defer heartbeatTicker.Stop()

	for {
		select {
		case event, ok := <-m.events:
			if !ok {
				m.closeAllClients()
				return
			}
			m.broadcast(event)

		case <-heartbeatTicker.C:
			m.broadcast(NewHeartbeatEvent())

		case <-ctx.Done():
			m.logger.Info("SSE manager stopping")
			m.closeAllClients()
			return
		}
	}
}

// Shutdown stops accepting events, lets the loop deliver what is queued and closes every client.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.logger.Info("SSE manager shutdown initiated")

	m.shutdownMu.Lock()
	if m.shutdown {
		m.shutdownMu.Unlock()
		return nil
	}
	m.shutdown = true
	close(m.events)
	m.shutdownMu.Unlock()

	if !m.started.Load() {
		m.closeAllClients()
		return nil
	}

	select {
	case <-m.stopped:
		m.logger.Info("SSE manager shutdown complete")
		return nil
	case <-ctx.Done():
		m.logger.Warn("SSE event drain timeout, some events may be lost")
		return ctx.Err()
	}
}

// related reports whether a change at changed affects a watcher of watched.
// A write below the watched node changes its children; a write above it may replace it.
func related(changed, watched string) bool {
	return changed == watched ||
		strings.HasPrefix(changed, watched+"/") ||
		strings.HasPrefix(watched, changed+"/")
}

func visible(event Event, client *Client) bool {
	return event.UserID == "" || client.UserID == "" || event.UserID == client.UserID
}

func (m *Manager) broadcast(event Event) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	switch event.Type {
	case eventPrime:
		client, ok := m.clients[event.clientID]
		if !ok {
			return
		}
		if snap := m.snapshot(event.Path); snap != nil {
			m.sendLatest(client, NewSnapshotEvent(snap))
		}
		return

	case EventNodeChanged:
		m.broadcastChange(event)
		return
	}

	for _, client := range m.clients {
		if client.WatchPath != "" || !visible(event, client) {
			continue
		}
		m.send(client, event)
	}
}

// broadcastChange forwards a node change to raw streams and refreshes affected watchers.
// Each watched path is loaded at most once per change.
func (m *Manager) broadcastChange(event Event) {
	var delivered, filtered int
	snapshots := make(map[string]*domain.Snapshot)

	for _, client := range m.clients {
		if !visible(event, client) {
			filtered++
			continue
		}

		if client.WatchPath == "" {
			if m.send(client, event) {
				delivered++
			}
			continue
		}

		if !related(event.Path, client.WatchPath) {
			continue
		}

		snap, loaded := snapshots[client.WatchPath]
		if !loaded {
			snap = m.snapshot(client.WatchPath)
			snapshots[client.WatchPath] = snap
		}
		if snap == nil {
			continue
		}
		m.sendLatest(client, NewSnapshotEvent(snap))
		delivered++
	}

	m.logger.Debug("node change broadcast",
		slog.String("path", event.Path),
		slog.Group("stats",
			slog.Int("delivered", delivered),
			slog.Int("filtered", filtered),
			slog.Int("snapshots", len(snapshots))))
}

func (m *Manager) snapshot(path string) *domain.Snapshot {
	if m.loadSnapshot == nil {
		m.logger.Error("no snapshot loader configured", slog.String("path", path))
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), m.snapshotTimeout)
	defer cancel()

	snap, err := m.loadSnapshot(ctx, path)
	if err != nil {
		m.logger.Error("failed to load snapshot",
			slog.String("path", path),
			slog.String("error", err.Error()))
		return nil
	}
	return snap
}

// send delivers without blocking and drops the event for a slow client.
func (m *Manager) send(client *Client, event Event) bool {
	select {
	case client.EventChan <- event:
		metrics.EventsDelivered.WithLabelValues(string(event.Type), "delivered").Inc()
		return true
	default:
		metrics.EventsDelivered.WithLabelValues(string(event.Type), "dropped").Inc()
		m.logger.Warn("dropped event for slow client",
			slog.String("client_id", client.ID),
			slog.String("event_type", string(event.Type)))
		return false
	}
}

// sendLatest delivers a snapshot, evicting the oldest queued one when the client is full.
// Snapshots carry full state, so only the newest matters.
func (m *Manager) sendLatest(client *Client, event Event) {
	select {
	case client.EventChan <- event:
		metrics.EventsDelivered.WithLabelValues(string(event.Type), "delivered").Inc()
		return
	default:
	}

	select {
	case <-client.EventChan:
	default:
	}

	select {
	case client.EventChan <- event:
		metrics.EventsDelivered.WithLabelValues(string(event.Type), "replaced").Inc()
	default:
		metrics.EventsDelivered.WithLabelValues(string(event.Type), "dropped").Inc()
	}
}

// Connect registers a raw event stream for userID.
func (m *Manager) Connect(userID string) (*Client, error) {
	return m.register(userID, "")
}

// Watch registers a watcher of path. The first event on the subscription is the node's
// current snapshot, followed by a fresh snapshot after every related change.
func (m *Manager) Watch(userID, path string) (*Subscription, error) {
	client, err := m.register(userID, path)
	if err != nil {
		return nil, err
	}

	if !m.enqueue(newPrimeEvent(client.ID, path)) {
		m.Disconnect(client.ID)
		return nil, ErrShutdown
	}

	return &Subscription{manager: m, client: client}, nil
}

func (m *Manager) register(userID, watchPath string) (*Client, error) {
	m.shutdownMu.RLock()
	closed := m.shutdown
	m.shutdownMu.RUnlock()
	if closed {
		return nil, ErrShutdown
	}

	clientID, err := id.Generate(id.PrefixSubscription)
	if err != nil {
		return nil, err
	}

	client := &Client{
		ID:          clientID,
		UserID:      userID,
		WatchPath:   watchPath,
		EventChan:   make(chan Event, 100),
		Done:        make(chan struct{}),
		ConnectedAt: time.Now(),
	}

	m.mu.Lock()
	m.clients[client.ID] = client
	totalClients := len(m.clients)
	m.mu.Unlock()

	metrics.SubscribersActive.Inc()
	m.logger.Debug("subscriber connected",
		slog.String("client_id", clientID),
		slog.String("user_id", userID),
		slog.String("path", watchPath),
		slog.Int("total_clients", totalClients))
	return client, nil
}

// Disconnect removes a client and closes its channels.
func (m *Manager) Disconnect(clientID string) {
	m.mu.Lock()
	client, ok := m.clients[clientID]
	if !ok {
		m.mu.Unlock()
		return
	}
	delete(m.clients, clientID)
	totalClients := len(m.clients)
	m.mu.Unlock()

	close(client.Done)
	close(client.EventChan)

	metrics.SubscribersActive.Dec()
	m.logger.Debug("subscriber disconnected",
		slog.String("client_id", clientID),
		slog.Duration("duration", time.Since(client.ConnectedAt)),
		slog.Int("total_clients", totalClients))
}

// Emit queues an event for broadcasting. It implements store.EventEmitter.
func (m *Manager) Emit(event any) {
	evt, ok := event.(Event)
	if !ok {
		m.logger.Error("invalid event type emitted")
		return
	}
	m.enqueue(evt)
}

// EmitToUser queues an event for a specific user only.
func (m *Manager) EmitToUser(userID string, event Event) {
	event.UserID = userID
	m.enqueue(event)
}

// enqueue holds the shutdown read lock through the send so Shutdown cannot close the channel mid-send.
func (m *Manager) enqueue(evt Event) bool {
	m.shutdownMu.RLock()
	defer m.shutdownMu.RUnlock()

	if m.shutdown {
		return false
	}

	select {
	case m.events <- evt:
		return true
	default:
		m.logger.Error("SSE event channel full, dropping event",
			slog.String("event_type", string(evt.Type)))
		return false
	}
}

// ClientCount returns the number of connected clients.
func (m *Manager) ClientCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.clients)
}

func (m *Manager) closeAllClients() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, client := range m.clients {
		close(client.Done)
		close(client.EventChan)
		metrics.SubscribersActive.Dec()
	}
	m.clients = make(map[string]*Client)

	m.logger.Info("all SSE clients disconnected")
}
