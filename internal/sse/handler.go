package sse

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	json "github.com/goccy/go-json"

	"github.com/popcornapp/popcorn-server/internal/domain"
	"github.com/popcornapp/popcorn-server/internal/http/response"
)

// UserIDFunc resolves the authenticated user of a request.
type UserIDFunc func(r *http.Request) (string, bool)

// Handler serves GET /api/v1/sync/stream.
//
// Without a path query parameter the client receives raw node change events for its own tree
// plus public events. With ?path=favorites (or watchlist, connections, settings, profile,
// ratings/{movieId}) it receives a snapshot of that node now and after every change.
type Handler struct {
	manager           *Manager
	userID            UserIDFunc
	logger            *slog.Logger
	heartbeatInterval time.Duration
}

// NewHandler creates a new SSE Handler.
func NewHandler(manager *Manager, userID UserIDFunc, logger *slog.Logger) *Handler {
	return &Handler{
		manager:           manager,
		userID:            userID,
		logger:            logger,
		heartbeatInterval: 30 * time.Second,
	}
}

// ServeHTTP handles the SSE connection.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, ok := h.userID(r)
	if !ok {
		response.Unauthorized(w, "authentication required", h.logger)
		return
	}

	var watchPath string
	if rel := r.URL.Query().Get("path"); rel != "" {
		resolved, ok := domain.ResolveUserPath(userID, rel)
		if !ok {
			response.BadRequest(w, fmt.Sprintf("cannot watch %q", rel), h.logger)
			return
		}
		watchPath = resolved
	}

	if r.Context().Err() != nil {
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	rc := http.NewResponseController(w)

	var (
		events   <-chan Event
		done     <-chan struct{}
		clientID string
	)
	if watchPath != "" {
		sub, err := h.manager.Watch(userID, watchPath)
		if err != nil {
			h.logger.Error("failed to register SSE watcher", slog.String("error", err.Error()))
			http.Error(w, "Failed to establish connection", http.StatusServiceUnavailable)
			return
		}
		defer sub.Close()
		events, done, clientID = sub.Events(), sub.Done(), sub.ID()
	} else {
		client, err := h.manager.Connect(userID)
		if err != nil {
			h.logger.Error("failed to register SSE client", slog.String("error", err.Error()))
			http.Error(w, "Failed to establish connection", http.StatusServiceUnavailable)
			return
		}
		defer h.manager.Disconnect(client.ID)
		events, done, clientID = client.EventChan, client.Done, client.ID
	}

	clientLogger := h.logger.With(slog.String("client_id", clientID), slog.String("user_id", userID))

	if err := h.sendEvent(w, rc, "connected", map[string]string{
		"client_id": clientID,
		"path":      watchPath,
	}); err != nil {
		clientLogger.Warn("failed to send initial connection message", slog.String("error", err.Error()))
		return
	}

	heartbeatTicker := time.NewTicker(h.heartbeatInterval)
	defer heartbeatTicker.Stop()

	ctx := r.Context()
	for {
		select {
		case event, ok := <-events:
			if !ok {
				clientLogger.Info("client closed by manager")
				return
			}
			if err := h.sendEvent(w, rc, string(event.Type), event); err != nil {
				clientLogger.Info("client disconnected during send")
				return
			}

		case <-heartbeatTicker.C:
			heartbeat := NewHeartbeatEvent()
			if err := h.sendEvent(w, rc, string(heartbeat.Type), heartbeat); err != nil {
				clientLogger.Info("client disconnected during heartbeat")
				return
			}

		case <-done:
			clientLogger.Info("client closed by manager")
			return

		case <-ctx.Done():
			clientLogger.Debug("client context canceled")
			return
		}
	}
}

// sendEvent writes one "event:/data:" frame and flushes it.
func (h *Handler) sendEvent(w http.ResponseWriter, rc *http.ResponseController, eventType string, data any) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal event data: %w", err)
	}

	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", eventType, jsonData); err != nil {
		return err
	}

	if err := rc.Flush(); err != nil {
		return err
	}

	// Not every ResponseWriter supports deadlines.
	if err := rc.SetWriteDeadline(time.Now().Add(2 * h.heartbeatInterval)); err != nil {
		h.logger.Debug("failed to set write deadline", slog.String("error", err.Error()))
	}

	return nil
}
