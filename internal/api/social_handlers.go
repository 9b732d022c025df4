package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/popcornapp/popcorn-server/internal/domain"
)

func (s *Server) registerSocialRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listUsers",
		Method:      http.MethodGet,
		Path:        "/api/v1/users",
		Summary:     "List users",
		Description: "Returns every other user with whether the caller is connected to them",
		Tags:        []string{"Social"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListUsers)

	huma.Register(s.api, huma.Operation{
		OperationID: "getUser",
		Method:      http.MethodGet,
		Path:        "/api/v1/users/{userId}",
		Summary:     "Get user",
		Description: "Returns one user with whether the caller is connected to them",
		Tags:        []string{"Social"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetUser)

	huma.Register(s.api, huma.Operation{
		OperationID: "listConnections",
		Method:      http.MethodGet,
		Path:        "/api/v1/me/connections",
		Summary:     "List connections",
		Description: "Returns the ids of the users the caller is connected to",
		Tags:        []string{"Social"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListConnections)

	huma.Register(s.api, huma.Operation{
		OperationID: "connectUser",
		Method:      http.MethodPut,
		Path:        "/api/v1/me/connections/{userId}",
		Summary:     "Connect",
		Description: "Connects the caller to a user. Connecting twice keeps one connection",
		Tags:        []string{"Social"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleConnect)

	huma.Register(s.api, huma.Operation{
		OperationID: "disconnectUser",
		Method:      http.MethodDelete,
		Path:        "/api/v1/me/connections/{userId}",
		Summary:     "Disconnect",
		Description: "Removes the caller's connection to a user",
		Tags:        []string{"Social"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleDisconnect)
}

// === DTOs ===

// ListUsersInput contains parameters for the user list.
type ListUsersInput struct {
	Query string `query:"q" doc:"Case-insensitive username or name substring"`
}

// ListUsersResponse contains the user list.
type ListUsersResponse struct {
	Users []domain.UserSummary `json:"users" doc:"Other users"`
}

// ListUsersOutput wraps the user list for Huma.
type ListUsersOutput struct {
	Body ListUsersResponse
}

// UserOutput wraps one user for Huma.
type UserOutput struct {
	Body *domain.UserSummary
}

// ConnectionsResponse contains connected user ids.
type ConnectionsResponse struct {
	UserIDs []string `json:"user_ids" doc:"Connected user ids"`
}

// ConnectionsOutput wraps the connection list for Huma.
type ConnectionsOutput struct {
	Body ConnectionsResponse
}

// ConnectionInput identifies the other user of a connection.
type ConnectionInput struct {
	UserID string `path:"userId" doc:"Target user ID"`
}

// ConnectionResponse is the connection state after a change.
type ConnectionResponse struct {
	UserID    string `json:"user_id" doc:"Target user ID"`
	Connected bool   `json:"connected" doc:"Whether the caller is now connected"`
}

// ConnectionOutput wraps a connection state for Huma.
type ConnectionOutput struct {
	Body ConnectionResponse
}

// === Handlers ===

func (s *Server) handleListUsers(ctx context.Context, input *ListUsersInput) (*ListUsersOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	users, err := s.services.Social.ListUsers(ctx, userID, input.Query)
	if err != nil {
		return nil, err
	}
	return &ListUsersOutput{Body: ListUsersResponse{Users: users}}, nil
}

func (s *Server) handleGetUser(ctx context.Context, input *ConnectionInput) (*UserOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	user, err := s.services.Social.User(ctx, userID, input.UserID)
	if err != nil {
		return nil, err
	}
	return &UserOutput{Body: user}, nil
}

func (s *Server) handleListConnections(ctx context.Context, _ *struct{}) (*ConnectionsOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	ids, err := s.services.Social.Connections(ctx, userID)
	if err != nil {
		return nil, err
	}
	if ids == nil {
		ids = []string{}
	}
	return &ConnectionsOutput{Body: ConnectionsResponse{UserIDs: ids}}, nil
}

func (s *Server) handleConnect(ctx context.Context, input *ConnectionInput) (*ConnectionOutput, error) {
	return s.toggleConnection(ctx, input.UserID, false)
}

func (s *Server) handleDisconnect(ctx context.Context, input *ConnectionInput) (*ConnectionOutput, error) {
	return s.toggleConnection(ctx, input.UserID, true)
}

// toggleConnection flips the caller's connection from the state implied by the HTTP method.
func (s *Server) toggleConnection(ctx context.Context, targetID string, connected bool) (*ConnectionOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	now, err := s.services.Social.ToggleConnection(ctx, userID, targetID, connected)
	if err != nil {
		return nil, err
	}
	return &ConnectionOutput{Body: ConnectionResponse{UserID: targetID, Connected: now}}, nil
}
