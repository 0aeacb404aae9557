package resources

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/auraflow/internal/history"
	"github.com/teemow/auraflow/internal/prompt"
)

const (
	ProfileURI = "user://profile"
	HistoryURI = "user://history"

	// HistoryEntries is how many exchanges the history resource returns.
	HistoryEntries = 20
)

// UserResources serves resources for the single user an MCP session acts for.
type UserResources struct {
	User    prompt.UserContext
	History history.Store
	// Authorized reports whether the user has a stored Google token. May be nil.
	Authorized func(userID string) bool

	now func() time.Time
}

// RegisterUserResources registers the profile and history resources on s.
func RegisterUserResources(s *mcpserver.MCPServer, r *UserResources) {
	profileResource := mcp.NewResource(
		ProfileURI,
		"Current User Profile",
		mcp.WithResourceDescription("The user the tools act for, with their time zone and local time"),
		mcp.WithMIMEType("application/json"),
	)
	s.AddResource(profileResource, r.handleUserProfile)

	historyResource := mcp.NewResource(
		HistoryURI,
		"Chat History",
		mcp.WithResourceDescription(fmt.Sprintf("The user's last %d assistant exchanges, oldest first", HistoryEntries)),
		mcp.WithMIMEType("application/json"),
	)
	s.AddResource(historyResource, r.handleHistory)
}

type profile struct {
	ID               string `json:"id"`
	Name             string `json:"name,omitempty"`
	Email            string `json:"email,omitempty"`
	TimeZone         string `json:"timezone"`
	LocalTime        string `json:"localTime"`
	GoogleAuthorized bool   `json:"googleAuthorized"`
}

func (r *UserResources) clock() time.Time {
	if r.now != nil {
		return r.now()
	}
	return time.Now()
}

func (r *UserResources) handleUserProfile(_ context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	loc := r.User.Location()
	p := profile{
		ID:        r.User.ID,
		Name:      r.User.Name,
		Email:     r.User.Email,
		TimeZone:  loc.String(),
		LocalTime: r.clock().In(loc).Format(time.RFC3339),
	}
	if r.Authorized != nil {
		p.GoogleAuthorized = r.Authorized(r.User.ID)
	}
	return jsonContents(request.Params.URI, p)
}

func (r *UserResources) handleHistory(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	past, err := r.History.Recent(ctx, r.User.ID, HistoryEntries)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	if past == nil {
		past = []history.Exchange{}
	}
	return jsonContents(request.Params.URI, past)
}

func jsonContents(uri string, v any) ([]mcp.ResourceContents, error) {
	jsonData, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal resource: %w", err)
	}
	return []mcp.ResourceContents{
		&mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(jsonData),
		},
	}, nil
}
