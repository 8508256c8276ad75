package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kalambet/innervoice/internal/profile"
	"github.com/kalambet/innervoice/internal/reflection"
)

// MCPDeps holds dependencies for the MCP server.
type MCPDeps struct {
	Reflector *reflection.Reflector
	Store     profile.Store
}

// NewMCPServer creates an MCP server with the reflection tools and
// resources registered.
func NewMCPServer(deps MCPDeps) *server.MCPServer {
	s := server.NewMCPServer(
		"innervoice",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithInstructions("innervoice — personalized AI reflection companion with mood-aware responses."),
		server.WithRecovery(),
	)

	s.AddTool(
		mcp.NewTool("create_profile",
			mcp.WithDescription("Create a reflection profile from personality setup answers."),
			mcp.WithString("name", mcp.Description("Display name for the profile"), mcp.Required()),
			mcp.WithArray("traits", mcp.Description("Personality traits")),
			mcp.WithString("communication_style", mcp.Description("Preferred communication style")),
			mcp.WithArray("interests", mcp.Description("Topics of interest")),
			mcp.WithArray("goals", mcp.Description("Personal goals")),
			mcp.WithString("support_style", mcp.Description("Preferred support style")),
		),
		mcpCreateProfile(deps),
	)

	s.AddTool(
		mcp.NewTool("reflect",
			mcp.WithDescription("Send a message to a reflection profile and get a mood-aware reply."),
			mcp.WithString("profile_id", mcp.Description("Profile identifier"), mcp.Required()),
			mcp.WithString("message", mcp.Description("The user's message"), mcp.Required()),
		),
		mcpReflect(deps),
	)

	s.AddTool(
		mcp.NewTool("list_profiles",
			mcp.WithDescription("List all stored reflection profiles."),
		),
		mcpListProfiles(deps),
	)

	s.AddResource(
		mcp.NewResource(
			"reflection://profiles",
			"Reflection Profiles",
			mcp.WithResourceDescription("All stored profile summaries as JSON"),
			mcp.WithMIMEType("application/json"),
		),
		mcpResourceProfiles(deps),
	)

	return s
}

func mcpCreateProfile(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		name, err := req.RequireString("name")
		if err != nil {
			return mcpError("name is required"), nil
		}

		userData := map[string]any{"name": name}
		if traits := req.GetStringSlice("traits", nil); len(traits) > 0 {
			userData["personalityTraits"] = anySlice(traits)
		}
		if style := req.GetString("communication_style", ""); style != "" {
			userData["communicationStyle"] = style
		}
		if interests := req.GetStringSlice("interests", nil); len(interests) > 0 {
			userData["interests"] = anySlice(interests)
		}
		if goals := req.GetStringSlice("goals", nil); len(goals) > 0 {
			userData["goals"] = anySlice(goals)
		}
		if support := req.GetString("support_style", ""); support != "" {
			userData["supportStyle"] = support
		}

		p, err := deps.Reflector.CreateProfile(userData)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to create profile: %v", err)), nil
		}

		b, err := json.Marshal(map[string]any{
			"id":        p.ID,
			"name":      p.Name,
			"traits":    p.PersonalityTraits,
			"createdAt": p.CreatedAt,
		})
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal profile: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpReflect(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		profileID, err := req.RequireString("profile_id")
		if err != nil {
			return mcpError("profile_id is required"), nil
		}
		message, err := req.RequireString("message")
		if err != nil {
			return mcpError("message is required"), nil
		}

		result, err := deps.Reflector.Respond(ctx, profileID, message)
		if err != nil {
			if errors.Is(err, profile.ErrNotFound) {
				return mcpError("profile not found"), nil
			}
			return mcpError(fmt.Sprintf("reflection failed: %v", err)), nil
		}

		b, err := json.Marshal(map[string]any{
			"response":          result.Reply,
			"mood":              string(result.Mood),
			"conversationCount": result.ConversationCount,
			"suggestions":       result.Suggestions,
			"needsSupport":      result.NeedsSupport,
		})
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal result: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpListProfiles(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		summaries, err := deps.Store.List()
		if err != nil {
			return mcpError(fmt.Sprintf("failed to list profiles: %v", err)), nil
		}
		if len(summaries) == 0 {
			return mcpText("[]"), nil
		}

		b, err := json.Marshal(summaries)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal profiles: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpResourceProfiles(deps MCPDeps) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		summaries, err := deps.Store.List()
		if err != nil {
			return nil, fmt.Errorf("failed to list profiles: %w", err)
		}

		b, err := json.Marshal(summaries)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal profiles: %w", err)
		}

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     string(b),
			},
		}, nil
	}
}

func anySlice(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

func mcpText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func mcpError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
