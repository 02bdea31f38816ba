package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const (
	serverName    = "reminders"
	serverVersion = "1.0.0"
)

// MCPServer exposes the daemon's REST API as MCP tools, so scheduling stays
// in the daemon process.
type MCPServer struct {
	mcpServer   *server.MCPServer
	apiURL      string
	apiUsername string
	apiPassword string
	client      *http.Client
}

func NewMCPServer(apiURL, username, password string) *MCPServer {
	s := &MCPServer{
		apiURL:      strings.TrimRight(apiURL, "/"),
		apiUsername: username,
		apiPassword: password,
		client:      &http.Client{Timeout: 30 * time.Second},
	}

	s.mcpServer = server.NewMCPServer(
		serverName,
		serverVersion,
		server.WithToolCapabilities(false),
	)
	s.registerTools()
	return s
}

func (s *MCPServer) registerTools() {
	s.mcpServer.AddTool(
		mcp.NewTool("list_reminders",
			mcp.WithDescription("List all reminders in order, with their index, date labels and whether they are overdue"),
		),
		s.handleList,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("save_reminder",
			mcp.WithDescription("Create a reminder, or update the one at index. The notification is re-armed on every save"),
			mcp.WithNumber("index", mcp.Description("Index from list_reminders; omit to create")),
			mcp.WithString("title", mcp.Description("Title (required when creating)")),
			mcp.WithString("date", mcp.Description("When to fire: RFC3339 or 'YYYY-MM-DD HH:MM' in the daemon's timezone; must be in the future")),
			mcp.WithString("repeat", mcp.Description("Never, By the Minute, Hourly, Daily, Weekly, Monthly or Yearly")),
			mcp.WithNumber("minutes", mcp.Description("Interval for 'By the Minute'")),
			mcp.WithString("message", mcp.Description("Message announced when it fires; enables speaking")),
			mcp.WithBoolean("done", mcp.Description("Checkbox state")),
		),
		s.handleSave,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("delete_reminder",
			mcp.WithDescription("Delete the reminder at index and cancel its notification"),
			mcp.WithNumber("index", mcp.Required(), mcp.Description("Index from list_reminders")),
		),
		s.handleDelete,
	)
}

func (s *MCPServer) handleList(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.result(s.apiRequest(ctx, http.MethodGet, "/api/reminders", nil))
}

func (s *MCPServer) handleSave(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	body := map[string]interface{}{}

	for _, key := range []string{"title", "date", "repeat"} {
		if _, ok := args[key]; ok {
			body[key] = req.GetString(key, "")
		}
	}
	if _, ok := args["minutes"]; ok {
		body["minutes"] = req.GetInt("minutes", 1)
	}
	if _, ok := args["message"]; ok {
		msg := req.GetString("message", "")
		body["message"] = msg
		body["should_speak"] = msg != ""
	}
	if _, ok := args["done"]; ok {
		body["done"] = req.GetBool("done", false)
	}

	if _, ok := args["index"]; !ok {
		if _, ok := body["title"]; !ok {
			return mcp.NewToolResultError("title is required"), nil
		}
		return s.result(s.apiRequest(ctx, http.MethodPost, "/api/reminders", body))
	}

	index := req.GetInt("index", -1)
	if index < 0 {
		return mcp.NewToolResultError("index must be >= 0"), nil
	}
	return s.result(s.apiRequest(ctx, http.MethodPut, fmt.Sprintf("/api/reminder/%d", index), body))
}

func (s *MCPServer) handleDelete(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	index := req.GetInt("index", -1)
	if index < 0 {
		return mcp.NewToolResultError("index is required"), nil
	}
	return s.result(s.apiRequest(ctx, http.MethodDelete, fmt.Sprintf("/api/reminder/%d", index), nil))
}

func (s *MCPServer) result(text string, isError bool) (*mcp.CallToolResult, error) {
	if isError {
		return mcp.NewToolResultError(text), nil
	}
	return mcp.NewToolResultText(text), nil
}

func (s *MCPServer) apiRequest(ctx context.Context, method, path string, body interface{}) (string, bool) {
	url := s.apiURL + path

	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return fmt.Sprintf("Error encoding request: %v", err), true
		}
		reqBody = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return fmt.Sprintf("Error creating request: %v", err), true
	}

	req.SetBasicAuth(s.apiUsername, s.apiPassword)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Sprintf("Error making request: %v", err), true
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Sprintf("Error reading response: %v", err), true
	}

	var apiResp struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
		Error   string          `json:"error"`
	}

	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return strings.TrimSpace(string(respBody)), resp.StatusCode >= 400
	}

	if !apiResp.Success {
		return fmt.Sprintf("API Error: %s", apiResp.Error), true
	}

	// Pretty print the data
	var prettyData bytes.Buffer
	if err := json.Indent(&prettyData, apiResp.Data, "", "  "); err != nil {
		return string(apiResp.Data), false
	}

	return prettyData.String(), false
}
