// Command mcp serves the reminders daemon's REST API over MCP (stdio).
//
// Environment:
//
//	REMINDERS_API_URL       daemon base URL (default: http://localhost:8080)
//	REMINDERS_API_USERNAME  Basic Auth user, same as the daemon's api_username
//	REMINDERS_API_PASSWORD  Basic Auth password
package main

import (
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/server"
)

func main() {
	apiURL := os.Getenv("REMINDERS_API_URL")
	if apiURL == "" {
		apiURL = "http://localhost:8080"
	}

	s := NewMCPServer(apiURL, os.Getenv("REMINDERS_API_USERNAME"), os.Getenv("REMINDERS_API_PASSWORD"))

	if err := server.ServeStdio(s.mcpServer); err != nil {
		fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
		os.Exit(1)
	}
}
