// Package api provides the HTTP surface: health, question answering, and the
// MCP tool endpoint.
package api

// Config is the API server configuration.
type Config struct {
	// ListenAddr is the address to listen on (e.g., ":8080")
	ListenAddr string
}
