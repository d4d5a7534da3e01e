// Package logging configures structured slog output for the tanach CLI and MCP server.
// File logs rotate by size under ~/.tanach/logs/. In MCP mode nothing is written to
// stdout or stderr, since stdout carries the JSON-RPC stream.
package logging
