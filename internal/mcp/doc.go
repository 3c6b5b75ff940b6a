// Package mcp integrates the security policy engine with the official
// MCP Go SDK.
//
// The core of the package is Guard, a receiving middleware that
// intercepts every tools/call request before the tool handler runs:
//
//	server := mcp.NewServer(&mcpsdk.Implementation{...}, nil)
//	server.AddReceivingMiddleware(mcp.Guard(validator, "my-server", logger))
//
// A rejected call never reaches the tool implementation; the client
// receives the rejection reason as a tool-call error result. A
// permitted call proceeds with the sanitized argument tree in place of
// the original one.
//
// Server is a convenience wrapper that owns a validator, installs the
// guard, and serves over any SDK transport (toolgate uses stdio).
package mcp
