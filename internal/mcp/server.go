package mcp

import (
	"context"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/toolgate/toolgate/internal/log"
	"github.com/toolgate/toolgate/internal/security"
)

// Server wraps an MCP SDK server with the security guard installed.
// Tool implementations register through the embedded SDK server; every
// call they receive has already passed validation.
type Server struct {
	mcpServer *sdk.Server
	validator *security.Validator
	name      string
	version   string
}

// Config holds guarded server configuration.
type Config struct {
	// Name and Version identify the server implementation to clients.
	Name    string
	Version string

	// ServerID keys audit log lines and rate-limit buckets.
	ServerID string

	// Policy is the security policy to enforce.
	Policy security.SecurityPolicy

	// Logger receives audit and security event logs.
	Logger log.Logger
}

// NewServer creates a guarded MCP server.
func NewServer(cfg Config) (*Server, error) {
	if cfg.Name == "" {
		return nil, fmt.Errorf("server name is required")
	}
	if cfg.Version == "" {
		return nil, fmt.Errorf("server version is required")
	}
	if cfg.ServerID == "" {
		cfg.ServerID = cfg.Name
	}

	validator, err := security.NewValidator(cfg.Policy, cfg.Logger)
	if err != nil {
		return nil, fmt.Errorf("creating validator: %w", err)
	}

	mcpServer := sdk.NewServer(&sdk.Implementation{
		Name:    cfg.Name,
		Version: cfg.Version,
	}, nil)

	mcpServer.AddReceivingMiddleware(Guard(validator, cfg.ServerID, cfg.Logger))

	s := &Server{
		mcpServer: mcpServer,
		validator: validator,
		name:      cfg.Name,
		version:   cfg.Version,
	}

	if err := s.registerEcho(); err != nil {
		return nil, fmt.Errorf("registering echo tool: %w", err)
	}

	return s, nil
}

// Validator returns the validator enforcing this server's policy.
// The subprocess-spawning collaborator uses it for SanitizeEnvironment.
func (s *Server) Validator() *security.Validator {
	return s.validator
}

// SDK returns the underlying SDK server for tool registration.
func (s *Server) SDK() *sdk.Server {
	return s.mcpServer
}

// Run serves MCP on the given transport until ctx is canceled. This is
// a blocking call.
func (s *Server) Run(ctx context.Context, transport sdk.Transport) error {
	return s.mcpServer.Run(ctx, transport)
}

// EchoInput defines the input schema for the echo tool.
type EchoInput struct {
	Text string `json:"text" jsonschema:"The text to echo back"`
}

// registerEcho registers the built-in echo tool. It exists so a bare
// toolgate server has one tool to exercise the guard end to end; real
// deployments register their own tools via SDK().
func (s *Server) registerEcho() error {
	schema, err := jsonschema.For[EchoInput](nil)
	if err != nil {
		return fmt.Errorf("creating input schema: %w", err)
	}

	tool := &sdk.Tool{
		Name:        "echo",
		Description: "Echo the given text back. Arguments pass through the full security pipeline first.",
		InputSchema: schema,
	}

	sdk.AddTool(s.mcpServer, tool, func(ctx context.Context, req *sdk.CallToolRequest, in EchoInput) (*sdk.CallToolResult, any, error) {
		return &sdk.CallToolResult{
			Content: []sdk.Content{&sdk.TextContent{Text: in.Text}},
		}, nil, nil
	})

	return nil
}
