package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/toolgate/toolgate/internal/log"
	"github.com/toolgate/toolgate/internal/security"
)

// methodCallTool is the JSON-RPC method name for tool invocations.
const methodCallTool = "tools/call"

// Guard returns a receiving middleware that validates every tools/call
// request against the policy before the tool handler executes.
//
// On rejection the middleware returns a tool-call error result carrying
// the rejection reason; the underlying tool is never invoked. On
// success the request's arguments are replaced with the sanitized tree.
// Non-tool methods pass through untouched.
func Guard(validator *security.Validator, serverID string, logger log.Logger) sdk.Middleware {
	if logger == nil {
		logger = slog.Default()
	}

	return func(next sdk.MethodHandler) sdk.MethodHandler {
		return func(ctx context.Context, method string, req sdk.Request) (sdk.Result, error) {
			if method != methodCallTool {
				return next(ctx, method, req)
			}

			call, ok := req.(*sdk.CallToolRequest)
			if !ok || call.Params == nil {
				return next(ctx, method, req)
			}

			toolName := call.Params.Name

			arguments, err := decodeArguments(call.Params.Arguments)
			if err != nil {
				logger.Warn("malformed tool arguments",
					"tool", toolName,
					"error", err,
					"security_event", "malformed_arguments")
				return rejection(fmt.Errorf("decoding arguments: %w", err)), nil
			}

			sctx := security.NewContext(serverID, toolName)
			sanitized, err := validator.ValidateToolCall(ctx, toolName, arguments, sctx)
			if err != nil {
				return rejection(err), nil
			}

			// Hand the sanitized tree to the tool handler in wire form.
			data, err := json.Marshal(sanitized)
			if err != nil {
				return rejection(fmt.Errorf("encoding sanitized arguments: %w", err)), nil
			}
			call.Params.Arguments = json.RawMessage(data)

			return next(ctx, method, req)
		}
	}
}

// rejection builds the tool-call error result surfaced to the client.
func rejection(err error) *sdk.CallToolResult {
	return &sdk.CallToolResult{
		IsError: true,
		Content: []sdk.Content{
			&sdk.TextContent{Text: fmt.Sprintf("security policy rejection: %v", err)},
		},
	}
}

// decodeArguments normalizes the SDK's argument representation to a
// decoded JSON tree. The SDK hands middleware a json.RawMessage; a
// pre-decoded map appears when the request was constructed in-process
// (tests, embedding).
func decodeArguments(arguments any) (any, error) {
	switch a := arguments.(type) {
	case nil:
		return nil, nil
	case json.RawMessage:
		if len(a) == 0 {
			return nil, nil
		}
		var decoded any
		if err := json.Unmarshal(a, &decoded); err != nil {
			return nil, err
		}
		return decoded, nil
	case map[string]any:
		return a, nil
	default:
		// Arbitrary Go values round-trip through JSON so the sanitizer
		// sees the same shape the wire would carry.
		data, err := json.Marshal(a)
		if err != nil {
			return nil, err
		}
		var decoded any
		if err := json.Unmarshal(data, &decoded); err != nil {
			return nil, err
		}
		return decoded, nil
	}
}
