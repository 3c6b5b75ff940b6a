package security

import (
	"time"

	"github.com/google/uuid"
)

// Context carries the identity of a single tool call for auditing. It
// is created by the caller, passed through validation, and discarded;
// the engine never stores it.
type Context struct {
	ServerID    string
	ToolName    string
	OperationID string
	Timestamp   time.Time
	UserContext string
}

// NewContext creates a Context for one tool call, stamping the current
// time and a fresh operation ID.
func NewContext(serverID, toolName string) *Context {
	return &Context{
		ServerID:    serverID,
		ToolName:    toolName,
		OperationID: uuid.NewString(),
		Timestamp:   time.Now(),
	}
}

// FileOperation classifies a filesystem access for permission checks.
type FileOperation int

const (
	OpRead FileOperation = iota
	OpWrite
	OpDelete
	OpList
)

// String returns the operation name for logs and errors.
func (op FileOperation) String() string {
	switch op {
	case OpRead:
		return "read"
	case OpWrite:
		return "write"
	case OpDelete:
		return "delete"
	case OpList:
		return "list"
	default:
		return "unknown"
	}
}

// InputContext selects which injection detectors apply to a string.
type InputContext int

const (
	ContextGeneric InputContext = iota
	ContextFilePath
	ContextCommand
	ContextSQLQuery
	ContextWebURL
)

// String returns the context name for logs and errors.
func (c InputContext) String() string {
	switch c {
	case ContextFilePath:
		return "file_path"
	case ContextCommand:
		return "command"
	case ContextSQLQuery:
		return "sql_query"
	case ContextWebURL:
		return "web_url"
	default:
		return "generic"
	}
}

// ToolCategory is the dispatch target for category-specific checks.
// ClassifyTool is the single place that produces one.
type ToolCategory int

const (
	CategoryUnknown ToolCategory = iota
	CategoryFilesystem
	CategoryProcess
	CategoryNetwork
)

// String returns the category name for logs.
func (c ToolCategory) String() string {
	switch c {
	case CategoryFilesystem:
		return "filesystem"
	case CategoryProcess:
		return "process"
	case CategoryNetwork:
		return "network"
	default:
		return "unknown"
	}
}
