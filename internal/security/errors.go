package security

import "errors"

// Sentinel errors for every rejection kind the engine can produce.
// Callers classify failures with errors.Is; messages carry the detail.
var (
	// Path validation.
	ErrPathTraversal         = errors.New("path traversal attempt detected")
	ErrPathNotAbsolute       = errors.New("only absolute paths are allowed")
	ErrPathBlocked           = errors.New("path is explicitly blocked")
	ErrPathNotAllowed        = errors.New("path is not in allowed directories")
	ErrExtensionBlocked      = errors.New("file extension is blocked")
	ErrExtensionNotAllowed   = errors.New("file extension is not allowed")
	ErrHiddenFile            = errors.New("hidden files are not allowed")
	ErrSymlink               = errors.New("symbolic links are not allowed")
	ErrOperationNotPermitted = errors.New("operation is not permitted")
	ErrFileTooLarge          = errors.New("file size exceeds maximum")

	// Input sanitization.
	ErrSQLInjection     = errors.New("SQL injection pattern detected")
	ErrCommandInjection = errors.New("command injection pattern detected")
	ErrPathInjection    = errors.New("path traversal pattern detected")
	ErrScriptInjection  = errors.New("script injection pattern detected")
	ErrInvalidJSONKey   = errors.New("invalid object key")
	ErrInputTooLong     = errors.New("input exceeds maximum length")

	// Process validation.
	ErrCommandBlocked    = errors.New("command is explicitly blocked")
	ErrCommandNotAllowed = errors.New("command is not in allowlist")
	ErrShellExecution    = errors.New("shell execution is not allowed")
	ErrTooManyArgs       = errors.New("too many command arguments")
	ErrArgTooLong        = errors.New("command argument too long")
	ErrArgBlocked        = errors.New("command argument matches blocked pattern")

	// Network validation.
	ErrInvalidURL         = errors.New("invalid URL")
	ErrProtocolNotAllowed = errors.New("protocol is not allowed")
	ErrPrivateNetwork     = errors.New("access to private networks is blocked")
	ErrLoopback           = errors.New("access to loopback addresses is blocked")
	ErrURLBlocked         = errors.New("URL matches blocked pattern")
	ErrURLNotAllowed      = errors.New("URL does not match any allowed pattern")
	ErrPortNotAllowed     = errors.New("port is not allowed")

	// Rate limiting.
	ErrRateLimited = errors.New("rate limit exceeded")
)
