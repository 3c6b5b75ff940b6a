package security

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/toolgate/toolgate/internal/log"
)

// shellNames are rejected as the command executable when the process
// policy disallows shells, even when the allowlist would pass them.
var shellNames = []string{"sh", "bash", "cmd", "powershell", "pwsh", "zsh", "fish"}

// Validator applies a complete SecurityPolicy to tool calls. It
// composes the path validator, input sanitizer, environment sanitizer,
// audit logger, and rate limiter, and is safe for concurrent use.
type Validator struct {
	policy      SecurityPolicy
	pathVal     *PathValidator
	sanitizer   *InputSanitizer
	envSan      *EnvVarSanitizer
	audit       *AuditLogger
	limiter     *RateLimiter
	logger      log.Logger
	blockedURLs []*regexp.Regexp
	allowedURLs []*regexp.Regexp
	allowedArgs []*regexp.Regexp
	blockedArgs []*regexp.Regexp
}

// NewValidator creates a validator for the given policy. All regex
// patterns carried by the policy are compiled here, once; an invalid
// pattern is a configuration error, not a runtime one.
func NewValidator(policy SecurityPolicy, logger log.Logger) (*Validator, error) {
	if logger == nil {
		logger = slog.Default()
	}

	blockedURLs, err := compilePatterns(policy.Network.BlockedURLs)
	if err != nil {
		return nil, fmt.Errorf("network.blocked_urls: %w", err)
	}
	allowedURLs, err := compilePatterns(policy.Network.AllowedURLs)
	if err != nil {
		return nil, fmt.Errorf("network.allowed_urls: %w", err)
	}
	blockedArgs, err := compilePatterns(policy.Process.BlockedArgsPatterns)
	if err != nil {
		return nil, fmt.Errorf("process.blocked_args_patterns: %w", err)
	}
	allowedArgs, err := compilePatterns(policy.Process.AllowedArgsPatterns)
	if err != nil {
		return nil, fmt.Errorf("process.allowed_args_patterns: %w", err)
	}

	return &Validator{
		policy:      policy,
		pathVal:     NewPathValidator(policy.Filesystem),
		sanitizer:   NewInputSanitizer(),
		envSan:      NewEnvVarSanitizer(policy.Environment, logger),
		audit:       NewAuditLogger(policy.Audit, logger),
		limiter:     NewRateLimiter(policy.RateLimits),
		logger:      logger,
		blockedURLs: blockedURLs,
		allowedURLs: allowedURLs,
		blockedArgs: blockedArgs,
		allowedArgs: allowedArgs,
	}, nil
}

// Policy returns the policy this validator enforces.
func (v *Validator) Policy() SecurityPolicy {
	return v.policy
}

// ValidateToolCall validates and sanitizes one tool call. On success it
// returns the sanitized argument tree; on failure the tool must not be
// executed. Every outcome is offered to the audit logger.
func (v *Validator) ValidateToolCall(ctx context.Context, toolName string, arguments any, sctx *Context) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if sctx == nil {
		sctx = NewContext("", toolName)
	}

	if err := v.limiter.Allow(sctx.ServerID, toolName); err != nil {
		v.audit.LogOperation(sctx, toolName, arguments, err)
		return nil, err
	}

	inputCtx := ClassifyInput(toolName)

	sanitized, err := v.sanitizer.SanitizeJSON(arguments, inputCtx)
	if err != nil {
		v.audit.LogOperation(sctx, toolName, nil, err)
		return nil, err
	}

	switch ClassifyTool(toolName) {
	case CategoryFilesystem:
		err = v.validateFilesystemTool(sanitized)
	case CategoryProcess:
		err = v.validateProcessTool(sanitized)
	case CategoryNetwork:
		err = v.validateNetworkTool(sanitized)
	case CategoryUnknown:
		if v.policy.StrictMode {
			v.logger.Warn("unclassified tool in strict mode",
				"tool", toolName,
				"security_event", "unclassified_tool")
		}
	}

	v.audit.LogOperation(sctx, toolName, sanitized, err)
	if err != nil {
		return nil, err
	}

	return sanitized, nil
}

// SanitizeEnvironment filters an environment map for safe subprocess
// spawning. Exposed for the collaborator that actually spawns
// processes.
func (v *Validator) SanitizeEnvironment(env map[string]string) map[string]string {
	return v.envSan.SanitizeEnvVars(env)
}

// ValidatePath exposes the underlying path validator for tool
// implementations that validate paths outside a full tool call.
func (v *Validator) ValidatePath(path string, op FileOperation) (string, error) {
	return v.pathVal.ValidatePath(path, op)
}

// ValidateFileSize checks a file size against the filesystem policy.
func (v *Validator) ValidateFileSize(size int64) error {
	return v.pathVal.ValidateFileSize(size)
}

// ClassifyInput selects the injection-detection context for a tool by
// name. First match wins.
func ClassifyInput(toolName string) InputContext {
	switch {
	case strings.Contains(toolName, "file") || strings.Contains(toolName, "path"):
		return ContextFilePath
	case strings.Contains(toolName, "exec") || strings.Contains(toolName, "command"):
		return ContextCommand
	case strings.Contains(toolName, "sql") || strings.Contains(toolName, "query"):
		return ContextSQLQuery
	case strings.Contains(toolName, "url") || strings.Contains(toolName, "http"):
		return ContextWebURL
	default:
		return ContextGeneric
	}
}

// ClassifyTool maps a tool name to the category-specific check it
// receives. This is the single classification point; the dispatch in
// ValidateToolCall is total over the returned category.
func ClassifyTool(toolName string) ToolCategory {
	switch {
	case strings.Contains(toolName, "file") ||
		strings.Contains(toolName, "read") ||
		strings.Contains(toolName, "write"):
		return CategoryFilesystem
	case strings.Contains(toolName, "exec") ||
		strings.Contains(toolName, "run") ||
		strings.Contains(toolName, "command"):
		return CategoryProcess
	case strings.Contains(toolName, "http") ||
		strings.Contains(toolName, "fetch") ||
		strings.Contains(toolName, "url"):
		return CategoryNetwork
	default:
		return CategoryUnknown
	}
}

// validateFilesystemTool finds a path-like argument and validates it.
// The operation is inferred from the argument shape: "write"/"content"
// keys imply a write, "delete" implies a delete, anything else reads.
func (v *Validator) validateFilesystemTool(arguments any) error {
	args, ok := arguments.(map[string]any)
	if !ok {
		return nil
	}

	path, ok := stringArg(args, "path", "file", "filename")
	if !ok {
		return nil
	}

	op := OpRead
	if _, w := args["write"]; w {
		op = OpWrite
	} else if _, c := args["content"]; c {
		op = OpWrite
	} else if _, d := args["delete"]; d {
		op = OpDelete
	}

	_, err := v.pathVal.ValidatePath(path, op)
	return err
}

// validateProcessTool finds a command-like argument and enforces the
// process policy: blocked substrings, the allowlist, shell denial, and
// the argument constraints.
func (v *Validator) validateProcessTool(arguments any) error {
	args, ok := arguments.(map[string]any)
	if !ok {
		return nil
	}

	command, ok := stringArg(args, "command", "cmd")
	if !ok {
		return nil
	}

	for _, blocked := range v.policy.Process.BlockedCommands {
		if strings.Contains(command, blocked) {
			return fmt.Errorf("%w: %q matches %q", ErrCommandBlocked, command, blocked)
		}
	}

	if len(v.policy.Process.AllowedCommands) > 0 {
		allowed := false
		for _, a := range v.policy.Process.AllowedCommands {
			if command == a || strings.HasPrefix(command, a+" ") {
				allowed = true
				break
			}
		}
		if !allowed {
			return fmt.Errorf("%w: %q", ErrCommandNotAllowed, command)
		}
	}

	fields := strings.Fields(command)

	// The shell gate applies even to allowlisted commands: "bash -c"
	// must fail when shells are denied, no matter what the allowlist
	// says.
	if !v.policy.Process.AllowShell && len(fields) > 0 {
		executable := strings.ToLower(filepath.Base(fields[0]))
		if slices.Contains(shellNames, executable) {
			return fmt.Errorf("%w: %q", ErrShellExecution, command)
		}
	}

	return v.validateCommandArgs(fields)
}

func (v *Validator) validateCommandArgs(fields []string) error {
	if len(fields) == 0 {
		return nil
	}
	cmdArgs := fields[1:]

	if v.policy.Process.MaxArgs > 0 && len(cmdArgs) > v.policy.Process.MaxArgs {
		return fmt.Errorf("%w: %d > %d", ErrTooManyArgs, len(cmdArgs), v.policy.Process.MaxArgs)
	}

	for _, arg := range cmdArgs {
		if v.policy.Process.MaxArgLength > 0 && len(arg) > v.policy.Process.MaxArgLength {
			return fmt.Errorf("%w: %d > %d bytes", ErrArgTooLong, len(arg), v.policy.Process.MaxArgLength)
		}
		for _, p := range v.blockedArgs {
			if p.MatchString(arg) {
				return fmt.Errorf("%w: %q", ErrArgBlocked, arg)
			}
		}
		if len(v.allowedArgs) > 0 {
			matched := false
			for _, p := range v.allowedArgs {
				if p.MatchString(arg) {
					matched = true
					break
				}
			}
			if !matched {
				return fmt.Errorf("%w: %q", ErrArgBlocked, arg)
			}
		}
	}

	return nil
}

// validateNetworkTool finds a URL-like argument and enforces the
// network policy.
func (v *Validator) validateNetworkTool(arguments any) error {
	args, ok := arguments.(map[string]any)
	if !ok {
		return nil
	}

	rawURL, ok := stringArg(args, "url", "uri", "endpoint")
	if !ok {
		return nil
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("%w: %q", ErrInvalidURL, rawURL)
	}

	scheme := strings.ToLower(parsed.Scheme)
	if len(v.policy.Network.AllowedProtocols) > 0 {
		allowed := false
		for _, p := range v.policy.Network.AllowedProtocols {
			if strings.EqualFold(p, scheme) {
				allowed = true
				break
			}
		}
		if !allowed {
			return fmt.Errorf("%w: %q", ErrProtocolNotAllowed, scheme)
		}
	}

	host := strings.ToLower(parsed.Hostname())

	if v.policy.Network.BlockPrivateIPs && isPrivateHost(host) {
		return fmt.Errorf("%w: %q", ErrPrivateNetwork, host)
	}

	if v.policy.Network.BlockLoopback && isLoopbackHost(host) {
		return fmt.Errorf("%w: %q", ErrLoopback, host)
	}

	if port := parsed.Port(); port != "" && v.policy.Network.AllowedPorts != nil {
		n, perr := strconv.Atoi(port)
		if perr != nil || !slices.Contains(v.policy.Network.AllowedPorts, n) {
			return fmt.Errorf("%w: %s", ErrPortNotAllowed, port)
		}
	}

	for _, p := range v.blockedURLs {
		if p.MatchString(rawURL) {
			return fmt.Errorf("%w: %q", ErrURLBlocked, rawURL)
		}
	}

	if len(v.allowedURLs) > 0 {
		matched := false
		for _, p := range v.allowedURLs {
			if p.MatchString(rawURL) {
				matched = true
				break
			}
		}
		if !matched {
			return fmt.Errorf("%w: %q", ErrURLNotAllowed, rawURL)
		}
	}

	return nil
}

// isPrivateHost reports whether host names a private network target:
// RFC 1918 ranges, *.local, or localhost.
func isPrivateHost(host string) bool {
	return strings.HasPrefix(host, "10.") ||
		strings.HasPrefix(host, "172.") ||
		strings.HasPrefix(host, "192.168.") ||
		strings.HasPrefix(host, "127.") ||
		strings.HasSuffix(host, ".local") ||
		host == "localhost"
}

// isLoopbackHost reports whether host names a loopback target.
func isLoopbackHost(host string) bool {
	return host == "localhost" ||
		host == "127.0.0.1" ||
		host == "::1" ||
		strings.HasPrefix(host, "127.")
}

// stringArg returns the first string value found under any of the
// given keys.
func stringArg(args map[string]any, keys ...string) (string, bool) {
	for _, key := range keys {
		if v, ok := args[key].(string); ok {
			return v, true
		}
	}
	return "", false
}

func compilePatterns(patterns []string) ([]*regexp.Regexp, error) {
	if len(patterns) == 0 {
		return nil, nil
	}
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("compiling pattern %q: %w", p, err)
		}
		compiled = append(compiled, re)
	}
	return compiled, nil
}
