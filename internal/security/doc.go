// Package security implements the capability-based policy engine that
// mediates every MCP tool invocation before it touches the filesystem,
// a subprocess, or the network.
//
// # Overview
//
// The engine is composed of five cooperating pieces, all driven by a
// single declarative SecurityPolicy:
//
//   - PathValidator: canonicalizes filesystem paths and enforces
//     allowlist/blocklist, extension, hidden-file, symlink, and
//     operation rules (CWE-22).
//   - InputSanitizer: detects SQL, command, path-traversal, and script
//     injection patterns in strings and recursively in JSON argument
//     trees (CWE-78, CWE-89, CWE-79).
//   - EnvVarSanitizer: filters environment variable maps before a
//     subprocess is spawned, dropping blocked and sensitive-looking
//     variables.
//   - AuditLogger: records security-relevant outcomes according to the
//     audit policy.
//   - RateLimiter: token-bucket enforcement of per-tool request limits.
//
// Validator composes them all. A tool-dispatch layer calls
// ValidateToolCall once per in-flight tool call:
//
//	v, err := security.NewValidator(security.Restrictive(), logger)
//	sctx := security.NewContext("fs-server", "read_file")
//	sanitized, err := v.ValidateToolCall(ctx, "read_file", args, sctx)
//
// On success the caller receives the sanitized argument tree; on
// failure the tool implementation is never invoked.
//
// # Precedence rules
//
// Blocklists win over allowlists at every decision point. An empty
// allowlist means "no allowlist restriction", not "deny all" — the
// blocklist and the remaining checks still apply.
//
// # Concurrency
//
// SecurityPolicy and its sub-policies are immutable after construction.
// A Validator is safe for concurrent use: all detection patterns are
// compiled once when the validator is built, and the only mutable state
// (the rate limiter's bucket map) is guarded by its own mutex.
//
// # Error handling
//
// Every rejection wraps one of the sentinel errors in errors.go, so
// callers can classify failures with errors.Is. Validation is fail-fast
// and fail-closed: the first violated rule aborts the whole call.
// Validators intentionally both log and return errors — security events
// need an audit trail and must still deny the operation; removing
// either side would create a gap.
package security
