package security

import (
	"encoding/json"
	"log/slog"

	"github.com/toolgate/toolgate/internal/log"
)

// AuditLogger records security-relevant outcomes according to the audit
// policy. Logging is best-effort and never affects the validation
// result: a failure to render arguments degrades to a placeholder.
type AuditLogger struct {
	policy AuditPolicy
	logger log.Logger
}

// NewAuditLogger creates an audit logger writing through the given
// slog logger.
func NewAuditLogger(policy AuditPolicy, logger log.Logger) *AuditLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditLogger{policy: policy, logger: logger}
}

// LogOperation records the outcome of one validated operation.
// Successes are logged when LogAllOperations is set, failures when
// LogFailures is set. Arguments are redacted unless IncludeArguments
// is set.
func (a *AuditLogger) LogOperation(sctx *Context, operation string, arguments any, callErr error) {
	shouldLog := a.policy.LogAllOperations
	if callErr != nil {
		shouldLog = a.policy.LogFailures
	}
	if !shouldLog {
		return
	}

	var serverID, operationID string
	if sctx != nil {
		serverID = sctx.ServerID
		operationID = sctx.OperationID
	}

	attrs := []any{
		"server", serverID,
		"tool", operation,
		"operation", operationID,
		"args", a.renderArguments(arguments),
	}

	if callErr != nil {
		attrs = append(attrs, "status", "FAILED", "error", callErr.Error())
		a.logger.Warn("security audit", attrs...)
		return
	}

	attrs = append(attrs, "status", "SUCCESS")
	a.logger.Info("security audit", attrs...)
}

func (a *AuditLogger) renderArguments(arguments any) string {
	if !a.policy.IncludeArguments {
		return "REDACTED"
	}
	if arguments == nil {
		return "N/A"
	}
	data, err := json.Marshal(arguments)
	if err != nil {
		return "N/A"
	}
	return string(data)
}
