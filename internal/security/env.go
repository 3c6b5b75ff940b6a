package security

import (
	"log/slog"
	"regexp"
	"slices"
	"strings"

	"github.com/toolgate/toolgate/internal/log"
)

// sensitiveEnvPattern flags variable names that look like credentials.
var sensitiveEnvPattern = regexp.MustCompile(
	`(?i)(pass|pwd|key|token|secret|api|auth|credential|private)`)

// EnvVarSanitizer filters environment variable maps before a subprocess
// is spawned. It is a pure filter: it never errors, it only drops or
// scrubs entries.
type EnvVarSanitizer struct {
	policy EnvironmentPolicy
	logger log.Logger
}

// NewEnvVarSanitizer creates an environment sanitizer.
func NewEnvVarSanitizer(policy EnvironmentPolicy, logger log.Logger) *EnvVarSanitizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &EnvVarSanitizer{policy: policy, logger: logger}
}

// SanitizeEnvVars returns a filtered copy of env.
//
// Per key, in order: drop if blocked; drop unless allowlisted when
// passthrough is off; drop if the name looks sensitive and is not
// explicitly allowlisted; scrub the value if the key is listed in
// SanitizeVars.
func (s *EnvVarSanitizer) SanitizeEnvVars(env map[string]string) map[string]string {
	sanitized := make(map[string]string, len(env))

	for key, value := range env {
		if slices.Contains(s.policy.BlockedVars, key) {
			s.logger.Info("blocking environment variable",
				"var", key,
				"security_event", "env_var_blocked")
			continue
		}

		explicitlyAllowed := slices.Contains(s.policy.AllowedVars, key)

		if !s.policy.AllowPassthrough && !explicitlyAllowed {
			continue
		}

		if sensitiveEnvPattern.MatchString(key) && !explicitlyAllowed {
			s.logger.Warn("filtering sensitive environment variable",
				"var", key,
				"security_event", "sensitive_env_filtered")
			continue
		}

		if slices.Contains(s.policy.SanitizeVars, key) {
			value = scrubEnvValue(value)
		}

		sanitized[key] = value
	}

	return sanitized
}

// scrubEnvValue keeps only characters safe to pass into a subprocess
// environment: alphanumerics, underscore, dot, dash, and slash.
func scrubEnvValue(value string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '_', r == '.', r == '-', r == '/':
			return r
		default:
			return -1
		}
	}, value)
}
