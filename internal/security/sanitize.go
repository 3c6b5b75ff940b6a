package security

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

// Detection patterns are fixed, so they are compiled once at package
// init instead of living in a per-validator cache.
var (
	sqlInjectionPattern = regexp.MustCompile(
		`(?i)(\b(SELECT|INSERT|UPDATE|DELETE|DROP|UNION|CREATE|ALTER|EXEC|EXECUTE|GRANT|REVOKE)\b|--|/\*|\*/|xp_|sp_)`)

	commandInjectionPattern = regexp.MustCompile(
		"[;&|`$()<>{}\\[\\]\\\\]|&&|\\|\\||>>|<<")

	pathTraversalPattern = regexp.MustCompile(
		`(?i)\.\.[/\\]|~[/\\]|%2e%2e|%252e|\.\.%2f|\.\.%5c`)

	scriptInjectionPattern = regexp.MustCompile(
		`(?i)<\s*script|javascript:|on\w+\s*=|eval\s*\(|setTimeout|setInterval|Function\s*\(`)
)

// maxGenericInputLen bounds Generic-context strings.
const maxGenericInputLen = 10000

// maxJSONKeyLen bounds object key length in SanitizeJSON.
const maxJSONKeyLen = 100

// InputSanitizer detects injection patterns in strings and recursively
// in JSON-like argument trees. The zero value is ready to use; all
// state is the package-level compiled patterns, so a single sanitizer
// is safe for concurrent use.
type InputSanitizer struct{}

// NewInputSanitizer creates an input sanitizer.
func NewInputSanitizer() *InputSanitizer {
	return &InputSanitizer{}
}

// SanitizeString validates input under the given context.
//
// Every context rejects on its injection patterns. The Generic context
// is the one case that normalizes instead: it enforces a maximum length
// and strips non-whitespace control characters.
func (s *InputSanitizer) SanitizeString(input string, ctx InputContext) (string, error) {
	switch ctx {
	case ContextFilePath:
		if pathTraversalPattern.MatchString(input) {
			return "", fmt.Errorf("%w in %q", ErrPathInjection, input)
		}
		if strings.ContainsRune(input, 0) {
			return "", fmt.Errorf("%w: null byte in path", ErrPathInjection)
		}

	case ContextCommand:
		if commandInjectionPattern.MatchString(input) {
			return "", fmt.Errorf("%w in %q", ErrCommandInjection, input)
		}

	case ContextSQLQuery:
		if sqlInjectionPattern.MatchString(input) {
			return "", fmt.Errorf("%w in %q", ErrSQLInjection, input)
		}

	case ContextWebURL:
		if scriptInjectionPattern.MatchString(input) {
			return "", fmt.Errorf("%w in %q", ErrScriptInjection, input)
		}
		if !strings.HasPrefix(input, "http://") && !strings.HasPrefix(input, "https://") {
			return "", fmt.Errorf("%w: scheme must be http or https", ErrInvalidURL)
		}

	case ContextGeneric:
		if len(input) > maxGenericInputLen {
			return "", fmt.Errorf("%w: %d > %d characters", ErrInputTooLong, len(input), maxGenericInputLen)
		}
		return stripControlChars(input), nil
	}

	return input, nil
}

// SanitizeJSON recursively sanitizes a decoded JSON value. Strings are
// sanitized under ctx; object keys are bounded in length and must not
// contain null bytes; arrays recurse element-wise; numbers, booleans,
// and null pass through unchanged.
func (s *InputSanitizer) SanitizeJSON(value any, ctx InputContext) (any, error) {
	switch v := value.(type) {
	case string:
		return s.SanitizeString(v, ctx)

	case map[string]any:
		sanitized := make(map[string]any, len(v))
		for key, val := range v {
			if len(key) > maxJSONKeyLen || strings.ContainsRune(key, 0) {
				return nil, fmt.Errorf("%w: %q", ErrInvalidJSONKey, key)
			}
			sv, err := s.SanitizeJSON(val, ctx)
			if err != nil {
				return nil, err
			}
			sanitized[key] = sv
		}
		return sanitized, nil

	case []any:
		sanitized := make([]any, 0, len(v))
		for _, val := range v {
			sv, err := s.SanitizeJSON(val, ctx)
			if err != nil {
				return nil, err
			}
			sanitized = append(sanitized, sv)
		}
		return sanitized, nil

	default:
		return value, nil
	}
}

// stripControlChars removes control characters, keeping whitespace.
func stripControlChars(input string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && !unicode.IsSpace(r) {
			return -1
		}
		return r
	}, input)
}
