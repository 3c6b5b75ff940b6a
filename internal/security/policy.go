package security

// SecurityPolicy is the declarative configuration driving the engine.
//
// A policy is constructed once (at server or session startup, typically
// from one of the presets below) and never mutated in place. Updating a
// policy means building a new SecurityPolicy and swapping the Validator
// that holds it.
type SecurityPolicy struct {
	// ID uniquely identifies this policy.
	ID string `json:"id" mapstructure:"id"`

	// Description is a human-readable summary of the policy.
	Description string `json:"description,omitempty" mapstructure:"description"`

	// Filesystem controls filesystem access.
	Filesystem FilesystemPolicy `json:"filesystem" mapstructure:"filesystem"`

	// Process controls process execution.
	Process ProcessPolicy `json:"process" mapstructure:"process"`

	// Network controls network egress.
	Network NetworkPolicy `json:"network" mapstructure:"network"`

	// Environment controls environment variable passthrough.
	Environment EnvironmentPolicy `json:"environment" mapstructure:"environment"`

	// RateLimits bounds request volume per server+tool pair.
	RateLimits RateLimitPolicy `json:"rate_limits" mapstructure:"rate_limits"`

	// Audit controls security event logging.
	Audit AuditPolicy `json:"audit" mapstructure:"audit"`

	// StrictMode enables warnings for tool calls the engine cannot
	// classify into a filesystem/process/network category.
	StrictMode bool `json:"strict_mode" mapstructure:"strict_mode"`
}

// FilesystemPolicy controls filesystem access.
//
// Blocked entries always win over allowed entries. An empty AllowedPaths
// means "no allowlist restriction"; a nil AllowedExtensions means all
// extensions are allowed (subject to BlockedExtensions).
type FilesystemPolicy struct {
	// AllowedPaths lists base directories (absolute) under which access
	// is permitted. Empty = no allowlist restriction.
	AllowedPaths []string `json:"allowed_paths" mapstructure:"allowed_paths"`

	// BlockedPaths lists directories that are always denied.
	BlockedPaths []string `json:"blocked_paths" mapstructure:"blocked_paths"`

	// AllowedExtensions, when non-nil, restricts access to the listed
	// extensions (with leading dot, e.g. ".txt").
	AllowedExtensions []string `json:"allowed_extensions,omitempty" mapstructure:"allowed_extensions"`

	// BlockedExtensions lists extensions that are always denied.
	BlockedExtensions []string `json:"blocked_extensions" mapstructure:"blocked_extensions"`

	// MaxFileSize bounds read sizes in bytes. 0 = unlimited.
	MaxFileSize int64 `json:"max_file_size,omitempty" mapstructure:"max_file_size"`

	// AllowHidden permits access to dotfiles.
	AllowHidden bool `json:"allow_hidden" mapstructure:"allow_hidden"`

	// AllowSymlinks permits operating on symbolic links.
	AllowSymlinks bool `json:"allow_symlinks" mapstructure:"allow_symlinks"`

	// AllowWrite permits write operations.
	AllowWrite bool `json:"allow_write" mapstructure:"allow_write"`

	// AllowDelete permits delete operations.
	AllowDelete bool `json:"allow_delete" mapstructure:"allow_delete"`
}

// ProcessPolicy controls process execution.
type ProcessPolicy struct {
	// AllowedCommands lists permitted commands. A command matches by
	// exact equality or by "<allowed> " prefix. Empty = no allowlist
	// restriction.
	AllowedCommands []string `json:"allowed_commands" mapstructure:"allowed_commands"`

	// BlockedCommands lists substrings that deny a command outright.
	BlockedCommands []string `json:"blocked_commands" mapstructure:"blocked_commands"`

	// AllowedArgsPatterns, when non-empty, requires each argument to
	// match at least one pattern (regex).
	AllowedArgsPatterns []string `json:"allowed_args_patterns" mapstructure:"allowed_args_patterns"`

	// BlockedArgsPatterns denies any argument matching a pattern (regex).
	BlockedArgsPatterns []string `json:"blocked_args_patterns" mapstructure:"blocked_args_patterns"`

	// MaxArgs bounds the number of arguments. 0 = unlimited.
	MaxArgs int `json:"max_args,omitempty" mapstructure:"max_args"`

	// MaxArgLength bounds the length of a single argument. 0 = unlimited.
	MaxArgLength int `json:"max_arg_length,omitempty" mapstructure:"max_arg_length"`

	// AllowShell permits invoking shells (sh, bash, powershell, ...).
	AllowShell bool `json:"allow_shell" mapstructure:"allow_shell"`
}

// NetworkPolicy controls network egress.
type NetworkPolicy struct {
	// AllowedURLs, when non-empty, requires a URL to match at least one
	// pattern (regex).
	AllowedURLs []string `json:"allowed_urls" mapstructure:"allowed_urls"`

	// BlockedURLs denies any URL matching a pattern (regex, wins over
	// AllowedURLs).
	BlockedURLs []string `json:"blocked_urls" mapstructure:"blocked_urls"`

	// AllowedProtocols restricts URL schemes. Empty = all schemes.
	AllowedProtocols []string `json:"allowed_protocols" mapstructure:"allowed_protocols"`

	// AllowedPorts, when non-nil, restricts explicit URL ports.
	AllowedPorts []int `json:"allowed_ports,omitempty" mapstructure:"allowed_ports"`

	// BlockPrivateIPs denies RFC 1918 ranges, *.local, and localhost.
	BlockPrivateIPs bool `json:"block_private_ips" mapstructure:"block_private_ips"`

	// BlockLoopback denies localhost, 127.0.0.0/8, and ::1.
	BlockLoopback bool `json:"block_loopback" mapstructure:"block_loopback"`
}

// EnvironmentPolicy controls which environment variables survive into a
// spawned subprocess.
type EnvironmentPolicy struct {
	// AllowedVars lists variables that always pass (and override the
	// sensitive-name filter).
	AllowedVars []string `json:"allowed_vars" mapstructure:"allowed_vars"`

	// BlockedVars lists variables that are always removed (wins).
	BlockedVars []string `json:"blocked_vars" mapstructure:"blocked_vars"`

	// SanitizeVars lists variables whose values are scrubbed down to
	// [A-Za-z0-9_.-/].
	SanitizeVars []string `json:"sanitize_vars" mapstructure:"sanitize_vars"`

	// AllowPassthrough permits variables not named in AllowedVars.
	AllowPassthrough bool `json:"allow_passthrough" mapstructure:"allow_passthrough"`
}

// RateLimitPolicy bounds request volume. Zero values disable the
// corresponding dimension.
type RateLimitPolicy struct {
	// MaxRequestsPerMinute is the sustained request rate per server+tool.
	MaxRequestsPerMinute int `json:"max_requests_per_minute,omitempty" mapstructure:"max_requests_per_minute"`

	// MaxConcurrent is the burst allowance per server+tool.
	MaxConcurrent int `json:"max_concurrent,omitempty" mapstructure:"max_concurrent"`

	// MaxTotalOperations is a hard cap on operations per server+tool
	// for the lifetime of the validator.
	MaxTotalOperations int64 `json:"max_total_operations,omitempty" mapstructure:"max_total_operations"`
}

// AuditPolicy controls security event logging.
type AuditPolicy struct {
	// LogAllOperations logs successful operations as well as failures.
	LogAllOperations bool `json:"log_all_operations" mapstructure:"log_all_operations"`

	// LogFailures logs rejected operations.
	LogFailures bool `json:"log_failures" mapstructure:"log_failures"`

	// LogSensitiveAccess logs operations touching sensitive paths.
	LogSensitiveAccess bool `json:"log_sensitive_access" mapstructure:"log_sensitive_access"`

	// IncludeArguments includes the full argument tree in log lines.
	// Off by default: arguments may contain sensitive data.
	IncludeArguments bool `json:"include_arguments" mapstructure:"include_arguments"`
}

// Restrictive returns the preset for untrusted servers: no filesystem
// allowlist (blocklist still applies), no write/delete, no process
// execution beyond nothing, HTTPS only, tight rate limits.
//
// The presets are independent constructors on purpose: deriving one
// preset from another would let a future edit to Restrictive silently
// change Moderate and Permissive.
func Restrictive() SecurityPolicy {
	return SecurityPolicy{
		ID:          "restrictive",
		Description: "Highly restrictive policy for untrusted servers",
		Filesystem: FilesystemPolicy{
			AllowedPaths: nil,
			BlockedPaths: []string{
				"/etc", "/sys", "/proc",
				`C:\Windows`, `C:\Program Files`,
			},
			AllowedExtensions: []string{".txt", ".json", ".md"},
			BlockedExtensions: []string{
				".exe", ".dll", ".so", ".dylib",
				".sh", ".ps1", ".bat", ".cmd",
			},
			MaxFileSize:   10 * 1024 * 1024,
			AllowHidden:   false,
			AllowSymlinks: false,
			AllowWrite:    false,
			AllowDelete:   false,
		},
		Process: ProcessPolicy{
			AllowedCommands: nil,
			BlockedCommands: []string{
				"rm", "del", "format", "sudo", "su", "chmod", "chown",
			},
			BlockedArgsPatterns: []string{".*[;&|`$].*", `.*\.\..*`},
			MaxArgs:             10,
			MaxArgLength:        1000,
			AllowShell:          false,
		},
		Network: NetworkPolicy{
			AllowedProtocols: []string{"https"},
			AllowedPorts:     []int{443, 8443},
			BlockPrivateIPs:  true,
			BlockLoopback:    true,
		},
		Environment: EnvironmentPolicy{
			AllowedVars: []string{"PATH", "HOME", "USER", "LANG", "TZ"},
			BlockedVars: []string{
				"LD_PRELOAD", "LD_LIBRARY_PATH", "DYLD_INSERT_LIBRARIES",
			},
			AllowPassthrough: false,
		},
		RateLimits: RateLimitPolicy{
			MaxRequestsPerMinute: 60,
			MaxConcurrent:        5,
			MaxTotalOperations:   1000,
		},
		Audit: AuditPolicy{
			LogAllOperations:   false,
			LogFailures:        true,
			LogSensitiveAccess: true,
			IncludeArguments:   false,
		},
		StrictMode: true,
	}
}

// Moderate returns the preset for semi-trusted servers: write access, a
// small safe-command allowlist, HTTP in addition to HTTPS, and higher
// rate limits.
func Moderate() SecurityPolicy {
	return SecurityPolicy{
		ID:          "moderate",
		Description: "Moderate security policy with reasonable restrictions",
		Filesystem: FilesystemPolicy{
			AllowedPaths: nil,
			BlockedPaths: []string{
				"/etc", "/sys", "/proc",
				`C:\Windows`, `C:\Program Files`,
			},
			AllowedExtensions: []string{".txt", ".json", ".md"},
			BlockedExtensions: []string{
				".exe", ".dll", ".so", ".dylib",
				".sh", ".ps1", ".bat", ".cmd",
			},
			MaxFileSize:   100 * 1024 * 1024,
			AllowHidden:   false,
			AllowSymlinks: false,
			AllowWrite:    true,
			AllowDelete:   false,
		},
		Process: ProcessPolicy{
			AllowedCommands: []string{"echo", "cat", "ls", "dir", "grep", "find"},
			BlockedCommands: []string{
				"rm", "del", "format", "sudo", "su", "chmod", "chown",
			},
			BlockedArgsPatterns: []string{".*[;&|`$].*", `.*\.\..*`},
			MaxArgs:             10,
			MaxArgLength:        1000,
			AllowShell:          false,
		},
		Network: NetworkPolicy{
			AllowedProtocols: []string{"https", "http"},
			AllowedPorts:     []int{80, 443, 8080, 8443},
			BlockPrivateIPs:  true,
			BlockLoopback:    true,
		},
		Environment: EnvironmentPolicy{
			AllowedVars: []string{"PATH", "HOME", "USER", "LANG", "TZ"},
			BlockedVars: []string{
				"LD_PRELOAD", "LD_LIBRARY_PATH", "DYLD_INSERT_LIBRARIES",
			},
			AllowPassthrough: false,
		},
		RateLimits: RateLimitPolicy{
			MaxRequestsPerMinute: 300,
			MaxConcurrent:        10,
			MaxTotalOperations:   1000,
		},
		Audit: AuditPolicy{
			LogAllOperations:   false,
			LogFailures:        true,
			LogSensitiveAccess: true,
			IncludeArguments:   false,
		},
		StrictMode: true,
	}
}

// Permissive returns the preset for fully trusted deployments: allow-all
// with a minimal hard blocklist. Do not use for untrusted servers.
func Permissive() SecurityPolicy {
	return SecurityPolicy{
		ID:          "permissive",
		Description: "Permissive policy for trusted servers",
		Filesystem: FilesystemPolicy{
			AllowedPaths: nil,
			BlockedPaths: []string{
				"/etc/shadow", "/etc/passwd",
				`C:\Windows\System32\config`,
			},
			AllowedExtensions: nil,
			MaxFileSize:       0,
			AllowHidden:       true,
			AllowSymlinks:     true,
			AllowWrite:        true,
			AllowDelete:       true,
		},
		Process: ProcessPolicy{
			AllowedCommands: nil,
			BlockedCommands: []string{"rm -rf /", "format c:"},
			AllowShell:      true,
		},
		Network: NetworkPolicy{
			AllowedProtocols: nil,
			AllowedPorts:     nil,
			BlockPrivateIPs:  false,
			BlockLoopback:    false,
		},
		Environment: EnvironmentPolicy{
			BlockedVars:      []string{"LD_PRELOAD"},
			AllowPassthrough: true,
		},
		RateLimits: RateLimitPolicy{
			MaxConcurrent: 50,
		},
		Audit: AuditPolicy{
			LogAllOperations:   false,
			LogFailures:        true,
			LogSensitiveAccess: false,
			IncludeArguments:   false,
		},
		StrictMode: false,
	}
}

// PresetByName resolves a preset policy by its ID.
func PresetByName(name string) (SecurityPolicy, bool) {
	switch name {
	case "restrictive":
		return Restrictive(), true
	case "moderate":
		return Moderate(), true
	case "permissive":
		return Permissive(), true
	default:
		return SecurityPolicy{}, false
	}
}
