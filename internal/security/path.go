package security

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// PathValidator validates and canonicalizes filesystem paths against a
// FilesystemPolicy. Used to prevent path traversal attacks (CWE-22).
//
// Validation order is significant: the lexical traversal check runs
// before any filesystem syscall, and blocked paths are checked before
// the allowlist.
type PathValidator struct {
	policy FilesystemPolicy
}

// NewPathValidator creates a path validator for the given policy.
func NewPathValidator(policy FilesystemPolicy) *PathValidator {
	return &PathValidator{policy: policy}
}

// ValidatePath validates a filesystem path for the given operation and
// returns its canonical absolute form.
//
// Checks, in order:
//  1. Lexical rejection of ".." and "~" (before any syscall)
//  2. Canonicalization (symlink resolution; for Write the target may
//     not exist yet, in which case the parent is canonicalized and the
//     final segment re-joined)
//  3. Absolute path requirement
//  4. Blocked path prefixes (win over allowed)
//  5. Allowed path prefixes (empty allowlist = no restriction)
//  6. Blocked/allowed extensions
//  7. Hidden file check
//  8. Symlink check on the original, pre-canonicalization path
//  9. Operation permission (write/delete gates)
func (v *PathValidator) ValidatePath(path string, op FileOperation) (string, error) {
	if strings.Contains(path, "..") || strings.Contains(path, "~") {
		return "", fmt.Errorf("%w: %q", ErrPathTraversal, path)
	}

	abs, err := filepath.Abs(filepath.Clean(path))
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}

	canonical, err := v.canonicalize(abs, op)
	if err != nil {
		return "", err
	}

	if !filepath.IsAbs(canonical) {
		return "", fmt.Errorf("%w: %q", ErrPathNotAbsolute, canonical)
	}

	for _, blocked := range v.policy.BlockedPaths {
		if hasPathPrefix(canonical, blocked) {
			return "", fmt.Errorf("%w: %q", ErrPathBlocked, canonical)
		}
	}

	if len(v.policy.AllowedPaths) > 0 {
		allowed := false
		for _, dir := range v.policy.AllowedPaths {
			if hasPathPrefix(canonical, dir) {
				allowed = true
				break
			}
		}
		if !allowed {
			return "", fmt.Errorf("%w: %q", ErrPathNotAllowed, canonical)
		}
	}

	if err := v.checkExtension(canonical); err != nil {
		return "", err
	}

	if name := filepath.Base(canonical); strings.HasPrefix(name, ".") && !v.policy.AllowHidden {
		return "", fmt.Errorf("%w: %q", ErrHiddenFile, name)
	}

	// Symlink check uses the original path: the canonical form has
	// already been resolved through the link.
	if !v.policy.AllowSymlinks {
		if info, lerr := os.Lstat(abs); lerr == nil && info.Mode()&os.ModeSymlink != 0 {
			return "", fmt.Errorf("%w: %q", ErrSymlink, path)
		}
	}

	switch op {
	case OpWrite:
		if !v.policy.AllowWrite {
			return "", fmt.Errorf("%w: write", ErrOperationNotPermitted)
		}
	case OpDelete:
		if !v.policy.AllowDelete {
			return "", fmt.Errorf("%w: delete", ErrOperationNotPermitted)
		}
	case OpRead, OpList:
		// Always permitted once the path checks pass.
	}

	return canonical, nil
}

// canonicalize resolves symlinks and normalizes abs. For Write
// operations on a target that does not exist yet, the parent directory
// is canonicalized and the final segment re-joined; every subsequent
// check then runs on the joined result, so the fallback branch applies
// the same rules as the normal branch.
func (v *PathValidator) canonicalize(abs string, op FileOperation) (string, error) {
	canonical, err := filepath.EvalSymlinks(abs)
	if err == nil {
		return canonical, nil
	}

	if os.IsNotExist(err) && op == OpWrite {
		parent := filepath.Dir(abs)
		parentCanonical, perr := filepath.EvalSymlinks(parent)
		if perr != nil {
			return "", fmt.Errorf("parent directory does not exist or is inaccessible: %w", perr)
		}
		return filepath.Join(parentCanonical, filepath.Base(abs)), nil
	}

	return "", fmt.Errorf("canonicalizing path: %w", err)
}

func (v *PathValidator) checkExtension(canonical string) error {
	ext := strings.ToLower(filepath.Ext(canonical))
	if ext == "" {
		return nil
	}

	for _, blocked := range v.policy.BlockedExtensions {
		if strings.EqualFold(blocked, ext) {
			return fmt.Errorf("%w: %q", ErrExtensionBlocked, ext)
		}
	}

	if v.policy.AllowedExtensions != nil {
		for _, allowed := range v.policy.AllowedExtensions {
			if strings.EqualFold(allowed, ext) {
				return nil
			}
		}
		return fmt.Errorf("%w: %q", ErrExtensionNotAllowed, ext)
	}

	return nil
}

// ValidateFileSize checks a file size against the policy limit.
func (v *PathValidator) ValidateFileSize(size int64) error {
	if v.policy.MaxFileSize > 0 && size > v.policy.MaxFileSize {
		return fmt.Errorf("%w: %d > %d bytes", ErrFileTooLarge, size, v.policy.MaxFileSize)
	}
	return nil
}

// hasPathPrefix reports whether path is dir itself or lies under it,
// comparing whole components so /tmpfoo is not "under" /tmp.
func hasPathPrefix(path, dir string) bool {
	dir = filepath.Clean(dir)
	path = filepath.Clean(path)
	if path == dir {
		return true
	}
	return strings.HasPrefix(path, dir+string(filepath.Separator))
}
