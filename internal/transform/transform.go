package transform

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"

	pilotErrors "github.com/tamahere/sops-pilot/internal/errors"
	"github.com/tamahere/sops-pilot/internal/rules"
	"github.com/tamahere/sops-pilot/internal/sops"
)

// suffixDirective matches a sops_unencrypted_suffix assignment anywhere in
// decrypted output: the key, an assignment operator, then the rest of the
// line. Both "=" and ":" assignments are accepted.
var suffixDirective = regexp.MustCompile(`(?m)sops_unencrypted_suffix\s*[:=]\s*(.+)$`)

// WorkingPath computes the decrypted working copy's path by inserting
// suffix before the original's extension, in the same directory.
func WorkingPath(originalPath, suffix string) string {
	ext := filepath.Ext(originalPath)
	base := strings.TrimSuffix(originalPath, ext)
	return base + suffix + ext
}

// IsWorkingPath reports whether path carries the working suffix before its
// extension, and returns the original path it would pair with.
func IsWorkingPath(path, suffix string) (string, bool) {
	ext := filepath.Ext(path)
	base := strings.TrimSuffix(path, ext)
	if !strings.HasSuffix(base, suffix) || suffix == "" {
		return "", false
	}
	return strings.TrimSuffix(base, suffix) + ext, true
}

// workingSuffix returns the suffix directive embedded in plaintext, or
// defaultSuffix when absent.
func workingSuffix(plaintext []byte, defaultSuffix string) string {
	if m := suffixDirective.FindSubmatch(plaintext); m != nil {
		if s := strings.TrimSpace(string(m[1])); s != "" {
			return s
		}
	}
	return defaultSuffix
}

// DecryptToTemp decrypts originalPath via the external tool and writes the
// plaintext to a colocated working copy, overwriting any previous copy.
// Returns the working copy's path.
func DecryptToTemp(ctx context.Context, tool sops.Tool, originalPath, defaultSuffix string) (string, error) {
	plaintext, err := tool.Decrypt(ctx, originalPath)
	if err != nil {
		return "", err
	}

	workingPath := WorkingPath(originalPath, workingSuffix(plaintext, defaultSuffix))
	if err := os.WriteFile(workingPath, plaintext, 0600); err != nil {
		return "", fmt.Errorf("failed to write working copy %s: %w", workingPath, err)
	}

	return workingPath, nil
}

// EncryptAndReplace re-encrypts originalPath with new plaintext content,
// guarding the original behind a backup so a failed encryption never
// corrupts it. Phases: back up, overwrite with plaintext, encrypt in place.
// On success the backup is removed. On failure the backup is renamed back
// over the original and the encryption error is returned; if that rename
// itself fails the error wraps ErrRestoreFailed, which callers must treat
// as critical since the original may be left in plaintext.
func EncryptAndReplace(ctx context.Context, tool sops.Tool, content []byte, originalPath string) error {
	backupPath := fmt.Sprintf("%s.%s.bak", originalPath, uuid.NewString())
	if err := copyFile(originalPath, backupPath); err != nil {
		return fmt.Errorf("failed to back up %s: %w", originalPath, err)
	}

	err := os.WriteFile(originalPath, content, 0600)
	if err == nil {
		err = tool.EncryptInPlace(ctx, originalPath)
	}

	if err != nil {
		if restoreErr := os.Rename(backupPath, originalPath); restoreErr != nil {
			return fmt.Errorf("%w (after: %v): %v", pilotErrors.ErrRestoreFailed, err, restoreErr)
		}
		return err
	}

	if removeErr := os.Remove(backupPath); removeErr != nil && !os.IsNotExist(removeErr) {
		return fmt.Errorf("encrypted %s but failed to remove backup: %w", originalPath, removeErr)
	}

	return nil
}

// EncryptNewFile encrypts a plaintext file in place using the key-type
// flags of the given creation rule.
func EncryptNewFile(ctx context.Context, tool sops.Tool, path string, rule rules.CreationRule) error {
	return tool.EncryptInPlace(ctx, path, rule.ToolArgs()...)
}

// RemoveWorkingCopy deletes a working copy best-effort. A copy that is
// already gone counts as cleaned up.
func RemoveWorkingCopy(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove working copy %s: %w", path, err)
	}
	return nil
}

// copyFile copies src to dst, preserving the source's permissions.
func copyFile(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return err
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
