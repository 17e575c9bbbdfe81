package sops

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	pilotErrors "github.com/tamahere/sops-pilot/internal/errors"
	logger "github.com/tamahere/sops-pilot/internal/logging"
)

// Tool invokes the external sops binary. All cryptography, key management,
// and format handling happen inside that process; Tool only owns the
// argument/exit-code contract.
type Tool struct {
	Binary string
	Logger logger.Logger
}

// New returns a Tool for the given binary name or path. An empty binary
// defaults to "sops" resolved via PATH.
func New(binary string, log logger.Logger) Tool {
	if binary == "" {
		binary = "sops"
	}
	return Tool{Binary: binary, Logger: log}
}

// ToolError carries the diagnostics of a failed sops invocation.
type ToolError struct {
	Op       string
	Path     string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *ToolError) Error() string {
	diag := strings.TrimSpace(e.Stderr)
	if diag == "" {
		diag = e.Err.Error()
	}
	return fmt.Sprintf("sops %s failed for %s: %s", e.Op, e.Path, diag)
}

func (e *ToolError) Unwrap() error {
	return e.Err
}

// exitCode reads the process exit code, or -1 when the process never started.
func exitCode(cmd *exec.Cmd) int {
	if cmd.ProcessState == nil {
		return -1
	}
	return cmd.ProcessState.ExitCode()
}

// CheckAvailable verifies the sops binary can be resolved.
func (t Tool) CheckAvailable() error {
	if _, err := exec.LookPath(t.Binary); err != nil {
		return fmt.Errorf("%w: %q is not on PATH", pilotErrors.ErrToolNotFound, t.Binary)
	}
	return nil
}

// Decrypt runs sops --decrypt on path and returns the captured plaintext.
// The working directory is the file's directory so relative keyservice and
// config lookups behave the same as a manual invocation from there.
func (t Tool) Decrypt(ctx context.Context, path string) ([]byte, error) {
	t.Logger.Debugf("Running %s --decrypt %s", t.Binary, path)

	cmd := exec.CommandContext(ctx, t.Binary, "--decrypt", path)
	cmd.Dir = filepath.Dir(path)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, &ToolError{
			Op:       "decrypt",
			Path:     path,
			ExitCode: exitCode(cmd),
			Stderr:   stderr.String(),
			Err:      err,
		}
	}

	return stdout.Bytes(), nil
}

// EncryptInPlace runs sops --encrypt --in-place on path. Extra arguments
// (key-type flags from a creation rule) are passed through before the path.
// With no extra arguments sops re-encrypts using the metadata already
// embedded in the file.
func (t Tool) EncryptInPlace(ctx context.Context, path string, extraArgs ...string) error {
	args := append([]string{"--encrypt", "--in-place"}, extraArgs...)
	args = append(args, path)
	t.Logger.Debugf("Running %s %s", t.Binary, strings.Join(args, " "))

	cmd := exec.CommandContext(ctx, t.Binary, args...)
	cmd.Dir = filepath.Dir(path)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return &ToolError{
			Op:       "encrypt",
			Path:     path,
			ExitCode: exitCode(cmd),
			Stderr:   stderr.String(),
			Err:      err,
		}
	}

	return nil
}
