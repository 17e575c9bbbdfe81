package errors

import "errors"

// Target errors indicate problems resolving what to operate on.
var (
	// ErrNoTarget indicates no file was given and none could be inferred.
	ErrNoTarget = errors.New("no target file")

	// ErrNotEncrypted indicates the file does not look like sops output.
	ErrNotEncrypted = errors.New("file is not encrypted")

	// ErrAlreadyEncrypted indicates the file already looks like sops output.
	ErrAlreadyEncrypted = errors.New("file is already encrypted")

	// ErrNotTracked indicates the path belongs to no registered pair.
	ErrNotTracked = errors.New("path is not tracked")
)

// Rule errors indicate problems with .sops.yaml creation rules.
var (
	// ErrNoRules indicates no creation rule applies to the target path.
	ErrNoRules = errors.New("no creation rule matches this file")

	// ErrPromptCancelled indicates the user dismissed a rule choice.
	ErrPromptCancelled = errors.New("selection cancelled")
)

// Tool errors indicate failures around the external sops process.
var (
	// ErrToolNotFound indicates the sops binary is not on PATH.
	ErrToolNotFound = errors.New("sops binary not found")

	// ErrRestoreFailed indicates the backup could not be restored after a
	// failed re-encryption. The original file may be left in plaintext or
	// corrupted; callers must escalate this distinctly.
	ErrRestoreFailed = errors.New("failed to restore original file from backup")
)

// Registry errors indicate inconsistent pair registration attempts.
var (
	// ErrPathTracked indicates the path is already registered on either
	// side of an existing pair.
	ErrPathTracked = errors.New("path already belongs to a tracked pair")
)
