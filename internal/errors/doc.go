// Package errors defines the sentinel errors shared across sops-pilot.
//
// Errors are grouped by concern: target resolution, creation rules, the
// external sops process, and pair registration. Callers wrap these with
// fmt.Errorf("...: %w", err) and test with errors.Is.
package errors
