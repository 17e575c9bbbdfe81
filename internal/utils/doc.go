// Package utils provides shared helpers for sops-pilot.
//
// # Filesystem Utilities
//
//   - FindProjectRoot: walks up directories to find .sops.yaml
//
// # String Utilities
//
//   - FormatPaths: formats file paths for human-readable output
package utils
