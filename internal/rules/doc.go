// Package rules extracts creation rules from a project's .sops.yaml and
// translates them into sops command-line flags.
//
// The file is treated as an ordered list of loosely-typed records, not a
// validated schema: recognized key-type fields become flags, unknown keys
// are carried along untouched, and a missing or broken file simply means
// no rules.
package rules
