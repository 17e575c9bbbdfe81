// Package logger provides leveled logging for sops-pilot CLI commands.
//
// Verbosity is controlled by two persistent flags:
//
//   - --verbose: shows info and warning messages
//   - --debug: shows all messages including debug details
//
// Without flags, only critical warnings and errors are shown.
//
// Commands create a logger in their PersistentPreRun and pass it down to
// the internal packages that need to trace what the external sops process
// is being asked to do.
package logger
