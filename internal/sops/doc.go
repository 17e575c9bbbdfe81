// Package sops wraps the external sops binary behind a small invocation
// contract: decrypt captures stdout as plaintext, encrypt rewrites the file
// in place, and any non-zero exit surfaces the process's stderr as a
// ToolError. It also hosts the looks-encrypted heuristic used to decide
// whether a document should be handed to the tool at all.
package sops
