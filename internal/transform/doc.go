// Package transform implements the three file-level operations around the
// external sops process: decrypting an original to a colocated working
// copy, re-encrypting an original in place behind a backup, and encrypting
// a new plaintext file under a creation rule.
package transform
