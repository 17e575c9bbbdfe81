// Package cmd contains the sops-pilot command implementations.
//
// Each command file defines one cobra command. Commands share the
// verbosity flags and logger from root.go and report outcomes through a
// spinner's FinalMSG with colored status glyphs.
package cmd
