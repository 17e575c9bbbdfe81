// Package ui provides semantic text formatting for sops-pilot output.
//
// Each Formatter pairs a color with a plain-text fallback decoration so
// output stays readable when colors are unavailable (NO_COLOR, dumb
// terminals, pipes).
package ui
