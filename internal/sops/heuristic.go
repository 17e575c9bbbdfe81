package sops

import (
	"regexp"
	"strings"
)

// Markers for encrypted values and metadata blocks, matched case-insensitively
// against lowered text. Both the unquoted (YAML/INI) and quoted (JSON) shapes
// of each marker are recognized.
var (
	encKeyPattern  = regexp.MustCompile(`"enc"\s*:`)
	metadataLine   = regexp.MustCompile(`(?m)^sops:\s*$`)
	metadataQuoted = regexp.MustCompile(`"sops"\s*:\s*\{`)
)

// LooksEncrypted reports whether content appears to be sops output.
//
// This is a heuristic, not a format parser: it scans for the "sops" token
// and then for either an encrypted-value marker (enc[ or a quoted "enc"
// key) or a metadata-block marker (a sops: line or a quoted "sops" object
// key). False positives and negatives are possible and accepted; the scan
// trades correctness for speed since it runs on every opened document.
func LooksEncrypted(content []byte) bool {
	text := strings.ToLower(string(content))

	if !strings.Contains(text, "sops") {
		return false
	}

	if strings.Contains(text, "enc[") || encKeyPattern.MatchString(text) {
		return true
	}

	return metadataLine.MatchString(text) || metadataQuoted.MatchString(text)
}
