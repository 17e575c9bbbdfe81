package rules

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	logger "github.com/tamahere/sops-pilot/internal/logging"
)

// CreationRule is one entry of the creation_rules sequence in .sops.yaml.
// Recognized key-type fields are lifted into named fields; everything else
// lands in Rest so unknown keys survive a round of tooling churn.
type CreationRule struct {
	PathRegex string

	Age             string
	PGP             string
	KMS             string
	GCPKMS          string
	AzureKeyVault   string
	HCPVaultTransit string

	Rest map[string]any
}

// recognized maps .sops.yaml keys to setters on CreationRule.
var recognized = map[string]func(*CreationRule, string){
	"path_regex":           func(r *CreationRule, v string) { r.PathRegex = v },
	"age":                  func(r *CreationRule, v string) { r.Age = v },
	"pgp":                  func(r *CreationRule, v string) { r.PGP = v },
	"kms":                  func(r *CreationRule, v string) { r.KMS = v },
	"gcp_kms":              func(r *CreationRule, v string) { r.GCPKMS = v },
	"azure_keyvault":       func(r *CreationRule, v string) { r.AzureKeyVault = v },
	"hc_vault_transit_uri": func(r *CreationRule, v string) { r.HCPVaultTransit = v },
}

// UnmarshalYAML decodes a rule mapping, lifting recognized keys and keeping
// the remainder in Rest.
func (r *CreationRule) UnmarshalYAML(value *yaml.Node) error {
	var raw map[string]any
	if err := value.Decode(&raw); err != nil {
		return err
	}

	r.Rest = make(map[string]any)
	for key, val := range raw {
		set, ok := recognized[key]
		if !ok {
			r.Rest[key] = val
			continue
		}
		set(r, stringify(val))
	}

	return nil
}

// stringify renders scalar rule values the way sops expects them on the
// command line. Sequences collapse to a comma-separated list.
func stringify(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case []any:
		parts := make([]string, 0, len(val))
		for _, item := range val {
			parts = append(parts, stringify(item))
		}
		return strings.Join(parts, ",")
	default:
		return fmt.Sprintf("%v", val)
	}
}

// IsFallback reports whether the rule applies to any path.
func (r CreationRule) IsFallback() bool {
	return r.PathRegex == ""
}

// String renders a short human-readable summary for rule-choice prompts.
func (r CreationRule) String() string {
	var parts []string
	if r.IsFallback() {
		parts = append(parts, "fallback")
	} else {
		parts = append(parts, "path_regex: "+r.PathRegex)
	}
	for _, kt := range keyTypes {
		if value := kt.value(r); value != "" {
			parts = append(parts, kt.name+": "+value)
		}
	}
	return strings.Join(parts, ", ")
}

type rulesFile struct {
	CreationRules []CreationRule `yaml:"creation_rules"`
}

// Load reads the creation rules from rulesPath. A missing or unparsable
// file yields zero rules; the condition is logged, never surfaced, and
// shows up later as "no creation rule matches".
func Load(rulesPath string, log logger.Logger) []CreationRule {
	data, err := os.ReadFile(rulesPath)
	if err != nil {
		log.Debugf("Could not read %s: %v", rulesPath, err)
		return nil
	}

	var file rulesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		log.Warnf("Could not parse %s: %v", rulesPath, err)
		return nil
	}

	return file.CreationRules
}

// Applicable returns, in file order, every rule whose path_regex matches
// path or that has no pattern at all. Matching is an unanchored presence
// test, the same semantics sops itself applies. Rules with an invalid
// pattern are skipped.
func Applicable(rules []CreationRule, path string, log logger.Logger) []CreationRule {
	var matched []CreationRule
	for _, rule := range rules {
		if rule.IsFallback() {
			matched = append(matched, rule)
			continue
		}
		re, err := regexp.Compile(rule.PathRegex)
		if err != nil {
			log.Warnf("Skipping rule with invalid path_regex %q: %v", rule.PathRegex, err)
			continue
		}
		if re.MatchString(path) {
			matched = append(matched, rule)
		}
	}
	return matched
}
