package cmd

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tamahere/sops-pilot/internal/configs"
	"github.com/tamahere/sops-pilot/internal/rules"
	"github.com/tamahere/sops-pilot/internal/ui"
	"github.com/tamahere/sops-pilot/internal/utils"
)

var rulesCmd = &cobra.Command{
	Use:   "rules [PATH]",
	Short: "Shows the creation rules that apply to a path",
	Long: `Lists the project's .sops.yaml creation rules in file order. With a
PATH argument, only the rules applicable to that path are shown, the
way the encrypt command would consider them.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := initRun(); err != nil {
			return err
		}

		projectPath := configs.ProjectPilotSettings.ProjectPath
		if projectPath == "" {
			fmt.Println(ui.Error.Sprint("✗") + " No " + ui.Path.Sprint(utils.RulesFileName) + " found in this directory or any parent")
			return nil
		}

		ruleSet := rules.Load(configs.ProjectPilotSettings.RulesPath, Logger)
		if len(ruleSet) == 0 {
			fmt.Println(ui.Warning.Sprint("⚠") + " " + ui.Path.Sprint(configs.ProjectPilotSettings.RulesPath) + " contains no creation rules")
			return nil
		}

		shown := ruleSet
		header := fmt.Sprintf("Creation rules in %s:", ui.Path.Sprint(configs.ProjectPilotSettings.RulesPath))
		if len(args) == 1 {
			shown = rules.Applicable(ruleSet, args[0], Logger)
			header = fmt.Sprintf("Creation rules applicable to %s:", ui.Highlight.Sprint(args[0]))
			if len(shown) == 0 {
				fmt.Println(ui.Error.Sprint("✗") + " No creation rule matches " + ui.Highlight.Sprint(args[0]))
				return nil
			}
		}

		fmt.Println(header)
		for i, rule := range shown {
			line := fmt.Sprintf("  %d) %s", i+1, rule.String())
			if residual := residualKeys(rule); residual != "" {
				line += " " + ui.Muted.Sprintf("untranslated: %s", residual)
			}
			fmt.Println(line)
		}
		return nil
	},
}

func init() {
	AddCommonFlags(rulesCmd)
}

// residualKeys lists rule keys that have no flag translation.
func residualKeys(rule rules.CreationRule) string {
	if len(rule.Rest) == 0 {
		return ""
	}
	keys := make([]string, 0, len(rule.Rest))
	for key := range rule.Rest {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return strings.Join(keys, ", ")
}
