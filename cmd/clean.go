package cmd

import (
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/tamahere/sops-pilot/internal/configs"
	"github.com/tamahere/sops-pilot/internal/sops"
	"github.com/tamahere/sops-pilot/internal/transform"
	"github.com/tamahere/sops-pilot/internal/utils"
)

var cleanYes bool

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Removes stray decrypted working copies from the project tree",
	Long: `Walks the project tree for files carrying the working-copy suffix whose
encrypted original still exists alongside them, and deletes them. This
collects working copies left behind by a crashed editor session. Files
are listed and confirmed before deletion unless --yes is given.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := initRun(); err != nil {
			return err
		}
		Logger.Infof("Starting clean command")

		projectPath := configs.ProjectPilotSettings.ProjectPath
		if projectPath == "" {
			os.Stdout.WriteString(color.RedString("✗") + " No " + color.YellowString(utils.RulesFileName) + " found in this directory or any parent\n")
			return nil
		}

		strays, err := findStrayWorkingCopies(projectPath, userConfig.WorkingSuffix)
		if err != nil {
			return Logger.ErrorfAndReturn("failed to scan for working copies: %v", err)
		}
		if len(strays) == 0 {
			os.Stdout.WriteString(color.GreenString("✓") + " No stray working copies found\n")
			return nil
		}

		os.Stdout.WriteString("The following working copies will be deleted:" + utils.FormatPaths(strays))
		if !cleanYes {
			ok, err := confirm(os.Stdin, os.Stdout, "Proceed?")
			if err != nil {
				return Logger.ErrorfAndReturn("%v", err)
			}
			if !ok {
				os.Stdout.WriteString(color.YellowString("⚠") + " Clean cancelled\n")
				return nil
			}
		}

		for _, stray := range strays {
			if err := transform.RemoveWorkingCopy(stray); err != nil {
				Logger.WarnfAlways("%v", err)
			}
		}
		os.Stdout.WriteString(color.GreenString("✓") + " Removed " + color.YellowString("%d", len(strays)) + " working copies\n")
		Logger.Infof("Clean command completed, removed %d files", len(strays))
		return nil
	},
}

func init() {
	AddCommonFlags(cleanCmd)
	cleanCmd.Flags().BoolVarP(&cleanYes, "yes", "y", false, "delete without confirmation")
}

// findStrayWorkingCopies returns files under projectPath that carry the
// working suffix and whose original sibling exists and looks encrypted.
// The pairing check keeps the sweep from touching files that merely share
// the suffix.
func findStrayWorkingCopies(projectPath, suffix string) ([]string, error) {
	matches, err := doublestar.Glob(os.DirFS(projectPath), "**/*"+suffix+"*")
	if err != nil {
		return nil, err
	}

	var strays []string
	for _, match := range matches {
		full := filepath.Join(projectPath, match)
		info, err := os.Stat(full)
		if err != nil || info.IsDir() {
			continue
		}

		originalPath, ok := transform.IsWorkingPath(full, suffix)
		if !ok {
			continue
		}
		original, err := os.ReadFile(originalPath)
		if err != nil || !sops.LooksEncrypted(original) {
			continue
		}
		strays = append(strays, full)
	}
	return strays, nil
}
