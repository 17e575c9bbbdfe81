package cmd

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/tamahere/sops-pilot/internal/configs"
	pilotErrors "github.com/tamahere/sops-pilot/internal/errors"
	"github.com/tamahere/sops-pilot/internal/rules"
	"github.com/tamahere/sops-pilot/internal/sops"
	"github.com/tamahere/sops-pilot/internal/transform"
	"github.com/tamahere/sops-pilot/internal/utils"
)

var encryptCmd = &cobra.Command{
	Use:   "encrypt FILE_OR_PATTERN...",
	Short: "Encrypts plaintext files according to the project's creation rules",
	Long: `Encrypts one or more plaintext files in place with sops, choosing key
material from the .sops.yaml creation rule matching each file. Arguments
may be literal paths or doublestar glob patterns relative to the project
root. Files that already look encrypted are skipped.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := initRun(); err != nil {
			return err
		}
		Logger.Infof("Starting encrypt command")

		if len(args) == 0 {
			return Logger.ErrorfAndReturn("%v: pass a file or glob pattern", pilotErrors.ErrNoTarget)
		}

		spinner, cleanup := startSpinner("Encrypting files...", verbose)
		defer cleanup()

		projectPath := configs.ProjectPilotSettings.ProjectPath
		if projectPath == "" {
			spinner.FinalMSG = color.RedString("✗") + " No " + color.YellowString(utils.RulesFileName) + " found in this directory or any parent\n" +
				color.CyanString("→") + " Create one describing your creation rules first"
			return nil
		}

		tool := sops.New(userConfig.SopsBinary, Logger)
		if err := tool.CheckAvailable(); err != nil {
			return Logger.ErrorfAndReturn("%v", err)
		}

		targets, err := resolveTargets(args, projectPath)
		if err != nil {
			return Logger.ErrorfAndReturn("failed to resolve targets: %v", err)
		}
		if len(targets) == 0 {
			spinner.FinalMSG = color.RedString("✗") + " No files matched the given patterns"
			return nil
		}
		Logger.Debugf("Resolved %d target files", len(targets))

		ruleSet := rules.Load(configs.ProjectPilotSettings.RulesPath, Logger)

		var encrypted, skipped []string
		for _, target := range targets {
			err := encryptOne(cmd.Context(), tool, ruleSet, target, projectPath, spinner)
			switch {
			case err == nil:
				encrypted = append(encrypted, target)
			case errors.Is(err, pilotErrors.ErrAlreadyEncrypted):
				skipped = append(skipped, target)
			case errors.Is(err, pilotErrors.ErrPromptCancelled):
				// Silent no-op per the cancellation contract.
				spinner.FinalMSG = ""
				return nil
			default:
				spinner.FinalMSG = color.RedString("✗") + " Failed to encrypt " + color.YellowString(target) + "\n" +
					color.RedString("Error: ") + err.Error()
				return nil
			}
		}

		finalMessage := ""
		if len(encrypted) > 0 {
			finalMessage += color.GreenString("✓") + " Encrypted:" + utils.FormatPaths(encrypted)
		}
		if len(skipped) > 0 {
			finalMessage += color.YellowString("⚠") + " Already encrypted, skipped:" + utils.FormatPaths(skipped)
		}
		spinner.FinalMSG = finalMessage
		Logger.Infof("Encrypt command completed: %d encrypted, %d skipped", len(encrypted), len(skipped))
		return nil
	},
}

func init() {
	AddCommonFlags(encryptCmd)
}

// resolveTargets expands arguments into file paths. Literal existing paths
// pass through; anything else is treated as a doublestar pattern relative
// to the project root.
func resolveTargets(args []string, projectPath string) ([]string, error) {
	var targets []string
	seen := make(map[string]bool)

	add := func(path string) {
		if !seen[path] {
			seen[path] = true
			targets = append(targets, path)
		}
	}

	for _, arg := range args {
		if info, err := os.Stat(arg); err == nil && !info.IsDir() {
			abs, err := filepath.Abs(arg)
			if err != nil {
				return nil, err
			}
			add(abs)
			continue
		}

		matches, err := doublestar.Glob(os.DirFS(projectPath), arg)
		if err != nil {
			return nil, err
		}
		for _, match := range matches {
			full := filepath.Join(projectPath, match)
			if info, err := os.Stat(full); err == nil && !info.IsDir() {
				add(full)
			}
		}
	}

	return targets, nil
}

// encryptOne encrypts a single target. A file that already looks like
// sops output is reported via ErrAlreadyEncrypted so the caller can
// count it as skipped rather than failed.
func encryptOne(ctx context.Context, tool sops.Tool, ruleSet []rules.CreationRule, target, projectPath string, s *spinner.Spinner) error {
	content, err := os.ReadFile(target)
	if err != nil {
		return err
	}

	if sops.LooksEncrypted(content) {
		Logger.Infof("Skipping already-encrypted file %s", target)
		return pilotErrors.ErrAlreadyEncrypted
	}

	relPath, err := filepath.Rel(projectPath, target)
	if err != nil {
		relPath = target
	}

	applicable := rules.Applicable(ruleSet, relPath, Logger)
	if len(applicable) == 0 {
		return pilotErrors.ErrNoRules
	}

	rule := applicable[0]
	if len(applicable) > 1 {
		// Pause the spinner while the user picks a rule.
		s.Stop()
		rule, err = chooseRule(os.Stdin, os.Stdout, applicable)
		s.Start()
		if err != nil {
			return err
		}
	}
	Logger.Debugf("Using rule: %s", rule.String())

	return transform.EncryptNewFile(ctx, tool, target, rule)
}
