package cmd

import (
	"github.com/spf13/cobra"

	"github.com/tamahere/sops-pilot/internal/configs"
	logger "github.com/tamahere/sops-pilot/internal/logging"
)

var (
	verbose bool
	debug   bool
	Logger  logger.Logger

	userConfig *configs.UserConfig
)

// AddCommonFlags registers the shared verbosity flags on a command.
func AddCommonFlags(c *cobra.Command) {
	c.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	c.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug output")
}

// initRun prepares the logger, user settings, and project settings. Every
// command calls it first thing in RunE.
func initRun() error {
	Logger = logger.Logger{Verbose: verbose, Debug: debug}
	Logger.Debugf("Initializing with verbose=%t, debug=%t", verbose, debug)

	config, err := configs.LoadUserConfig()
	if err != nil {
		return Logger.ErrorfAndReturn("failed to load user config: %v", err)
	}
	userConfig = config

	if err := configs.InitProjectSettings(); err != nil {
		return Logger.ErrorfAndReturn("failed to init project settings: %v", err)
	}
	Logger.Debugf("Project name: %s, Project path: %s",
		configs.ProjectPilotSettings.ProjectName, configs.ProjectPilotSettings.ProjectPath)

	return nil
}

// Commands returns all top-level sops-pilot commands for registration.
func Commands() []*cobra.Command {
	return []*cobra.Command{
		editCmd,
		encryptCmd,
		rulesCmd,
		cleanCmd,
		serveCmd,
		configCmd,
	}
}
