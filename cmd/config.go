package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tamahere/sops-pilot/internal/configs"
	"github.com/tamahere/sops-pilot/internal/ui"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage sops-pilot user settings",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Writes a config file with the default settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := initRun(); err != nil {
			return err
		}

		if err := configs.SaveUserConfig(userConfig); err != nil {
			return Logger.ErrorfAndReturn("%v", err)
		}
		fmt.Println(ui.Success.Sprint("✓") + " Wrote settings to " + ui.Path.Sprint(configs.UserPilotSettings.UserConfigsPath))
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Prints the active settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := initRun(); err != nil {
			return err
		}

		fmt.Println("sops binary:      " + ui.Highlight.Sprint(userConfig.SopsBinary))
		fmt.Println("working suffix:   " + ui.Highlight.Sprint(userConfig.WorkingSuffix))
		fmt.Println("cleanup debounce: " + ui.Highlight.Sprint(userConfig.CleanupDebounce()))
		editor := userConfig.Editor
		if editor == "" {
			editor = ui.Muted.Sprint("$VISUAL / $EDITOR")
		} else {
			editor = ui.Highlight.Sprint(editor)
		}
		fmt.Println("editor:           " + editor)
		return nil
	},
}

func init() {
	AddCommonFlags(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
}
