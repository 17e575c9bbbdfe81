package main

import (
	"fmt"
	"os"

	"github.com/common-nighthawk/go-figure"
	"github.com/spf13/cobra"

	"github.com/tamahere/sops-pilot/cmd"
)

var rootCmd = &cobra.Command{
	Use:   "sops-pilot",
	Short: "sops-pilot - Transparent editing of sops-encrypted files.",
	Long: `sops-pilot is a companion for editing sops-encrypted configuration files:
it decrypts on open, re-encrypts on save, and encrypts new plaintext
files according to your project's .sops.yaml creation rules. All
cryptography is delegated to the sops binary.

Usage:
  sops-pilot <command> [flags]

Available Commands:
  edit       Decrypt a file, edit it, and re-encrypt on save
  encrypt    Encrypt plaintext files under the matching creation rule
  rules      Show which creation rules apply to a path
  clean      Remove stray decrypted working copies
  serve      Run the editor session daemon on stdin/stdout
  config     Manage user settings

Run 'sops-pilot help <command>' for more details on a specific command.
`,
	Run: func(c *cobra.Command, args []string) {
		figure.NewFigure("sops-pilot", "", true).Print()
		fmt.Println("Run 'sops-pilot --help' to see available commands.")
	},
}

func main() {
	for _, c := range cmd.Commands() {
		rootCmd.AddCommand(c)
	}
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
