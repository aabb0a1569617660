// Package main provides the entry point for the webpilot CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for webpilot.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "webpilot",
		Short: "Scripted web automation pipelines",
		Long: `webpilot runs declarative web automation scenarios against websites.

A scenario is a YAML file describing a pipeline of steps: request a page,
parse it, follow a link, submit a form, extract a value, assert on the
result. Cookies persist across steps, so logged-in flows work the way they
do in a browser.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Add subcommands
	cmd.AddCommand(NewRunCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
