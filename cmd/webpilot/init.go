package main

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

//go:embed templates/webpilot.yml
var scenarioTemplate embed.FS

// scenarioFileName is the default scenario file name created by init.
const scenarioFileName = "webpilot.yml"

// NewInitCmd creates the init command.
func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a starter scenario file",
		Long: `Init creates a documented starter scenario file in the current directory.

The generated file includes:
- A working scenario against example.com
- Commented examples for every step type
- Documentation of which fields each step type accepts

Examples:
  # Create webpilot.yml in the current directory
  webpilot init

  # Create a scenario file at a specific path
  webpilot init -o login-check.yml

  # Force overwrite an existing file
  webpilot init -f`,
		RunE: runInitCmd,
	}

	cmd.Flags().StringP("output", "o", scenarioFileName,
		"Output file path for the scenario")
	cmd.Flags().BoolP("force", "f", false,
		"Overwrite existing scenario file")

	return cmd
}

// runInitCmd executes the init command.
func runInitCmd(cmd *cobra.Command, _ []string) error {
	outputPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}

	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return err
	}

	// Check if file already exists
	if !force {
		if _, err := os.Stat(outputPath); err == nil {
			return fmt.Errorf("scenario file already exists: %s (use -f to overwrite)", outputPath)
		}
	}

	// Read template from embedded filesystem
	content, err := scenarioTemplate.ReadFile("templates/webpilot.yml")
	if err != nil {
		return fmt.Errorf("failed to read scenario template: %w", err)
	}

	// Create parent directories if needed
	dir := filepath.Dir(outputPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	if err := os.WriteFile(outputPath, content, 0600); err != nil {
		return fmt.Errorf("failed to write scenario file: %w", err)
	}

	fmt.Printf("Created scenario file: %s\n", outputPath)
	fmt.Println("\nEdit this file to describe your automation pipeline, then run it with:")
	fmt.Printf("  webpilot run %s\n", outputPath)

	return nil
}
