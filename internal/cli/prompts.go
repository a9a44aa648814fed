package cli

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/thomasbw/chart-runner/internal/assets"
	"github.com/thomasbw/chart-runner/internal/output"
)

var promptsCmd = &cobra.Command{
	Use:   "prompts",
	Short: "Manage the prompt files shipped with chart-runner",
}

var promptsInstallCmd = &cobra.Command{
	Use:   "install",
	Short: "Install bundled prompts to ~/.config/chart-runner/prompts/",
	RunE: func(cmd *cobra.Command, args []string) error {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get user home directory: %w", err)
		}

		targetDir := filepath.Join(home, ".config", "chart-runner", "prompts")
		output.Logger.Info("Installing prompts...", "target", targetDir)

		if err := os.MkdirAll(targetDir, 0755); err != nil {
			return fmt.Errorf("failed to create target directory %s: %w", targetDir, err)
		}

		entries, err := fs.ReadDir(assets.Prompts, "prompts")
		if err != nil {
			return fmt.Errorf("failed to read embedded prompts: %w", err)
		}

		count := 0
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}

			content, err := fs.ReadFile(assets.Prompts, "prompts/"+entry.Name())
			if err != nil {
				output.Logger.Error("Failed to read embedded file", "file", entry.Name(), "error", err)
				continue
			}

			targetPath := filepath.Join(targetDir, entry.Name())
			if err := os.WriteFile(targetPath, content, 0644); err != nil {
				output.Logger.Error("Failed to write to target", "path", targetPath, "error", err)
				continue
			}

			output.Logger.Info("Installed prompt", "name", entry.Name())
			count++
		}

		output.Logger.Info("Installation Complete", "total_files", count)
		return nil
	},
}

func init() {
	promptsCmd.AddCommand(promptsInstallCmd)
	rootCmd.AddCommand(promptsCmd)
}
