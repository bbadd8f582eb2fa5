package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/meysamhadeli/buroca/constants/lipgloss"
	"github.com/meysamhadeli/buroca/reports"
	"github.com/meysamhadeli/buroca/resources"
	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Create the data/, templates/ and reports/ directories of a project.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := "."
		if len(args) == 1 {
			path = args[0]
		}
		return handleInitCommand(path)
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func handleInitCommand(path string) error {
	for _, dir := range []string{resources.DataDirName, "templates", reports.ReportsDirName} {
		full := filepath.Join(path, dir)
		if _, err := os.Stat(full); err == nil {
			fmt.Println(lipgloss.Gray.Render(fmt.Sprintf("  exists   %s", full)))
			continue
		}
		if err := os.MkdirAll(full, 0755); err != nil {
			return fmt.Errorf("failed to create %s: %w", full, err)
		}
		fmt.Println(lipgloss.Green.Render(fmt.Sprintf("  created  %s", full)))
	}
	fmt.Println(lipgloss.Green.Render("✓ Project directories are ready!"))
	return nil
}
