package cmd

import (
	"github.com/meysamhadeli/buroca/reports"
	"github.com/spf13/cobra"
)

var showCmd = &cobra.Command{
	Use:   "show <file>",
	Short: "Open a report with the configured viewers.",
	Long: `Open a document with the first available viewer configured for its format
(viewers.<ext> in the configuration). Text documents fall back to a
preview in the terminal.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rootDependencies, err := handleRootCommand(cmd)
		if err != nil {
			return err
		}
		return rootDependencies.Viewers.Show(cmd.Context(), rootDependencies.projectPath(reports.ReportsDirName, args[0]))
	},
}

func init() {
	rootCmd.AddCommand(showCmd)
}
