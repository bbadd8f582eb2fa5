package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/meysamhadeli/buroca/constants/lipgloss"
	"github.com/meysamhadeli/buroca/reports"
	"github.com/spf13/cobra"
)

var joinCmd = &cobra.Command{
	Use:   "join <pattern> <destination>",
	Short: "Join the pdf reports matching a pattern into one file.",
	Long: `Join the pdf files of reports/ matching a glob pattern (e.g. "letter-*.pdf"
or "**/*.pdf") into a single document, in name order.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		rootDependencies, err := handleRootCommand(cmd)
		if err != nil {
			return err
		}

		reportsDir := filepath.Join(rootDependencies.Base, reports.ReportsDirName)
		matches, err := doublestar.Glob(os.DirFS(reportsDir), filepath.ToSlash(args[0]))
		if err != nil {
			return fmt.Errorf("invalid pattern %q: %w", args[0], err)
		}
		dest := rootDependencies.projectPath(reports.ReportsDirName, args[1])

		var files []string
		for _, match := range matches {
			path := filepath.Join(reportsDir, filepath.FromSlash(match))
			if path != dest {
				files = append(files, path)
			}
		}
		if len(files) == 0 {
			return fmt.Errorf("no reports match %q", args[0])
		}
		sort.Strings(files)

		if err := rootDependencies.Converter.Join(cmd.Context(), files, dest); err != nil {
			return err
		}
		fmt.Println(lipgloss.Green.Render(fmt.Sprintf("✓ joined %d files into %s", len(files), dest)))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(joinCmd)
}
