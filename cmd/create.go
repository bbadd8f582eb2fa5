package cmd

import (
	"fmt"
	"os"

	"github.com/meysamhadeli/buroca/constants/lipgloss"
	"github.com/meysamhadeli/buroca/progress"
	"github.com/meysamhadeli/buroca/reports"
	"github.com/spf13/cobra"
)

// createCmd: buroca create
var createCmd = &cobra.Command{
	Use:   "create <template>",
	Short: "Render a template for one entity or for every entity.",
	Long: `The 'create' command renders a template found in templates/ against the
project data. With --for it renders a single entity, otherwise one document
is written to reports/ for every entity of the per-entity resource groups.
Use --type to convert the rendered documents (e.g. pdf).`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rootDependencies, err := handleRootCommand(cmd)
		if err != nil {
			return err
		}
		entity, _ := cmd.Flags().GetString("for")
		format, _ := cmd.Flags().GetString("type")
		output, _ := cmd.Flags().GetString("output")
		show, _ := cmd.Flags().GetBool("show")
		keepGoing, _ := cmd.Flags().GetBool("keep-going")

		templatePath := rootDependencies.projectPath("templates", args[0])
		if _, err := os.Stat(templatePath); err != nil {
			return fmt.Errorf("template not found: %s", templatePath)
		}

		if entity != "" {
			return handleCreateForEntity(cmd, rootDependencies, templatePath, entity, format, output, show)
		}
		return handleCreateForAll(cmd, rootDependencies, templatePath, format, keepGoing)
	},
}

func init() {
	createCmd.Flags().String("for", "", "Render for this entity only")
	createCmd.Flags().StringP("type", "t", "", "Output format (e.g. pdf, html, tex); defaults to the template format")
	createCmd.Flags().StringP("output", "o", "", "Destination file when rendering a single entity")
	createCmd.Flags().Bool("show", false, "Open the document after rendering a single entity")
	createCmd.Flags().Bool("keep-going", false, "Skip entities that fail instead of stopping")

	rootCmd.AddCommand(createCmd)
}

func handleCreateForEntity(cmd *cobra.Command, deps *RootDependencies, templatePath, entity, format, output string, show bool) error {
	dest := output
	if dest == "" {
		dest = reports.DefaultName(deps.Base)(templatePath, entity, format)
	}

	if err := deps.Orchestrator.RenderForEntity(cmd.Context(), templatePath, dest, entity, format); err != nil {
		return err
	}
	fmt.Println(lipgloss.Green.Render(fmt.Sprintf("✓ %s", dest)))

	if show {
		return deps.Viewers.Show(cmd.Context(), dest)
	}
	return nil
}

func handleCreateForAll(cmd *cobra.Command, deps *RootDependencies, templatePath, format string, keepGoing bool) error {
	tracker := progress.NewProgressTracker(false)

	opts := reports.BatchOptions{
		OutputFormat: format,
		Progress: func(index, total int, entity string) {
			if index == 1 {
				tracker.Start(fmt.Sprintf("Rendering %s", templatePath), total)
			}
			tracker.Step(index, total, entity)
		},
	}
	if keepGoing {
		opts.OnError = func(entity string, err error) error {
			tracker.Skipped(entity, err)
			return nil
		}
	}

	result, err := deps.Orchestrator.RenderForAllEntities(cmd.Context(), templatePath, opts)
	tracker.Finish(len(result.Written), result.Duration)
	if err != nil {
		return err
	}

	for _, path := range result.Written {
		fmt.Println(lipgloss.Green.Render(fmt.Sprintf("✓ %s", path)))
	}
	tracker.DisplaySummary()
	return nil
}
