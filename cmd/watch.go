package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/meysamhadeli/buroca/constants/lipgloss"
	"github.com/meysamhadeli/buroca/reports"
	"github.com/meysamhadeli/buroca/watch"
	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch <template>",
	Short: "Render a template again whenever the project data or templates change.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rootDependencies, err := handleRootCommand(cmd)
		if err != nil {
			return err
		}
		entity, _ := cmd.Flags().GetString("for")
		format, _ := cmd.Flags().GetString("type")

		templatePath := rootDependencies.projectPath("templates", args[0])
		if _, err := os.Stat(templatePath); err != nil {
			return fmt.Errorf("template not found: %s", templatePath)
		}

		render := func(ctx context.Context) error {
			// Files may have changed since the last run.
			rootDependencies.Store.Clear()

			if entity != "" {
				dest := reports.DefaultName(rootDependencies.Base)(templatePath, entity, format)
				if err := rootDependencies.Orchestrator.RenderForEntity(ctx, templatePath, dest, entity, format); err != nil {
					return err
				}
				fmt.Println(lipgloss.Green.Render(fmt.Sprintf("✓ %s", dest)))
				return nil
			}
			result, err := rootDependencies.Orchestrator.RenderForAllEntities(ctx, templatePath, reports.BatchOptions{OutputFormat: format})
			if err != nil {
				return err
			}
			fmt.Println(lipgloss.Green.Render(fmt.Sprintf("✓ %d documents in %s", len(result.Written), result.Duration)))
			return nil
		}

		if err := render(cmd.Context()); err != nil {
			fmt.Println(lipgloss.Red.Render(err.Error()))
		}

		watcher, err := watch.New(rootDependencies.Base, watch.Options{
			Debounce: rootDependencies.Config.Watch.Debounce,
			Logger:   rootDependencies.Logger,
			OnChange: func(ctx context.Context, changed []string) error {
				fmt.Println(lipgloss.Gray.Render("changed: " + strings.Join(changed, ", ")))
				return render(ctx)
			},
		})
		if err != nil {
			return err
		}

		fmt.Println(lipgloss.Info.Render("Watching for changes, press Ctrl+C to stop."))
		return watcher.Run(cmd.Context())
	},
}

func init() {
	watchCmd.Flags().String("for", "", "Render for this entity only")
	watchCmd.Flags().StringP("type", "t", "", "Output format")

	rootCmd.AddCommand(watchCmd)
}
