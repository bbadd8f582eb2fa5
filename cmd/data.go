package cmd

import (
	"fmt"
	"sort"

	"github.com/meysamhadeli/buroca/constants/lipgloss"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// dataCmd represents the data command
var dataCmd = &cobra.Command{
	Use:   "data",
	Short: "Show the resource groups and entities of the project.",
	Long: `The 'data' command lists the resource groups discovered under data/, the
file chosen for each and the entities of the per-entity groups. With --for it
prints the namespace a template sees for one entity; with --stats it loads
every entity and reports parse cache statistics.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		entity, _ := cmd.Flags().GetString("for")
		stats, _ := cmd.Flags().GetBool("stats")

		rootDependencies, err := handleRootCommand(cmd)
		if err != nil {
			return err
		}
		return handleDataCommand(rootDependencies, entity, stats)
	},
}

func init() {
	dataCmd.Flags().String("for", "", "Print the namespace of this entity")
	dataCmd.Flags().BoolP("stats", "s", false, "Show parse cache statistics")

	rootCmd.AddCommand(dataCmd)
}

func handleDataCommand(deps *RootDependencies, entity string, showStats bool) error {
	if entity != "" {
		ns, err := deps.Store.LoadEntityNamespace(entity)
		if err != nil {
			return err
		}
		out, err := yaml.Marshal(map[string]interface{}(ns))
		if err != nil {
			return err
		}
		fmt.Print(string(out))
		return nil
	}

	groups, err := deps.Store.Groups()
	if err != nil {
		return err
	}
	fmt.Println(lipgloss.Info.Render("Resource groups:"))
	if len(groups) == 0 {
		fmt.Println(lipgloss.Yellow.Render(fmt.Sprintf("  no data found in %s", deps.Store.DataDir())))
	}
	for _, group := range groups {
		fmt.Printf("  %-20s %-10s %s\n", group.Name, group.Kind, lipgloss.Gray.Render(group.Path))
	}

	names, err := deps.Store.EntityNames()
	if err != nil {
		return err
	}
	fmt.Println(lipgloss.Info.Render(fmt.Sprintf("Entities (%d):", len(names))))
	for _, name := range names {
		fmt.Printf("  %s\n", name)
	}

	if !showStats {
		return nil
	}
	if _, err := deps.Store.LoadAllEntities(); err != nil {
		return err
	}

	stats := deps.Store.GetPerformanceStats()
	keys := make([]string, 0, len(stats))
	for key := range stats {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	fmt.Println(lipgloss.Info.Render("Cache Statistics:"))
	for _, key := range keys {
		fmt.Printf("  %-20s %v\n", key, stats[key])
	}
	return nil
}
