package cmd

import (
	"bufio"
	"fmt"
	"os"

	"github.com/meysamhadeli/buroca/constants/lipgloss"
	"github.com/meysamhadeli/buroca/utils"
	"github.com/spf13/cobra"
)

var convertCmd = &cobra.Command{
	Use:   "convert <source> <destination>",
	Short: "Convert a document to another format.",
	Long: `Convert a document with the configured converters: markdown to html runs in
process, other pairs use pandoc or LibreOffice. Formats are taken from the
file extensions unless --from or --to is given.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		rootDependencies, err := handleRootCommand(cmd)
		if err != nil {
			return err
		}
		from, _ := cmd.Flags().GetString("from")
		to, _ := cmd.Flags().GetString("to")
		force, _ := cmd.Flags().GetBool("force")

		src := rootDependencies.projectPath("reports", args[0])
		dest := rootDependencies.projectPath("reports", args[1])

		if _, err := os.Stat(dest); err == nil && !force {
			ok, err := utils.ConfirmPrompt(cmd.Context(), bufio.NewReader(os.Stdin), os.Stdout, fmt.Sprintf("%s exists. Overwrite?", dest))
			if err != nil {
				return err
			}
			if !ok {
				fmt.Println(lipgloss.Yellow.Render("Conversion cancelled."))
				return nil
			}
		}

		if err := rootDependencies.Converter.Convert(cmd.Context(), src, dest, from, to); err != nil {
			return err
		}
		fmt.Println(lipgloss.Green.Render(fmt.Sprintf("✓ %s", dest)))
		return nil
	},
}

func init() {
	convertCmd.Flags().String("from", "", "Source format")
	convertCmd.Flags().String("to", "", "Destination format")
	convertCmd.Flags().BoolP("force", "f", false, "Overwrite the destination without asking")

	rootCmd.AddCommand(convertCmd)
}
