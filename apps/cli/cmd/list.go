package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/flowspec/packages/core/model"
)

var listCmd = &cobra.Command{
	Use:   "list <file|directory>...",
	Short: "List the tests in flowspec documents",
	Long: `List the tests defined in .yaml, .yml or .json test documents.

Examples:
  flowspec list api.yaml
  flowspec list ./tests/`,
	Args: cobra.MinimumNArgs(1),
	RunE: listCommand,
}

func listCommand(cmd *cobra.Command, args []string) error {
	files, err := collectFiles(args)
	if err != nil {
		return err
	}

	if len(files) == 0 {
		return fmt.Errorf("no .yaml, .yml or .json test documents found")
	}

	for i, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			fmt.Fprintf(cmd.OutOrStderr(), "Error reading %s: %v\n", file, err)
			continue
		}

		td, err := model.ParseDocument(data, file, i)
		if err != nil {
			fmt.Fprintf(cmd.OutOrStderr(), "Error parsing %s: %v\n", file, err)
			continue
		}

		fmt.Fprintf(cmd.OutOrStdout(), "\n%s:\n", file)
		fmt.Fprintf(cmd.OutOrStdout(), "  - %s (%s)\n", td.Label(), td.ID)
		if len(td.Tags) > 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "    tags: %s\n", strings.Join(td.Tags, ", "))
		}
		if td.Requires != "" {
			fmt.Fprintf(cmd.OutOrStdout(), "    requires: %s\n", td.Requires)
		}
		if td.Disabled {
			fmt.Fprintf(cmd.OutOrStdout(), "    disabled\n")
		}
	}

	return nil
}
