package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/flowspec/packages/core/model"
	"github.com/abdul-hamid-achik/flowspec/packages/core/resolve"
)

var validateCmd = &cobra.Command{
	Use:   "validate <file|directory>...",
	Short: "Validate test documents without executing them",
	Long: `Validate flowspec test documents for definition errors and check
that their dependency graph resolves, without sending any requests.

Examples:
  flowspec validate api.yaml
  flowspec validate ./tests/`,
	Args: cobra.MinimumNArgs(1),
	RunE: validateCommand,
}

func validateCommand(cmd *cobra.Command, args []string) error {
	files, err := collectFiles(args)
	if err != nil {
		return err
	}

	if len(files) == 0 {
		return fmt.Errorf("no .yaml, .yml or .json test documents found")
	}

	hasErrors := false
	var defs []*model.TestDefinition
	for i, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			fmt.Fprintf(cmd.OutOrStderr(), "Error in %s: %v\n", file, err)
			hasErrors = true
			continue
		}

		td, err := model.ParseDocument(data, file, i)
		if err != nil {
			fmt.Fprintf(cmd.OutOrStderr(), "Error in %s: %v\n", file, err)
			hasErrors = true
			continue
		}

		defs = append(defs, td)
		fmt.Fprintf(cmd.OutOrStdout(), "Valid: %s\n", file)
	}

	if _, err := resolve.Resolve(defs); err != nil {
		fmt.Fprintf(cmd.OutOrStderr(), "Resolution error: %v\n", err)
		hasErrors = true
	}

	if hasErrors {
		os.Exit(ExitParseError)
	}

	return nil
}
