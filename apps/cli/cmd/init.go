package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/flowspec/packages/core/config"
)

var forceInit bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a new flowspec project",
	Long: `Initialize a new flowspec project in the current directory.

This creates:
  - .flowspec.config.json  - Configuration file with globals per environment
  - example.yaml           - Example test document

Examples:
  flowspec init
  flowspec init --force`,
	RunE: initCommand,
}

func init() {
	initCmd.Flags().BoolVarP(&forceInit, "force", "f", false, "Overwrite existing files")
	rootCmd.AddCommand(initCmd)
}

func initCommand(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return err
	}

	configFile := filepath.Join(cwd, config.ConfigFilenames[0])
	exampleFile := filepath.Join(cwd, "example.yaml")

	if !forceInit {
		for _, f := range []string{configFile, exampleFile} {
			if _, err := os.Stat(f); err == nil {
				return fmt.Errorf("file already exists: %s (use --force to overwrite)", f)
			}
		}
	}

	cfg := config.DefaultConfig()
	cfg.Globals = []config.Global{
		{Name: "host", Value: "http://localhost:3000", Env: "dev"},
		{Name: "host", Value: "https://staging.api.example.com", Env: "staging"},
		{Name: "host", Value: "https://api.example.com", Env: "prod"},
	}

	if err := cfg.SaveConfig(configFile); err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created: %s\n", configFile)

	exampleContent := `name: Example user flow
id: example
tags: smoke
variables:
  - name: username
    type: String
    minLength: 6
    maxLength: 12
stages:
  - name: create user
    request:
      method: POST
      url: ${host}/users
      body:
        name: ${username}
    response:
      status: 201
      extract:
        - name: userId
          field: id
  - name: fetch user
    request:
      url: ${host}/users/${userId}
    response:
      status: 200
      bodySchema:
        type: Object
        schema:
          id:
            type: Int
          name:
            type: String
cleanup:
  always:
    method: DELETE
    url: ${host}/users/${userId}
`

	if err := os.WriteFile(exampleFile, []byte(exampleContent), 0644); err != nil {
		return fmt.Errorf("failed to create example file: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created: %s\n", exampleFile)

	fmt.Fprintf(cmd.OutOrStdout(), "\nflowspec project initialized!\n")
	fmt.Fprintf(cmd.OutOrStdout(), "Run 'flowspec run example.yaml' to execute the example test.\n")

	return nil
}
