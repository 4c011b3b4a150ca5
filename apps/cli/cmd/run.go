package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/flowspec/packages/core/config"
	"github.com/abdul-hamid-achik/flowspec/packages/core/engine"
	"github.com/abdul-hamid-achik/flowspec/packages/core/env"
	"github.com/abdul-hamid-achik/flowspec/packages/core/model"
	"github.com/abdul-hamid-achik/flowspec/packages/core/resolve"
	"github.com/abdul-hamid-achik/flowspec/packages/report"
	"github.com/abdul-hamid-achik/flowspec/packages/session"
)

var runCmd = &cobra.Command{
	Use:   "run <file|directory>...",
	Short: "Run API tests from flowspec documents",
	Long: `Run API tests defined in .yaml, .yml or .json test documents.

Examples:
  flowspec run api.yaml
  flowspec run ./tests/ --env staging
  flowspec run ./tests/ --tags smoke
  flowspec run ./tests/ --tags smoke,fast --all-tags
  flowspec run api.yaml --junit results.xml`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCommand,
}

var (
	envFlag         string
	configFlag      string
	tagsFlag        string
	allTagsFlag     bool
	verboseFlag     bool
	quietFlag       bool
	noColorFlag     bool
	bailFlag        bool
	timeoutFlag     int
	concurrencyFlag int
	rateFlag        float64
	seedFlag        int64
	insecureFlag    bool
	proxyFlag       string
	junitFlag       string
	envFileFlag     string
	dryRunFlag      bool
)

func init() {
	runCmd.Flags().StringVarP(&envFlag, "env", "e", getEnvString("FLOWSPEC_ENV", ""), "Environment to use (env: FLOWSPEC_ENV)")
	runCmd.Flags().StringVar(&configFlag, "config", getEnvString("FLOWSPEC_CONFIG", ""), "Path to config file (env: FLOWSPEC_CONFIG)")
	runCmd.Flags().StringVar(&envFileFlag, "env-file", getEnvString("FLOWSPEC_ENV_FILE", ""), "Load a .env file into the global scope (env: FLOWSPEC_ENV_FILE)")
	runCmd.Flags().StringVarP(&tagsFlag, "tags", "t", getEnvString("FLOWSPEC_TAGS", ""), "Run only tests with specified tags (comma-separated) (env: FLOWSPEC_TAGS)")
	runCmd.Flags().BoolVar(&allTagsFlag, "all-tags", false, "Require every listed tag instead of any")

	runCmd.Flags().BoolVarP(&verboseFlag, "verbose", "v", false, "Verbose output")
	runCmd.Flags().BoolVarP(&quietFlag, "quiet", "q", getEnvBool("FLOWSPEC_QUIET", false), "Suppress all output except errors (env: FLOWSPEC_QUIET)")
	runCmd.Flags().BoolVar(&noColorFlag, "no-color", getEnvBool("FLOWSPEC_NO_COLOR", false), "Disable colored output (env: FLOWSPEC_NO_COLOR)")
	runCmd.Flags().StringVar(&junitFlag, "junit", getEnvString("FLOWSPEC_JUNIT", ""), "Write JUnit XML report to file (env: FLOWSPEC_JUNIT)")

	runCmd.Flags().BoolVar(&bailFlag, "bail", getEnvBool("FLOWSPEC_BAIL", false), "Stop dispatching after the first failed test (env: FLOWSPEC_BAIL)")
	runCmd.Flags().IntVar(&timeoutFlag, "timeout", 0, "Request timeout in milliseconds (0 = config value)")
	runCmd.Flags().IntVar(&concurrencyFlag, "concurrency", getEnvInt("FLOWSPEC_CONCURRENCY", 0), "Parallel test workers (0 = config value) (env: FLOWSPEC_CONCURRENCY)")
	runCmd.Flags().Float64VarP(&rateFlag, "rate", "r", 0, "Request rate limit per second (0 = unlimited)")
	runCmd.Flags().Int64Var(&seedFlag, "seed", 0, "Generation seed for reproducible runs (0 = random)")
	runCmd.Flags().BoolVar(&dryRunFlag, "dry-run", false, "Resolve and show the execution order without dispatching")

	runCmd.Flags().StringVar(&proxyFlag, "proxy", getEnvString("FLOWSPEC_PROXY", ""), "Proxy URL for HTTP requests (env: FLOWSPEC_PROXY)")
	runCmd.Flags().BoolVarP(&insecureFlag, "insecure", "k", getEnvBool("FLOWSPEC_INSECURE", false), "Disable SSL certificate validation (env: FLOWSPEC_INSECURE)")
}

// Environment variable helpers
func getEnvString(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		return val == "true" || val == "1" || val == "yes"
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func runCommand(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig()
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		os.Exit(ExitConfigError)
	}

	reporter := report.NewConsoleReporter(
		report.WithWriter(cmd.OutOrStdout()),
		report.WithVerbose(verboseFlag),
		report.WithNoColor(noColorFlag || quietFlag),
		report.WithSecrets(secretValues(cfg)),
	)

	defs, parseErrs, err := loadDefinitions(args)
	if err != nil {
		reporter.RenderError(err)
		os.Exit(ExitParseError)
	}
	for _, perr := range parseErrs {
		// A malformed document skips only itself.
		reporter.RenderError(perr)
	}
	if len(defs) == 0 {
		reporter.RenderError(errors.New("no loadable test documents"))
		os.Exit(ExitParseError)
	}

	defs = engine.FilterByTags(defs, splitTags(tagsFlag), allTagsFlag)
	if len(defs) == 0 {
		reporter.RenderError(errors.New("no tests match the tag filter"))
		os.Exit(ExitParseError)
	}

	plan, err := resolve.Resolve(defs)
	if err != nil {
		reporter.RenderError(err)
		os.Exit(ExitParseError)
	}

	if dryRunFlag {
		for i, td := range plan.Order {
			fmt.Fprintf(cmd.OutOrStdout(), "%3d. %s (%s)\n", i+1, td.Label(), td.ID)
		}
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	agg := engine.New(cfg).Run(ctx, plan)

	if !quietFlag {
		reporter.Render(agg)
	}

	junitPath := junitFlag
	if junitPath == "" {
		junitPath = cfg.JUnitPath
	}
	if junitPath != "" {
		if err := writeJUnit(junitPath, cfg, agg); err != nil {
			reporter.RenderError(err)
		}
	}

	if code := agg.ExitStatus(); code != ExitSuccess {
		os.Exit(code)
	}
	return nil
}

func buildConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(configFlag)
	if err != nil {
		return nil, err
	}

	if envFileFlag != "" {
		cfg, err = env.ApplyDotEnv(cfg, envFileFlag)
		if err != nil {
			return nil, err
		}
	}
	cfg = env.Apply(cfg, os.Environ())

	overrides := &config.Config{
		Environment: envFlag,
		Timeout:     timeoutFlag,
		Concurrency: concurrencyFlag,
		RateLimit:   rateFlag,
		Proxy:       proxyFlag,
	}
	if seedFlag != 0 {
		overrides.Seed = &seedFlag
	}
	if bailFlag {
		overrides.ContinueOnFailure = config.BoolPtr(false)
	}
	if insecureFlag {
		overrides.ValidateSSL = config.BoolPtr(false)
	}
	if verboseFlag {
		overrides.Verbose = config.BoolPtr(true)
	}
	if noColorFlag {
		overrides.NoColor = config.BoolPtr(true)
	}

	return cfg.Merge(overrides), nil
}

func loadDefinitions(args []string) ([]*model.TestDefinition, []error, error) {
	files, err := collectFiles(args)
	if err != nil {
		return nil, nil, err
	}
	if len(files) == 0 {
		return nil, nil, errors.New("no .yaml, .yml or .json test documents found")
	}

	docs := make([][]byte, 0, len(files))
	labels := make([]string, 0, len(files))
	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, nil, err
		}
		docs = append(docs, data)
		labels = append(labels, file)
	}

	defs, parseErrs := model.ParseDocuments(docs, labels)
	return defs, parseErrs, nil
}

func collectFiles(args []string) ([]string, error) {
	var files []string

	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("cannot access %s: %w", arg, err)
		}

		if info.IsDir() {
			err := filepath.Walk(arg, func(path string, info os.FileInfo, err error) error {
				if err != nil {
					return err
				}
				if !info.IsDir() && isTestDocument(path) {
					files = append(files, path)
				}
				return nil
			})
			if err != nil {
				return nil, err
			}
		} else {
			if isTestDocument(arg) {
				files = append(files, arg)
			}
		}
	}

	return files, nil
}

func isTestDocument(path string) bool {
	switch filepath.Ext(path) {
	case ".yaml", ".yml", ".json":
		return true
	}
	return false
}

func splitTags(raw string) []string {
	var tags []string
	for _, t := range strings.Split(raw, ",") {
		t = strings.TrimSpace(t)
		if t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

func secretValues(cfg *config.Config) []string {
	var out []string
	for _, v := range cfg.Secrets {
		out = append(out, v)
	}
	return out
}

func writeJUnit(path string, cfg *config.Config, agg *session.Aggregator) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("cannot write junit report: %w", err)
	}
	defer f.Close()

	return report.NewJUnitReporter(secretValues(cfg)).Write(f, agg)
}
