// Package cli implements the dashq command line: it runs dashboards
// against a local database file without an HTTP server.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"dashquery/internal/app"
	"dashquery/internal/config"
)

var (
	version = "dev"
	commit  = "none"
)

// Output formats.
const (
	outputTable = "table"
	outputJSON  = "json"
	outputCSV   = "csv"
)

// Execute runs the CLI.
func Execute() int {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		output, _ := rootCmd.PersistentFlags().GetString("output")
		if output == outputJSON {
			_ = printJSON(os.Stdout, errorObject(err))
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		return 1
	}
	return 0
}

// rootOptions are the persistent flags shared by every command.
type rootOptions struct {
	output    string
	dbDriver  string
	dbPath    string
	schemaDir string
	seed      bool
	verbose   bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:           "dashq",
		Short:         "Dashboard query CLI",
		Long:          "Runs schema-driven dashboard queries against a local SQLite or DuckDB file.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if !cmd.Flags().Changed("output") {
				if v := os.Getenv("DASHQ_OUTPUT"); v != "" {
					opts.output = v
				} else {
					opts.output = defaultOutput(cmd.OutOrStdout())
				}
			}
			return validateOutputFormat(opts.output)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&opts.output, "output", "o", outputTable, "Output format (table, json, csv)")
	flags.StringVar(&opts.dbDriver, "db-driver", "", "Database driver: sqlite3 or duckdb (env DB_DRIVER)")
	flags.StringVar(&opts.dbPath, "db", "", "Database file (env DB_PATH)")
	flags.StringVar(&opts.schemaDir, "schema-dir", "", "Directory of additional data source schemas (env SCHEMA_DIR)")
	flags.BoolVar(&opts.seed, "seed-demo", true, "Seed demo marketplace data into an empty database (env SEED_DEMO)")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "Log to stderr")

	rootCmd.AddCommand(newSourcesCmd(opts))
	rootCmd.AddCommand(newExplainCmd(opts))
	rootCmd.AddCommand(newRunCmd(opts))
	rootCmd.AddCommand(newVersionCmd(opts))
	rootCmd.AddCommand(newCompletionCmd())

	return rootCmd
}

// loadConfig resolves the configuration with precedence flag > env > default.
func (o *rootOptions) loadConfig(flags *pflag.FlagSet) (*config.Config, error) {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return nil, err
	}
	if flags.Changed("db-driver") {
		cfg.DBDriver = o.dbDriver
	}
	if flags.Changed("db") {
		cfg.DBPath = o.dbPath
	}
	if flags.Changed("schema-dir") {
		cfg.SchemaDir = o.schemaDir
	}
	if flags.Changed("seed-demo") {
		cfg.SeedDemo = o.seed
	}
	return cfg, nil
}

func (o *rootOptions) logger(cmd *cobra.Command) *slog.Logger {
	if !o.verbose {
		return slog.New(slog.DiscardHandler)
	}
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// openApp wires the application for one command invocation.
func (o *rootOptions) openApp(cmd *cobra.Command) (*app.App, error) {
	cfg, err := o.loadConfig(cmd.Flags())
	if err != nil {
		return nil, err
	}
	return app.New(commandContext(cmd), app.Deps{Cfg: cfg, Logger: o.logger(cmd)})
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func newVersionCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the CLI version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if opts.output == outputJSON {
				return printJSON(cmd.OutOrStdout(), map[string]string{
					"version": version,
					"commit":  commit,
				})
			}
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "dashq version %s (commit: %s)\n", version, commit)
			return err
		},
	}
}

func newCompletionCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "completion [bash|zsh|fish|powershell]",
		Short:     "Generate shell completion scripts",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"bash", "zsh", "fish", "powershell"},
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(out)
			case "zsh":
				return cmd.Root().GenZshCompletion(out)
			case "fish":
				return cmd.Root().GenFishCompletion(out, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(out)
			default:
				return fmt.Errorf("unsupported shell: %s", args[0])
			}
		},
	}
}
