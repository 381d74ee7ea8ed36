// Package cli implements the metaql command-line interface.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"metaql/catalog"
	"metaql/engine"
	"metaql/internal/config"
)

var (
	version = "dev"
	commit  = "none"
)

// Execute runs the CLI.
func Execute() int {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		output, _ := rootCmd.PersistentFlags().GetString("output")
		if output == outputJSON {
			_ = printJSON(os.Stdout, map[string]any{"error": err.Error()})
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		return 1
	}
	return 0
}

// rootOptions holds the resolved global settings shared by subcommands.
type rootOptions struct {
	catalogPath string
	database    string
	output      string
	logLevel    string
	profile     string

	stderr io.Writer

	once sync.Once
	svc  *engine.Service
	err  error
}

func (o *rootOptions) logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(o.stderr, &slog.HandlerOptions{Level: config.ParseLevel(o.logLevel)}))
}

// loadCatalog loads the catalog named by --catalog, switching the main
// database when --database is set.
func (o *rootOptions) loadCatalog(ctx context.Context) (*catalog.Catalog, error) {
	if o.catalogPath == "" {
		return nil, fmt.Errorf("no catalog: pass --catalog, set METAQL_CATALOG or configure a profile")
	}
	cat, err := catalog.LoadFile(ctx, o.catalogPath)
	if err != nil {
		return nil, err
	}
	if o.database != "" {
		return cat.WithMain(o.database)
	}
	return cat, nil
}

// service returns the engine over the configured catalog, loading it once.
func (o *rootOptions) service(ctx context.Context) (*engine.Service, error) {
	o.once.Do(func() {
		var cat *catalog.Catalog
		cat, o.err = o.loadCatalog(ctx)
		if o.err == nil {
			o.svc = engine.NewService(cat, o.logger().With("component", "engine"))
		}
	})
	return o.svc, o.err
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{stderr: os.Stderr}

	rootCmd := &cobra.Command{
		Use:           "metaql",
		Short:         "Metadata-aware SQL rewriting",
		Long:          "Rewrites queries written against business-object names into physical T-SQL and completes metadata names.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			opts.stderr = cmd.ErrOrStderr()

			// Config file is optional
			cfg, err := LoadUserConfig()
			if err != nil {
				cfg = newUserConfig()
			}
			p, err := cfg.ActiveProfile(opts.profile)
			if err != nil {
				return err
			}

			// Apply precedence: flag > env > profile > default
			resolve := func(flag string, target *string, env, fromProfile string) {
				if cmd.Flags().Changed(flag) {
					return
				}
				if v := os.Getenv(env); v != "" {
					*target = v
				} else if fromProfile != "" {
					*target = fromProfile
				}
			}
			resolve("catalog", &opts.catalogPath, "METAQL_CATALOG", p.Catalog)
			resolve("database", &opts.database, "METAQL_MAIN_DATABASE", p.Database)
			resolve("output", &opts.output, "METAQL_OUTPUT", p.Output)
			resolve("log-level", &opts.logLevel, "LOG_LEVEL", p.LogLevel)

			return validateOutputFormat(opts.output)
		},
	}

	bindGlobalFlags(rootCmd.PersistentFlags(), opts)

	rootCmd.AddCommand(newRewriteCmd(opts))
	rootCmd.AddCommand(newCompleteCmd(opts))
	rootCmd.AddCommand(newEntitiesCmd(opts))
	rootCmd.AddCommand(newDescribeCmd(opts))
	rootCmd.AddCommand(newCatalogCmd(opts))
	rootCmd.AddCommand(newRefCmd())
	rootCmd.AddCommand(newServeCmd(opts))
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newCompletionCmd())

	return rootCmd
}

func bindGlobalFlags(fs *pflag.FlagSet, opts *rootOptions) {
	fs.StringVarP(&opts.catalogPath, "catalog", "c", "", "Catalog file (.yaml or SQLite store)")
	fs.StringVarP(&opts.database, "database", "d", "", "Main database (default: the catalog's main)")
	fs.StringVarP(&opts.output, "output", "o", outputTable, "Output format (table, json)")
	fs.StringVar(&opts.logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	fs.StringVarP(&opts.profile, "profile", "p", "", "Config profile to use")
}

func newCompletionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Args:  cobra.ExactArgs(1),
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

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the CLI version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if getOutputFormat(cmd) == outputJSON {
				return printJSON(cmd.OutOrStdout(), map[string]string{
					"version": version,
					"commit":  commit,
				})
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "metaql version %s (commit: %s)\n", version, commit)
			return nil
		},
	}
}
