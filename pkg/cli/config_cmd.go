package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage CLI configuration profiles",
	}

	cmd.AddCommand(newConfigShowCmd())
	cmd.AddCommand(newConfigSetProfileCmd())
	cmd.AddCommand(newConfigUseProfileCmd())

	return cmd
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Display current configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := LoadUserConfig()
			if err != nil {
				_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "No configuration found at %s\n", ConfigPath())
				return err
			}
			if getOutputFormat(cmd) == outputJSON {
				return printJSON(cmd.OutOrStdout(), cfg)
			}
			data, err := yaml.Marshal(cfg)
			if err != nil {
				return fmt.Errorf("marshal config: %w", err)
			}
			_, _ = fmt.Fprint(cmd.OutOrStdout(), string(data))
			return nil
		},
	}
}

func newConfigSetProfileCmd() *cobra.Command {
	var (
		name     string
		catalog  string
		database string
		output   string
		logLevel string
	)

	cmd := &cobra.Command{
		Use:     "set-profile",
		Short:   "Create or update a configuration profile",
		Example: `  metaql config set-profile --name prod --catalog /srv/metaql/catalog.db --database erp`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if name == "" {
				return fmt.Errorf("--name is required")
			}
			if cmd.Flags().Changed("output") {
				if err := validateOutputFormat(output); err != nil {
					return err
				}
			}

			cfg, err := LoadUserConfig()
			if err != nil {
				cfg = newUserConfig()
			}

			p := cfg.Profiles[name]
			if cmd.Flags().Changed("catalog") {
				p.Catalog = catalog
			}
			if cmd.Flags().Changed("database") {
				p.Database = database
			}
			if cmd.Flags().Changed("output") {
				p.Output = output
			}
			if cmd.Flags().Changed("log-level") {
				p.LogLevel = logLevel
			}
			cfg.Profiles[name] = p

			if err := SaveUserConfig(cfg); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Profile %q saved to %s\n", name, ConfigPath())
			return nil
		},
	}

	// Local flags shadow the persistent flags of the same name.
	cmd.Flags().StringVar(&name, "name", "", "Profile name (required)")
	cmd.Flags().StringVar(&catalog, "catalog", "", "Catalog file")
	cmd.Flags().StringVar(&database, "database", "", "Main database")
	cmd.Flags().StringVar(&output, "output", "", "Default output format (table, json)")
	cmd.Flags().StringVar(&logLevel, "log-level", "", "Default log level")

	return cmd
}

func newConfigUseProfileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "use-profile <name>",
		Short: "Set the current profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := LoadUserConfig()
			if err != nil {
				return err
			}
			if _, ok := cfg.Profiles[args[0]]; !ok {
				names := make([]string, 0, len(cfg.Profiles))
				for n := range cfg.Profiles {
					names = append(names, n)
				}
				sort.Strings(names)
				return fmt.Errorf("profile %q not found (available: %v)", args[0], names)
			}
			cfg.CurrentProfile = args[0]
			if err := SaveUserConfig(cfg); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Switched to profile %q\n", args[0])
			return nil
		},
	}
}
