package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"metaql/catalog"
)

func newCatalogCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Convert and inspect catalog files",
	}
	cmd.AddCommand(newCatalogImportCmd())
	cmd.AddCommand(newCatalogExportCmd())
	cmd.AddCommand(newCatalogDatabasesCmd(opts))
	return cmd
}

func newCatalogImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "import <catalog.yaml> <store.db>",
		Short:   "Import a YAML catalog into a SQLite store",
		Long:    "Loads a catalog and saves it into a SQLite store, replacing the store's previous contents.",
		Example: `  metaql catalog import catalog.yaml catalog.db`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := catalog.LoadFile(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			store, err := catalog.OpenStore(cmd.Context(), args[1])
			if err != nil {
				return err
			}
			defer store.Close() //nolint:errcheck
			if err := store.Save(cmd.Context(), cat); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "imported %d database(s) into %s\n", len(cat.Databases()), args[1])
			return nil
		},
	}
}

func newCatalogExportCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "export <catalog> [out.yaml]",
		Short:   "Write a catalog as YAML",
		Example: `  metaql catalog export catalog.db catalog.yaml`,
		Args:    cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := catalog.LoadFile(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if len(args) == 1 {
				return catalog.Encode(cmd.OutOrStdout(), cat)
			}
			f, err := os.Create(args[1]) //nolint:gosec // path is caller-controlled
			if err != nil {
				return fmt.Errorf("create %s: %w", args[1], err)
			}
			if err := catalog.Encode(f, cat); err != nil {
				_ = f.Close()
				return err
			}
			return f.Close()
		},
	}
}

func newCatalogDatabasesCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "databases",
		Short: "List the databases of the catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cat, err := opts.loadCatalog(cmd.Context())
			if err != nil {
				return err
			}
			type databaseOutput struct {
				Name    string `json:"name"`
				Main    bool   `json:"main"`
				Objects int    `json:"objects"`
			}
			var out []databaseOutput
			for _, ib := range cat.Databases() {
				out = append(out, databaseOutput{Name: ib.Name(), Main: ib == cat.Main(), Objects: len(ib.All())})
			}
			if getOutputFormat(cmd) == outputJSON {
				return printJSON(cmd.OutOrStdout(), out)
			}
			rows := make([][]string, 0, len(out))
			for _, d := range out {
				mark := ""
				if d.Main {
					mark = "*"
				}
				rows = append(rows, []string{d.Name, mark, fmt.Sprint(d.Objects)})
			}
			return printTable(cmd.OutOrStdout(), []string{"database", "main", "objects"}, rows)
		},
	}
}
