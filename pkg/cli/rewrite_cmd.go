package cli

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"metaql/sqlrewrite"
)

type rewriteOutput struct {
	File        string       `json:"file"`
	SQL         string       `json:"sql"`
	Diagnostics []diagnostic `json:"diagnostics"`
	HasErrors   bool         `json:"has_errors"`
}

func newRewriteCmd(opts *rootOptions) *cobra.Command {
	var (
		params []string
		strict bool
		jobs   int
	)

	cmd := &cobra.Command{
		Use:   "rewrite [file...]",
		Short: "Rewrite scripts into physical T-SQL",
		Long: `Rewrites each script against the catalog. Without files the script is
read from stdin. Diagnostics go to stderr; the command fails when a script
does not parse, or on any diagnostic with --strict.`,
		Example: `  metaql rewrite -c catalog.yaml query.sql
  echo "SELECT Код FROM Справочник.Номенклатура" | metaql rewrite -c catalog.yaml
  metaql rewrite -c catalog.yaml --param code=000000001 report.sql`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if jobs < 1 {
				return fmt.Errorf("--jobs must be at least 1")
			}
			bound, err := parseParams(params)
			if err != nil {
				return err
			}
			svc, err := opts.service(cmd.Context())
			if err != nil {
				return err
			}

			names := args
			if len(names) == 0 {
				names = []string{""}
			}
			inputs := make([]scriptInput, len(names))
			for i, name := range names {
				if inputs[i], err = readScript(cmd, name); err != nil {
					return err
				}
			}

			// One catalog snapshot serves every file concurrently.
			results := make([]sqlrewrite.Result, len(inputs))
			g, ctx := errgroup.WithContext(cmd.Context())
			g.SetLimit(jobs)
			for i, in := range inputs {
				g.Go(func() error {
					res, err := svc.RewriteWithParams(ctx, in.Text, bound)
					if err != nil {
						return fmt.Errorf("%s: %w", in.Name, err)
					}
					results[i] = res
					return nil
				})
			}
			if err := g.Wait(); err != nil {
				return err
			}
			return printRewrites(cmd, inputs, results, strict)
		},
	}

	cmd.Flags().StringArrayVar(&params, "param", nil, "Bind a DECLAREd variable: name=value (repeatable)")
	cmd.Flags().BoolVar(&strict, "strict", false, "Fail on warnings as well as errors")
	cmd.Flags().IntVarP(&jobs, "jobs", "j", runtime.GOMAXPROCS(0), "Number of scripts rewritten concurrently")

	return cmd
}

// parseParams reads name=value pairs. Values are typed by
// sqlrewrite.ParseParamValue.
func parseParams(pairs []string) (map[string]any, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		name, value, ok := strings.Cut(pair, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" || name == "@" {
			return nil, fmt.Errorf("invalid --param %q: want name=value", pair)
		}
		out[name] = sqlrewrite.ParseParamValue(value)
	}
	return out, nil
}

func printRewrites(cmd *cobra.Command, inputs []scriptInput, results []sqlrewrite.Result, strict bool) error {
	failed := 0
	for _, res := range results {
		if res.HasErrors() || (strict && len(res.Diagnostics) > 0) {
			failed++
		}
	}

	if getOutputFormat(cmd) == outputJSON {
		out := make([]rewriteOutput, len(results))
		for i, res := range results {
			out[i] = rewriteOutput{
				File:        inputs[i].Name,
				SQL:         res.SQL,
				Diagnostics: toDiagnostics(res.Diagnostics),
				HasErrors:   res.HasErrors(),
			}
		}
		if err := printJSON(cmd.OutOrStdout(), out); err != nil {
			return err
		}
	} else {
		w := cmd.OutOrStdout()
		for i, res := range results {
			if len(results) > 1 {
				_, _ = fmt.Fprintf(w, "-- %s\n", inputs[i].Name)
			}
			_, _ = fmt.Fprintln(w, res.SQL)
			printDiagnostics(cmd.ErrOrStderr(), inputs[i].Name, res.Diagnostics)
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d script(s) failed", failed, len(results))
	}
	return nil
}
