package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"metaql/internal/tsql"
)

const (
	outputTable = "table"
	outputJSON  = "json"
)

// getOutputFormat returns the effective output format from the root command's persistent flags.
func getOutputFormat(cmd *cobra.Command) string {
	v, _ := cmd.Root().PersistentFlags().GetString("output")
	return v
}

func validateOutputFormat(output string) error {
	if output != "" && output != outputTable && output != outputJSON {
		return fmt.Errorf("unsupported output format %q: use 'table' or 'json'", output)
	}
	return nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printTable writes rows under upper-cased headers, aligned with tabs.
func printTable(w io.Writer, headers []string, rows [][]string) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	upper := make([]string, len(headers))
	for i, h := range headers {
		upper[i] = strings.ToUpper(h)
	}
	_, _ = fmt.Fprintln(tw, strings.Join(upper, "\t"))
	for _, row := range rows {
		_, _ = fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	return tw.Flush()
}

// diagnostic is the JSON form of a tsql.Diagnostic.
type diagnostic struct {
	Code     int    `json:"code"`
	Severity string `json:"severity"`
	Line     int    `json:"line"`
	Column   int    `json:"column"`
	Offset   int    `json:"offset"`
	Message  string `json:"message"`
}

func toDiagnostics(diags []tsql.Diagnostic) []diagnostic {
	out := make([]diagnostic, 0, len(diags))
	for _, d := range diags {
		out = append(out, diagnostic{
			Code:     d.Code,
			Severity: d.Severity.String(),
			Line:     d.Line,
			Column:   d.Column,
			Offset:   d.Offset,
			Message:  d.Message,
		})
	}
	return out
}

// printDiagnostics writes one compiler-style line per diagnostic.
func printDiagnostics(w io.Writer, name string, diags []tsql.Diagnostic) {
	for _, d := range diags {
		_, _ = fmt.Fprintf(w, "%s:%d:%d: %s %d: %s\n", name, d.Line, d.Column, d.Severity, d.Code, d.Message)
	}
}
