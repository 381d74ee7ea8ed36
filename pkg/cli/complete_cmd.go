package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

type suggestionOutput struct {
	Text     string `json:"text"`
	Offset   int    `json:"offset"`
	Length   int    `json:"length"`
	Category string `json:"category"`
	Rank     int    `json:"rank"`
}

type completeOutput struct {
	Context     string             `json:"context"`
	Identifier  string             `json:"identifier"`
	Offset      int                `json:"offset"`
	Length      int                `json:"length"`
	Suggestions []suggestionOutput `json:"suggestions"`
	Diagnostics []diagnostic       `json:"diagnostics"`
}

func newCompleteCmd(opts *rootOptions) *cobra.Command {
	var offset int

	cmd := &cobra.Command{
		Use:   "complete [file]",
		Short: "Suggest metadata names at a position in a script",
		Long: `Prints completion suggestions for the identifier at --offset, counted in
characters from the start of the script. Without a file the script is read
from stdin.`,
		Example: `  printf 'SELECT * FROM Спр' | metaql complete -c catalog.yaml --offset 17`,
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := ""
			if len(args) == 1 {
				name = args[0]
			}
			in, err := readScript(cmd, name)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("offset") {
				offset = len([]rune(in.Text))
			}
			svc, err := opts.service(cmd.Context())
			if err != nil {
				return err
			}
			res, err := svc.Complete(cmd.Context(), in.Text, offset)
			if err != nil {
				return err
			}

			if getOutputFormat(cmd) == outputJSON {
				out := completeOutput{
					Context:     res.Context.Kind.String(),
					Identifier:  res.Context.Identifier,
					Offset:      res.Context.Offset,
					Length:      res.Context.Length,
					Suggestions: make([]suggestionOutput, 0, len(res.Suggestions)),
					Diagnostics: toDiagnostics(res.Diagnostics),
				}
				for _, s := range res.Suggestions {
					out.Suggestions = append(out.Suggestions, suggestionOutput(s))
				}
				return printJSON(cmd.OutOrStdout(), out)
			}
			rows := make([][]string, 0, len(res.Suggestions))
			for _, s := range res.Suggestions {
				rows = append(rows, []string{s.Text, s.Category, strconv.Itoa(s.Rank)})
			}
			if len(rows) == 0 {
				_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "no suggestions (context: %s)\n", res.Context.Kind)
				return nil
			}
			return printTable(cmd.OutOrStdout(), []string{"text", "category", "rank"}, rows)
		},
	}

	cmd.Flags().IntVar(&offset, "offset", 0, "Cursor position in characters (default: end of script)")

	return cmd
}
