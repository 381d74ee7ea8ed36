package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// stdinName labels scripts read from standard input.
const stdinName = "<stdin>"

type scriptInput struct {
	Name string
	Text string
}

// readStdin reads a script from the command's input. An interactive
// terminal is refused so that the command does not appear to hang.
func readStdin(cmd *cobra.Command) (scriptInput, error) {
	in := cmd.InOrStdin()
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return scriptInput{}, errors.New("no input: pass a file or pipe a script on stdin")
	}
	data, err := io.ReadAll(in)
	if err != nil {
		return scriptInput{}, fmt.Errorf("read stdin: %w", err)
	}
	return scriptInput{Name: stdinName, Text: string(data)}, nil
}

// readScript reads the named file, or standard input for "" and "-".
func readScript(cmd *cobra.Command, name string) (scriptInput, error) {
	if name == "" || name == "-" {
		return readStdin(cmd)
	}
	data, err := os.ReadFile(name) //nolint:gosec // path is caller-controlled
	if err != nil {
		return scriptInput{}, fmt.Errorf("read script: %w", err)
	}
	return scriptInput{Name: name, Text: string(data)}, nil
}
