// Package main is the entry point for the metaql CLI binary.
package main

import (
	"os"

	"metaql/pkg/cli"
)

func main() {
	os.Exit(cli.Execute())
}
