// Command oefq compiles, encodes and searches OEF data model descriptions.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/oefquery/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
