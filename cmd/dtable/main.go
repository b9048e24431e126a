// Command dtable evaluates decision tables and commands against persistent
// state.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/dtable/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "dtable:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
