// Command booklore queries a book collection from the command line.
package main

import (
	"fmt"
	"os"

	"github.com/booklore-app/booklore/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	cmd.SilenceErrors = true
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "booklore:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
