// Command wavegrid runs, archives and verifies wave propagation simulations.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/roach88/wavegrid/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "wavegrid: %v\n", err)
		os.Exit(cli.GetExitCode(err))
	}
}
