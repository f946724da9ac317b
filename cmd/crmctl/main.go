// Command crmctl administers the multi-tenant CRM stores in a data directory.
package main

import (
	"fmt"
	"os"

	"github.com/datanexus/crmstore/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error [%s]: %v\n", cli.ErrorCode(err), err)
		os.Exit(cli.GetExitCode(err))
	}
}
