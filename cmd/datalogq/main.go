// Command datalogq validates and evaluates non-recursive Datalog programs.
package main

import (
	"os"

	"github.com/roach88/datalogq/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
