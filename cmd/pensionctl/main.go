// Command pensionctl sends contract messages to a pension server.
package main

import (
	"os"

	"github.com/warp/pension-engine/cli"
)

func main() {
	os.Exit(cli.Execute(os.Args[1:], os.Stdout, os.Stderr))
}
