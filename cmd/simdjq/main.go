// Command simdjq is a jq-compatible JSON processor tuned for large
// documents and NDJSON streams.
package main

import (
	"os"

	"github.com/simdjq/simdjq/internal/cli"
)

func main() {
	os.Exit(cli.Execute(os.Args[1:]))
}
