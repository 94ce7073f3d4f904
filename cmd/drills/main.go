// Command drills edits training exercises against a shared store.
package main

import (
	"os"

	"github.com/mesh-intelligence/drills/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
