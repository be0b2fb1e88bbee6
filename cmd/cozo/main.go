// Command cozo is a thin CLI over pkg/engine: it reads a CozoScript file or
// stdin, runs it against an in-memory store, and prints the result table.
package main

import (
	"os"

	"github.com/cozodb/cozo/internal/logging"
)

func main() {
	root := NewRootCommand("cozo")
	RegisterRootFlags(root)
	root.AddCommand(NewRunCommand())
	root.AddCommand(NewReplCommand())

	if err := root.Execute(); err != nil {
		logging.Err(err).Msg("cozo exited with an error")
		os.Exit(1)
	}
}
