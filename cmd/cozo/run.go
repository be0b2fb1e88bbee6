package main

import (
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/cozodb/cozo/internal/storage/memkv"
	"github.com/cozodb/cozo/internal/value"
	"github.com/cozodb/cozo/pkg/engine"
)

func readAll(r io.Reader) ([]byte, error) { return io.ReadAll(r) }

// NewRunCommand returns `cozo run <file>`, which executes one script from a
// file (or stdin, with `-`) against a fresh in-memory store.
func NewRunCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "run <file>",
		Short: "run a CozoScript file against a fresh in-memory store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var src []byte
			var err error
			if args[0] == "-" {
				src, err = readAll(os.Stdin)
			} else {
				src, err = os.ReadFile(args[0])
			}
			if err != nil {
				return err
			}

			e := engine.Open(memkv.New())
			res, err := e.Run(cmd.Context(), string(src), map[string]value.Value{})
			if err != nil {
				return err
			}
			printResult(res)
			return nil
		},
	}
}
