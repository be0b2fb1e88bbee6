package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cozodb/cozo/internal/storage/memkv"
	"github.com/cozodb/cozo/internal/value"
	"github.com/cozodb/cozo/pkg/engine"
)

// NewReplCommand returns `cozo repl`, a line-oriented read-eval-print loop
// over one in-memory store shared across scripts. A script is terminated by
// a blank line, or runs immediately if it starts with `::` (a system
// command is always a single line). `quit`/`exit` ends the session.
func NewReplCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "interactive read-eval-print loop over an in-memory store",
		RunE: func(cmd *cobra.Command, args []string) error {
			e := engine.Open(memkv.New())
			params := map[string]value.Value{}

			scanner := bufio.NewScanner(os.Stdin)
			var buf strings.Builder
			fmt.Fprint(os.Stderr, "cozo> ")
			for scanner.Scan() {
				line := scanner.Text()
				trimmed := strings.TrimSpace(line)

				if buf.Len() == 0 && (trimmed == "quit" || trimmed == "exit") {
					return nil
				}

				if buf.Len() == 0 && strings.HasPrefix(trimmed, "::") {
					runScript(cmd, e, trimmed, params)
					fmt.Fprint(os.Stderr, "cozo> ")
					continue
				}

				if trimmed == "" {
					if buf.Len() > 0 {
						runScript(cmd, e, buf.String(), params)
						buf.Reset()
					}
					fmt.Fprint(os.Stderr, "cozo> ")
					continue
				}

				buf.WriteString(line)
				buf.WriteString("\n")
				fmt.Fprint(os.Stderr, "  -> ")
			}
			if buf.Len() > 0 {
				runScript(cmd, e, buf.String(), params)
			}
			return scanner.Err()
		},
	}
}

func runScript(cmd *cobra.Command, e *engine.Engine, script string, params map[string]value.Value) {
	res, err := e.Run(cmd.Context(), script, params)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return
	}
	printResult(res)
}
