package main

import (
	"github.com/jzelinskie/cobrautil/v2/cobrazerolog"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/cozodb/cozo/internal/logging"
)

// RegisterRootFlags wires the process-wide flags every subcommand shares —
// currently just `--log-level`/`--log-format`, the way the teacher's own
// RegisterRootFlags wires cobrazerolog before any datastore-specific flags.
func RegisterRootFlags(cmd *cobra.Command) {
	cobrazerolog.New().RegisterFlags(cmd.PersistentFlags())
}

// zerologPreRunE installs the flag-configured logger as the process global
// before a subcommand runs.
func zerologPreRunE() func(cmd *cobra.Command, args []string) error {
	return cobrazerolog.New(
		cobrazerolog.WithTarget(func(logger zerolog.Logger) {
			logging.SetGlobalLogger(logger)
		}),
	).RunE()
}

// NewRootCommand returns the top-level `cozo` command with no attached
// subcommands.
func NewRootCommand(programName string) *cobra.Command {
	return &cobra.Command{
		Use:           programName,
		Short:         "An embedded Datalog database",
		Long:          "Cozo is a transactional relational database queried with CozoScript, a Datalog dialect oriented toward graph data.",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return zerologPreRunE()(cmd, args)
		},
	}
}
