package engine

import (
	"time"

	"github.com/cozodb/cozo/internal/value"
)

// Result is the outcome of running one script: the entry relation `?`,
// assembled per spec §4.8, alongside its column names and how long the run
// took (spec §6 "CLI/Server surface": `{rows, headers, took}`).
type Result struct {
	Headers []string
	Rows    [][]value.Value
	Took    time.Duration
}
