package main

import (
	"fmt"
	"strings"

	"github.com/cozodb/cozo/pkg/engine"
)

// printResult renders a Result as a simple space-padded table, the way a
// terminal-facing database CLI prints query output without pulling in a
// table-formatting dependency the example pack never uses for this purpose.
func printResult(res *engine.Result) {
	widths := make([]int, len(res.Headers))
	for i, h := range res.Headers {
		widths[i] = len(h)
	}
	rendered := make([][]string, len(res.Rows))
	for i, row := range res.Rows {
		rendered[i] = make([]string, len(row))
		for j, v := range row {
			s := v.String()
			rendered[i][j] = s
			if j < len(widths) && len(s) > widths[j] {
				widths[j] = len(s)
			}
		}
	}

	fmt.Println(padRow(res.Headers, widths))
	fmt.Println(strings.Repeat("-", totalWidth(widths)))
	for _, row := range rendered {
		fmt.Println(padRow(row, widths))
	}
	fmt.Printf("(%d rows, %s)\n", len(res.Rows), res.Took)
}

func padRow(cols []string, widths []int) string {
	parts := make([]string, len(cols))
	for i, c := range cols {
		w := 0
		if i < len(widths) {
			w = widths[i]
		}
		parts[i] = c + strings.Repeat(" ", w-len(c))
	}
	return strings.Join(parts, "  ")
}

func totalWidth(widths []int) int {
	total := 0
	for _, w := range widths {
		total += w + 2
	}
	if total > 0 {
		total -= 2
	}
	return total
}
