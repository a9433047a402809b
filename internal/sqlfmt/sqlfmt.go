// Package sqlfmt renders query results in the vertical row layout the SQL
// tool emits, and parses that layout back for table display in the chat
// UI. The two directions stay symmetric:
//
//	1. row
//	drug: metformin
//	event: nausea
//
//	Result: 1 rows
package sqlfmt

import (
	"fmt"
	"regexp"
	"strings"

	"medoryx/internal/database"
)

// Table is a parsed result set.
type Table struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// Format renders a result set. When the output would exceed maxChars, it
// stops at the last complete row and notes the truncation; maxChars <= 0
// means unlimited.
func Format(res *database.Result, maxChars int) string {
	if len(res.Rows) == 0 {
		return "Result: 0 rows"
	}

	var b strings.Builder
	written := 0
	for i, row := range res.Rows {
		var rb strings.Builder
		fmt.Fprintf(&rb, "%d. row\n", i+1)
		for j, col := range res.Columns {
			val := ""
			if j < len(row) {
				val = row[j]
			}
			fmt.Fprintf(&rb, "%s: %s\n", col, val)
		}
		rb.WriteString("\n")

		if maxChars > 0 && b.Len()+rb.Len() > maxChars {
			fmt.Fprintf(&b, "Result: showing %d of %d rows (output truncated at %d characters)", written, len(res.Rows), maxChars)
			return b.String()
		}
		b.WriteString(rb.String())
		written++
	}
	fmt.Fprintf(&b, "Result: %d rows", len(res.Rows))
	return b.String()
}

var rowMarker = regexp.MustCompile(`(?m)^\d+\. row$`)

// Parse reconstructs a table from formatted text. The second return value
// is false when the text is not in the vertical row layout (plain tool
// output, error text), in which case callers should show it verbatim.
func Parse(text string) (*Table, bool) {
	if !rowMarker.MatchString(text) {
		return nil, false
	}

	blocks := rowMarker.Split(text, -1)
	if len(blocks) < 2 {
		return nil, false
	}

	table := &Table{}
	seen := map[string]int{}
	var records []map[string]string

	for _, block := range blocks[1:] {
		record := map[string]string{}
		for _, line := range strings.Split(block, "\n") {
			line = strings.TrimSpace(line)
			if line == "" || strings.HasPrefix(line, "Result:") {
				continue
			}
			key, value, found := strings.Cut(line, ":")
			if !found {
				continue
			}
			key = strings.TrimSpace(key)
			if _, ok := seen[key]; !ok {
				seen[key] = len(table.Columns)
				table.Columns = append(table.Columns, key)
			}
			record[key] = strings.TrimSpace(value)
		}
		if len(record) > 0 {
			records = append(records, record)
		}
	}

	if len(records) == 0 {
		return nil, false
	}
	for _, record := range records {
		row := make([]string, len(table.Columns))
		for key, val := range record {
			row[seen[key]] = val
		}
		table.Rows = append(table.Rows, row)
	}
	return table, true
}
