package sql

import (
	"strings"
	"unicode/utf8"

	"github.com/relishdb/relish/pkg/catalog"
)

// QueryResult is the programmatic output of a statement: ordered column
// names and rows, plus counts. Non-query statements carry a Message
// instead of columns.
type QueryResult struct {
	Columns  []string
	Rows     [][]catalog.Value
	RowCount int
	ColCount int
	Message  string
}

func messageResult(msg string) *QueryResult {
	return &QueryResult{Message: msg}
}

// String renders the result as a box-drawing table. Column widths are
// measured in UTF-8 codepoints; numeric columns are right-aligned,
// everything else left-aligned.
func (r *QueryResult) String() string {
	if len(r.Columns) == 0 {
		return r.Message
	}

	cells := make([][]string, len(r.Rows))
	numeric := make([]bool, len(r.Columns))
	for i := range numeric {
		numeric[i] = true
	}
	widths := make([]int, len(r.Columns))
	for i, name := range r.Columns {
		widths[i] = utf8.RuneCountInString(name)
	}
	for ri, row := range r.Rows {
		cells[ri] = make([]string, len(r.Columns))
		for ci := range r.Columns {
			var v catalog.Value
			if ci < len(row) {
				v = row[ci]
			}
			s := v.String()
			cells[ri][ci] = s
			if w := utf8.RuneCountInString(s); w > widths[ci] {
				widths[ci] = w
			}
			if !v.IsNull() && !v.IsNumeric() {
				numeric[ci] = false
			}
		}
	}

	var sb strings.Builder
	writeRule(&sb, widths, "┌", "┬", "┐")
	sb.WriteString("│")
	for i, name := range r.Columns {
		sb.WriteString(" " + pad(name, widths[i], false) + " │")
	}
	sb.WriteString("\n")
	writeRule(&sb, widths, "├", "┼", "┤")
	for _, row := range cells {
		sb.WriteString("│")
		for i, cell := range row {
			sb.WriteString(" " + pad(cell, widths[i], numeric[i]) + " │")
		}
		sb.WriteString("\n")
	}
	writeRule(&sb, widths, "└", "┴", "┘")
	return strings.TrimSuffix(sb.String(), "\n")
}

func writeRule(sb *strings.Builder, widths []int, left, mid, right string) {
	sb.WriteString(left)
	for i, w := range widths {
		sb.WriteString(strings.Repeat("─", w+2))
		if i < len(widths)-1 {
			sb.WriteString(mid)
		}
	}
	sb.WriteString(right + "\n")
}

func pad(s string, width int, rightAlign bool) string {
	gap := width - utf8.RuneCountInString(s)
	if gap <= 0 {
		return s
	}
	if rightAlign {
		return strings.Repeat(" ", gap) + s
	}
	return s + strings.Repeat(" ", gap)
}
