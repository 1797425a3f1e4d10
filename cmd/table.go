package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"
)

// table prints aligned columns. Widths are measured in terminal cells so
// Cyrillic and CJK text line up.
type table struct {
	headers []string
	rows    [][]string
	maxCol  int // truncate cells wider than this; 0 means no limit
}

func (t *table) add(cells ...string) {
	t.rows = append(t.rows, cells)
}

func (t *table) render(w io.Writer) {
	widths := make([]int, len(t.headers))
	for i, h := range t.headers {
		widths[i] = runewidth.StringWidth(h)
	}
	for _, row := range t.rows {
		for i, cell := range row {
			if i < len(widths) {
				widths[i] = max(widths[i], runewidth.StringWidth(t.clip(cell)))
			}
		}
	}

	total := 0
	for _, wd := range widths {
		total += wd + 2
	}
	t.line(w, t.headers, widths)
	fmt.Fprintln(w, strings.Repeat("─", max(total-2, 0)))
	for _, row := range t.rows {
		t.line(w, row, widths)
	}
}

func (t *table) line(w io.Writer, cells []string, widths []int) {
	parts := make([]string, len(widths))
	for i := range widths {
		cell := ""
		if i < len(cells) {
			cell = t.clip(cells[i])
		}
		if i == len(widths)-1 {
			parts[i] = cell
		} else {
			parts[i] = runewidth.FillRight(cell, widths[i])
		}
	}
	fmt.Fprintln(w, strings.TrimRight(strings.Join(parts, "  "), " "))
}

func (t *table) clip(s string) string {
	if t.maxCol > 0 {
		return runewidth.Truncate(s, t.maxCol, "…")
	}
	return s
}
