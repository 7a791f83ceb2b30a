package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Table is a bordered table. Widths are display widths so titles with
// accents or wide runes stay aligned.
type Table struct {
	headers  []string
	rows     [][]string
	maxWidth int
}

func NewTable(headers ...string) *Table {
	return &Table{
		headers:  headers,
		maxWidth: 120,
	}
}

// SetMaxWidth sets the maximum table width
func (t *Table) SetMaxWidth(width int) {
	t.maxWidth = width
}

func (t *Table) AddRow(values ...string) {
	row := make([]string, len(t.headers))
	copy(row, values)
	t.rows = append(t.rows, row)
}

func (t *Table) Len() int {
	return len(t.rows)
}

func (t *Table) Render(w io.Writer) {
	if len(t.headers) == 0 {
		return
	}

	widths := columnWidths(t.headers, t.rows, 2)
	totalWidth := 0
	for _, cw := range widths {
		totalWidth += cw + 1
	}

	// Shrink the widest columns first
	for excess := totalWidth - t.maxWidth; excess > 0; excess-- {
		maxIdx := 0
		for i := 1; i < len(widths); i++ {
			if widths[i] > widths[maxIdx] {
				maxIdx = i
			}
		}
		if widths[maxIdx] <= 10 {
			break
		}
		widths[maxIdx]--
	}

	rule := func(left, mid, right string) {
		parts := make([]string, len(widths))
		for i, cw := range widths {
			parts[i] = strings.Repeat("─", cw)
		}
		fmt.Fprintln(w, left+strings.Join(parts, mid)+right)
	}
	line := func(values []string) {
		fmt.Fprint(w, "│")
		for i, cw := range widths {
			fmt.Fprint(w, " "+pad(truncate(values[i], cw-2), cw-2)+" │")
		}
		fmt.Fprintln(w)
	}

	rule("┌", "┬", "┐")
	line(t.headers)
	rule("├", "┼", "┤")
	for _, row := range t.rows {
		line(row)
	}
	rule("└", "┴", "┘")
}

// CompactTable writes a borderless table
func CompactTable(w io.Writer, headers []string, rows [][]string) {
	if len(headers) == 0 {
		return
	}

	widths := columnWidths(headers, rows, 0)
	write := func(values []string) {
		cells := make([]string, len(headers))
		for i := range headers {
			val := ""
			if i < len(values) {
				val = values[i]
			}
			cells[i] = pad(val, widths[i])
		}
		fmt.Fprintln(w, strings.TrimRight(strings.Join(cells, "  "), " "))
	}

	write(headers)
	seps := make([]string, len(headers))
	for i, cw := range widths {
		seps[i] = strings.Repeat("─", cw)
	}
	write(seps)
	for _, row := range rows {
		write(row)
	}
}

func columnWidths(headers []string, rows [][]string, padding int) []int {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
		for _, row := range rows {
			if i < len(row) {
				if cw := lipgloss.Width(row[i]); cw > widths[i] {
					widths[i] = cw
				}
			}
		}
		widths[i] += padding
	}
	return widths
}

func pad(s string, width int) string {
	if n := width - lipgloss.Width(s); n > 0 {
		return s + strings.Repeat(" ", n)
	}
	return s
}

// truncate shortens s to maxLen display columns, ending in "..."
func truncate(s string, maxLen int) string {
	if lipgloss.Width(s) <= maxLen {
		return s
	}
	runes := []rune(s)
	if maxLen <= 3 {
		if maxLen < 0 {
			maxLen = 0
		}
		if maxLen > len(runes) {
			maxLen = len(runes)
		}
		return string(runes[:maxLen])
	}
	for len(runes) > 0 && lipgloss.Width(string(runes))+3 > maxLen {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "..."
}
