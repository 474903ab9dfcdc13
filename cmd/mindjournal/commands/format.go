package commands

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

const ruleWidth = 59

// report writes the human-readable output of a command.
// Commands build one over cmd.OutOrStdout() so tests can capture it.
type report struct {
	w        io.Writer
	keyWidth int
}

func newReport(w io.Writer, keyWidth int) *report {
	return &report{w: w, keyWidth: keyWidth}
}

func (r *report) rule()      { fmt.Fprintln(r.w, strings.Repeat("─", ruleWidth)) }
func (r *report) heavyRule() { fmt.Fprintln(r.w, strings.Repeat("═", ruleWidth)) }

func (r *report) line(format string, args ...interface{}) {
	fmt.Fprintf(r.w, format+"\n", args...)
}

// kv prints an indented "key : value" line aligned on keyWidth
func (r *report) kv(key, format string, args ...interface{}) {
	fmt.Fprintf(r.w, "   %-*s : %s\n", r.keyWidth, key, fmt.Sprintf(format, args...))
}

func (r *report) ok(format string, args ...interface{}) {
	r.line("✅ "+format, args...)
}

func (r *report) warn(format string, args ...interface{}) {
	r.line("\n⚠️  "+format+"\n", args...)
}

func (r *report) fail(format string, args ...interface{}) {
	r.line("❌ "+format, args...)
}

func (r *report) note(format string, args ...interface{}) {
	r.line("ℹ️  "+format, args...)
}

// table prints rows under header, sizing each column to its widest cell
func (r *report) table(header []string, rows [][]string) {
	widths := make([]int, len(header))
	for _, row := range append([][]string{header}, rows...) {
		for i, cell := range row {
			if i < len(widths) && utf8.RuneCountInString(cell) > widths[i] {
				widths[i] = utf8.RuneCountInString(cell)
			}
		}
	}

	total := 0
	for _, w := range widths {
		total += w + 2
	}

	r.row(header, widths)
	fmt.Fprintln(r.w, strings.Repeat("─", total-2))
	for _, row := range rows {
		r.row(row, widths)
	}
}

func (r *report) row(cells []string, widths []int) {
	padded := make([]string, len(cells))
	for i, cell := range cells {
		padded[i] = cell
		if i < len(cells)-1 {
			padded[i] += strings.Repeat(" ", widths[i]-utf8.RuneCountInString(cell))
		}
	}
	fmt.Fprintln(r.w, strings.Join(padded, "  "))
}
