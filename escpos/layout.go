package escpos

import (
	"errors"
	"fmt"
	"strings"
)

// Characters per line at 1x size with Font A.
const (
	charsPerLine58 = 32
	charsPerLine80 = 48
)

var errColumnCount = errors.New("column texts, widths and aligns must have the same length")

// layoutColumns renders one table row. widths are relative weights that
// share lineWidth characters; cells longer than their column wrap onto
// continuation lines.
func layoutColumns(texts []string, widths, aligns []int, lineWidth int) ([]string, error) {
	if len(texts) != len(widths) || len(texts) != len(aligns) {
		return nil, errColumnCount
	}
	if len(texts) == 0 {
		return nil, nil
	}

	total := 0
	for _, w := range widths {
		if w < 0 {
			return nil, fmt.Errorf("column weight %d must not be negative", w)
		}
		total += w
	}
	if total == 0 {
		return nil, errors.New("column weights must not all be zero")
	}

	cols, err := columnWidths(widths, total, lineWidth)
	if err != nil {
		return nil, err
	}

	cells := make([][]string, len(texts))
	rows := 1
	for i, text := range texts {
		cells[i] = chunk(text, cols[i])
		if len(cells[i]) > rows {
			rows = len(cells[i])
		}
	}

	lines := make([]string, rows)
	for r := range lines {
		var b strings.Builder
		for i := range cells {
			part := ""
			if r < len(cells[i]) {
				part = cells[i][r]
			}
			b.WriteString(pad(part, cols[i], aligns[i]))
		}
		lines[r] = strings.TrimRight(b.String(), " ")
	}
	return lines, nil
}

// columnWidths shares lineWidth between the columns by weight. Every
// positive weight gets at least one character; the last column takes the
// rounding remainder.
func columnWidths(widths []int, total, lineWidth int) ([]int, error) {
	positive := 0
	for _, w := range widths {
		if w > 0 {
			positive++
		}
	}
	if positive > lineWidth {
		return nil, fmt.Errorf("%d columns do not fit in %d characters", positive, lineWidth)
	}

	cols := make([]int, len(widths))
	used := 0
	for i, w := range widths {
		cols[i] = lineWidth * w / total
		if w > 0 && cols[i] == 0 {
			cols[i] = 1
		}
		used += cols[i]
	}

	// Minimums may overshoot; take the excess from the widest columns.
	for used > lineWidth {
		widest := 0
		for i := range cols {
			if cols[i] > cols[widest] {
				widest = i
			}
		}
		cols[widest]--
		used--
	}
	cols[len(cols)-1] += lineWidth - used
	return cols, nil
}

// chunk splits s into pieces of at most width runes.
func chunk(s string, width int) []string {
	if width <= 0 {
		return nil
	}
	runes := []rune(s)
	if len(runes) == 0 {
		return []string{""}
	}
	var out []string
	for len(runes) > width {
		out = append(out, string(runes[:width]))
		runes = runes[width:]
	}
	return append(out, string(runes))
}

func pad(s string, width, align int) string {
	gap := width - len([]rune(s))
	if gap <= 0 {
		return s
	}
	switch align {
	case 1:
		left := gap / 2
		return strings.Repeat(" ", left) + s + strings.Repeat(" ", gap-left)
	case 2:
		return strings.Repeat(" ", gap) + s
	default:
		return s + strings.Repeat(" ", gap)
	}
}
