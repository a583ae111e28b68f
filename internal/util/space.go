package util

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

const ellipsis = "..."

// PadRight fits str into width terminal cells, padding with spaces or
// cutting it short with an ellipsis. Wide runes count as two cells.
func PadRight(str string, width int) string {
	w := runewidth.StringWidth(str)
	if w > width {
		return runewidth.Truncate(str, width, ellipsis)
	}
	return str + strings.Repeat(" ", width-w)
}
