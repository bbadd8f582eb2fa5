// Package cronogram builds schedule (Gantt-like) tables from phase durations
// and offsets and renders them as plain text or markdown tables.
package cronogram

import (
	"fmt"
	"strings"

	"github.com/meysamhadeli/buroca/errs"
)

// Months are the column labels, cycled from the first month of the schedule.
var Months = [12]string{"JAN", "FEB", "MAR", "APR", "MAY", "JUN", "JUL", "AUG", "SEP", "OCT", "NOV", "DEC"}

const (
	// DefaultTickMark fills the active cells of a phase.
	DefaultTickMark = "X"
	// DefaultMinWidth is the minimum column width of a rendered table.
	DefaultMinWidth = 3

	shortDashes = 3
)

// Slot is one phase of a schedule: it is active for Duration months starting
// Offset months after the first month.
type Slot struct {
	Duration int
	Offset   int
}

// TableOptions controls how RenderTable lays out a grid.
type TableOptions struct {
	MinWidth  int
	Separator string
	// ShortDashes caps the header separator at three dashes per column.
	ShortDashes bool
}

// SimpleTable is the layout used by simple markdown tables.
var SimpleTable = TableOptions{MinWidth: DefaultMinWidth, Separator: "   "}

// PipeTable is the layout used by pipe markdown tables.
var PipeTable = TableOptions{MinWidth: DefaultMinWidth, Separator: "|", ShortDashes: true}

// Slots pairs durations with offsets.
func Slots(durations, offsets []int) ([]Slot, error) {
	if len(durations) != len(offsets) {
		return nil, fmt.Errorf("durations and offsets differ in length: %d != %d", len(durations), len(offsets))
	}
	slots := make([]Slot, len(durations))
	for i := range durations {
		slots[i] = Slot{Duration: durations[i], Offset: offsets[i]}
	}
	return slots, nil
}

// BuildScheduleTable returns a grid whose first row holds "#" followed by the
// month labels and whose following rows hold the phase number and one cell per
// month, set to tickMark inside [Offset, Offset+Duration) and blank elsewhere.
func BuildScheduleTable(slots []Slot, firstMonth int, tickMark string) ([][]string, error) {
	if len(slots) == 0 {
		return nil, fmt.Errorf("schedule needs at least one phase")
	}
	if firstMonth < 1 || firstMonth > len(Months) {
		return nil, fmt.Errorf("first month must be between 1 and 12, got %d", firstMonth)
	}
	if tickMark == "" {
		tickMark = DefaultTickMark
	}

	end := 0
	for i, slot := range slots {
		if slot.Duration <= 0 {
			return nil, fmt.Errorf("phase %d: duration must be positive, got %d", i+1, slot.Duration)
		}
		if slot.Offset < 0 {
			return nil, fmt.Errorf("phase %d: offset must not be negative, got %d", i+1, slot.Offset)
		}
		end = max(end, slot.Offset+slot.Duration)
	}

	grid := make([][]string, 0, len(slots)+1)

	header := make([]string, 0, end+1)
	header = append(header, "#")
	for i := 0; i < end; i++ {
		header = append(header, Months[(firstMonth-1+i)%len(Months)])
	}
	grid = append(grid, header)

	for i, slot := range slots {
		row := make([]string, end+1)
		row[0] = fmt.Sprint(i + 1)
		for col := 1; col <= end; col++ {
			row[col] = " "
		}
		for col := slot.Offset; col < slot.Offset+slot.Duration; col++ {
			row[col+1] = tickMark
		}
		grid = append(grid, row)
	}

	return grid, nil
}

// RenderTable lays out grid as aligned text. The first row is treated as the
// header and is followed by a row of dashes.
func RenderTable(grid [][]string, opts TableOptions) string {
	if len(grid) == 0 {
		return ""
	}

	widths := make([]int, len(grid[0]))
	for col := range widths {
		widths[col] = opts.MinWidth
		for _, row := range grid {
			if col < len(row) {
				widths[col] = max(widths[col], len(row[col]))
			}
		}
	}

	dashes := make([]string, len(widths))
	for col, width := range widths {
		if opts.ShortDashes {
			width = min(width, shortDashes)
		}
		dashes[col] = strings.Repeat("-", width)
	}

	rows := make([][]string, 0, len(grid)+1)
	rows = append(rows, grid[0], dashes)
	rows = append(rows, grid[1:]...)

	lines := make([]string, len(rows))
	for i, row := range rows {
		cells := make([]string, len(widths))
		for col, width := range widths {
			cell := ""
			if col < len(row) {
				cell = row[col]
			}
			if i == 1 {
				cells[col] = cell
				continue
			}
			cells[col] = cell + strings.Repeat(" ", width-len(cell))
		}
		lines[i] = strings.Join(cells, opts.Separator)
	}
	return strings.Join(lines, "\n")
}

// RenderSimple renders grid as a simple markdown table.
func RenderSimple(grid [][]string) string {
	return RenderTable(grid, SimpleTable)
}

// RenderPipe renders grid as a pipe markdown table.
func RenderPipe(grid [][]string) string {
	return RenderTable(grid, PipeTable)
}

// Render dispatches on outputType: "md"/"markdown" select the simple layout
// and "md-pipe"/"markdown-pipe" the pipe layout.
func Render(outputType string, grid [][]string) (string, error) {
	switch outputType {
	case "md", "markdown":
		return RenderSimple(grid), nil
	case "md-pipe", "markdown-pipe":
		return RenderPipe(grid), nil
	}
	return "", &errs.UnsupportedFormatError{Format: outputType, Context: "cronogram"}
}

// Cronogram builds a schedule table and renders it as outputType.
func Cronogram(outputType string, durations, offsets []int, firstMonth int, tickMark string) (string, error) {
	// Reject the format before doing any work.
	if _, err := Render(outputType, nil); err != nil {
		return "", err
	}
	slots, err := Slots(durations, offsets)
	if err != nil {
		return "", err
	}
	grid, err := BuildScheduleTable(slots, firstMonth, tickMark)
	if err != nil {
		return "", err
	}
	return Render(outputType, grid)
}
