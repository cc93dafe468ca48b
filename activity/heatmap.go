package activity

// WindowDays is the number of days shown in the activity heatmap.
const WindowDays = 60

// Cell is one day of the heatmap.
type Cell struct {
	Date   Date `json:"date"`
	Active bool `json:"active"`
}

// Build returns exactly WindowDays cells in ascending date order, ending
// at today inclusive.
func Build(records []Record, today Date) []Cell {
	return BuildWindow(records, today, WindowDays)
}

// BuildWindow is Build for an arbitrary window size. Records are indexed
// into a set first, so cost is O(days + records).
func BuildWindow(records []Record, today Date, days int) []Cell {
	if days <= 0 {
		return []Cell{}
	}
	active := make(map[Date]struct{}, len(records))
	for _, r := range records {
		active[r.Date] = struct{}{}
	}

	cells := make([]Cell, days)
	start := today.AddDays(-(days - 1))
	for i := range cells {
		d := start.AddDays(i)
		_, ok := active[d]
		cells[i] = Cell{Date: d, Active: ok}
	}
	return cells
}

// Rows splits cells into display rows of width cells without reordering.
// The last row may be short.
func Rows(cells []Cell, width int) [][]Cell {
	if width <= 0 {
		width = len(cells)
	}
	var rows [][]Cell
	for len(cells) > 0 {
		n := min(width, len(cells))
		rows = append(rows, cells[:n])
		cells = cells[n:]
	}
	return rows
}

// ActiveCount returns how many cells are active.
func ActiveCount(cells []Cell) int {
	n := 0
	for _, c := range cells {
		if c.Active {
			n++
		}
	}
	return n
}
