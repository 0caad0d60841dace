package calendar

import "time"

// Cell is one day square of the month grid.
type Cell struct {
	// Date is midnight of the day in the grid's location.
	Date time.Time
	// InMonth is false for the padding days of the adjacent months.
	InMonth bool
}

// MonthStart returns midnight on the first day of t's month in loc.
func MonthStart(t time.Time, loc *time.Location) time.Time {
	y, m, _ := t.In(loc).Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, loc)
}

// BuildGrid lays out month as whole Sunday-first weeks: padding days
// from the previous month, every day of the month, then padding days
// from the next month.
func BuildGrid(month time.Time, loc *time.Location) []Cell {
	first := MonthStart(month, loc)
	next := first.AddDate(0, 1, 0)
	last := next.AddDate(0, 0, -1)

	lead := int(first.Weekday())
	trail := 6 - int(last.Weekday())

	cells := make([]Cell, 0, lead+last.Day()+trail)
	for i := lead; i > 0; i-- {
		cells = append(cells, Cell{Date: first.AddDate(0, 0, -i)})
	}
	for d := first; d.Before(next); d = d.AddDate(0, 0, 1) {
		cells = append(cells, Cell{Date: d, InMonth: true})
	}
	for i := 1; i <= trail; i++ {
		cells = append(cells, Cell{Date: last.AddDate(0, 0, i)})
	}
	return cells
}
