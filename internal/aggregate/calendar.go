package aggregate

import (
	"fmt"
	"time"

	"github.com/pbaille/fine/internal/domain"
)

// WeekLength is the number of columns in a month grid. Column 0 is Sunday.
const WeekLength = 7

// Cell is one grid slot. Placeholders before day 1 and after the last day
// have Day == 0 and no Date.
type Cell struct {
	Day    int            `json:"day,omitempty"`
	Date   string         `json:"date,omitempty"`
	Events []domain.Event `json:"events,omitempty"`
}

// Placeholder reports whether the cell is padding outside the month
func (c Cell) Placeholder() bool { return c.Day == 0 }

// MonthView is a month laid out as Sunday-first weeks
type MonthView struct {
	Year    int      `json:"year"`
	Month   int      `json:"month"`
	Leading int      `json:"leading"`
	Weeks   [][]Cell `json:"weeks"`
}

// GroupByDate indexes events by their date key, keeping collection order
// within each date.
func GroupByDate(events []domain.Event) map[string][]domain.Event {
	byDate := make(map[string][]domain.Event)
	for _, e := range events {
		byDate[e.Date] = append(byDate[e.Date], e)
	}
	return byDate
}

// MonthGrid lays out a month as a flat row-major grid whose length is a
// multiple of WeekLength. byDate may be nil.
func MonthGrid(year int, month time.Month, byDate map[string][]domain.Event) []Cell {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	leading := int(first.Weekday())
	days := DaysIn(year, month)

	total := leading + days
	if rem := total % WeekLength; rem != 0 {
		total += WeekLength - rem
	}

	cells := make([]Cell, total)
	for d := 1; d <= days; d++ {
		key := fmt.Sprintf("%04d-%02d-%02d", year, int(month), d)
		cells[leading+d-1] = Cell{Day: d, Date: key, Events: byDate[key]}
	}
	return cells
}

// Weeks splits a flat grid into rows of WeekLength cells
func Weeks(cells []Cell) [][]Cell {
	weeks := make([][]Cell, 0, len(cells)/WeekLength)
	for i := 0; i+WeekLength <= len(cells); i += WeekLength {
		weeks = append(weeks, cells[i:i+WeekLength])
	}
	return weeks
}

// BuildMonth groups events and lays out the month they fall into
func BuildMonth(year int, month time.Month, events []domain.Event) MonthView {
	cells := MonthGrid(year, month, GroupByDate(events))
	return MonthView{
		Year:    year,
		Month:   int(month),
		Leading: int(time.Date(year, month, 1, 0, 0, 0, 0, time.UTC).Weekday()),
		Weeks:   Weeks(cells),
	}
}

// DaysIn returns the number of days in a month
func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// ParseMonth parses a YYYY-MM key
func ParseMonth(s string) (int, time.Month, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return 0, 0, fmt.Errorf("parse month %q: %w", s, err)
	}
	return t.Year(), t.Month(), nil
}
