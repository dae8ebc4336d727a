// Package calendar lays out a month as a fixed 7-column grid and joins
// scheduled events onto its cells.
//
// Everything here is pure: the same inputs always produce the same output,
// independent of the current date.
package calendar

import (
	"time"

	"slotbook/pkg/model"
)

const DaysPerWeek = 7

// Generate returns the cells of the Sunday-first grid for the given month.
// The grid opens with the tail of the previous month, lists every day of the
// month, and is padded with the head of the next month up to the smallest
// multiple of 7.
func Generate(year int, month time.Month) []model.CalendarCell {
	first := model.NewCalendarDate(year, month, 1)
	year, month = first.Year, first.Month

	leading := int(first.Weekday())
	days := model.DaysInMonth(year, month)
	total := gridSize(leading + days)

	cells := make([]model.CalendarCell, 0, total)

	for i := leading; i > 0; i-- {
		d := first.AddDays(-i)
		cells = append(cells, model.CalendarCell{Date: d, DayNumber: d.Day})
	}

	for day := 1; day <= days; day++ {
		cells = append(cells, model.CalendarCell{
			Date:           model.CalendarDate{Year: year, Month: month, Day: day},
			DayNumber:      day,
			IsCurrentMonth: true,
		})
	}

	next := first.AddMonths(1)
	for i := 0; len(cells) < total; i++ {
		d := next.AddDays(i)
		cells = append(cells, model.CalendarCell{Date: d, DayNumber: d.Day})
	}

	return cells
}

func gridSize(n int) int {
	if rem := n % DaysPerWeek; rem != 0 {
		n += DaysPerWeek - rem
	}
	return n
}

// Weeks splits a grid into rows of 7.
func Weeks(cells []model.CalendarCell) [][]model.CalendarCell {
	weeks := make([][]model.CalendarCell, 0, len(cells)/DaysPerWeek)
	for start := 0; start < len(cells); start += DaysPerWeek {
		end := min(start+DaysPerWeek, len(cells))
		weeks = append(weeks, cells[start:end])
	}
	return weeks
}

// Bounds returns the first and last date shown by the grid of a month.
func Bounds(year int, month time.Month) (model.CalendarDate, model.CalendarDate) {
	cells := Generate(year, month)
	return cells[0].Date, cells[len(cells)-1].Date
}
