package calendar

import (
	"fmt"
	"time"

	"slotbook/pkg/model"
)

// DayView is what a calendar renders for one cell.
type DayView struct {
	model.CalendarCell
	Events  []model.ScheduledEvent `json:"events"`
	IsToday bool                   `json:"is_today"`
}

type MonthView struct {
	Year  int         `json:"year"`
	Month time.Month  `json:"month"`
	Title string      `json:"title"`
	Weeks [][]DayView `json:"weeks"`
}

// BuildMonth joins the grid of a month with the events that fall on it.
// Days without events carry an empty, non-nil slice so they render as empty.
func BuildMonth(year int, month time.Month, events []model.ScheduledEvent) MonthView {
	first := model.NewCalendarDate(year, month, 1)
	idx := IndexByDay(events)

	view := MonthView{
		Year:  first.Year,
		Month: first.Month,
		Title: MonthTitle(first.Year, first.Month),
	}
	for _, week := range Weeks(Generate(first.Year, first.Month)) {
		row := make([]DayView, 0, len(week))
		for _, cell := range week {
			evs := idx.On(cell.Date)
			if evs == nil {
				evs = []model.ScheduledEvent{}
			}
			row = append(row, DayView{CalendarCell: cell, Events: evs})
		}
		view.Weeks = append(view.Weeks, row)
	}
	return view
}

// MarkToday flags the cell for today, if the grid shows it.
func (v *MonthView) MarkToday(today model.CalendarDate) {
	for i := range v.Weeks {
		for j := range v.Weeks[i] {
			v.Weeks[i][j].IsToday = v.Weeks[i][j].Date == today
		}
	}
}

func (v MonthView) EventCount() int {
	n := 0
	for _, week := range v.Weeks {
		for _, day := range week {
			n += len(day.Events)
		}
	}
	return n
}

func PrevMonth(year int, month time.Month) (int, time.Month) {
	d := model.NewCalendarDate(year, month-1, 1)
	return d.Year, d.Month
}

func NextMonth(year int, month time.Month) (int, time.Month) {
	d := model.NewCalendarDate(year, month+1, 1)
	return d.Year, d.Month
}

func MonthTitle(year int, month time.Month) string {
	return fmt.Sprintf("%s %d", month, year)
}
