package calendar

import (
	"sort"

	"slotbook/pkg/model"
)

// DayIndex groups events by the calendar date they occur on.
type DayIndex map[model.CalendarDate][]model.ScheduledEvent

// IndexByDay keys each event by the year/month/day of its timestamp, ignoring
// time of day. Events within a day keep the order of the input slice.
func IndexByDay(events []model.ScheduledEvent) DayIndex {
	idx := make(DayIndex)
	for _, ev := range events {
		key := ev.Date()
		idx[key] = append(idx[key], ev)
	}
	return idx
}

// On returns the events of a single day, or nil.
func (idx DayIndex) On(date model.CalendarDate) []model.ScheduledEvent {
	return idx[date]
}

// SortByOccurrence orders events chronologically in place. Call it before
// IndexByDay when a day's events should be listed by time.
func SortByOccurrence(events []model.ScheduledEvent) {
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].OccursAt.Before(events[j].OccursAt)
	})
}
