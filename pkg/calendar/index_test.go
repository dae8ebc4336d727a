package calendar

import (
	"testing"
	"time"

	"slotbook/pkg/model"
)

func TestIndexByDay_IgnoresTimeOfDayAndOffset(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*60*60)
	ny := time.FixedZone("EST", -5*60*60)

	events := []model.ScheduledEvent{
		{ID: "a", OccursAt: time.Date(2025, time.April, 10, 0, 0, 0, 0, time.UTC)},
		{ID: "b", OccursAt: time.Date(2025, time.April, 10, 23, 59, 59, 0, tokyo)},
		{ID: "c", OccursAt: time.Date(2025, time.April, 10, 1, 0, 0, 0, ny)},
		{ID: "d", OccursAt: time.Date(2025, time.April, 11, 0, 0, 0, 0, time.UTC)},
	}

	idx := IndexByDay(events)

	day := idx.On(model.CalendarDate{Year: 2025, Month: time.April, Day: 10})
	if len(day) != 3 {
		t.Fatalf("expected 3 events on 2025-04-10, got %d", len(day))
	}
	for i, want := range []string{"a", "b", "c"} {
		if day[i].ID != want {
			t.Errorf("position %d: expected %s, got %s", i, want, day[i].ID)
		}
	}

	if next := idx.On(model.CalendarDate{Year: 2025, Month: time.April, Day: 11}); len(next) != 1 || next[0].ID != "d" {
		t.Errorf("expected only event d on 2025-04-11, got %+v", next)
	}

	if empty := idx.On(model.CalendarDate{Year: 2025, Month: time.April, Day: 12}); empty != nil {
		t.Errorf("expected no events on 2025-04-12, got %+v", empty)
	}
}

func TestIndexByDay_PreservesInsertionOrder(t *testing.T) {
	events := []model.ScheduledEvent{
		{ID: "late", OccursAt: time.Date(2025, 5, 1, 18, 0, 0, 0, time.UTC)},
		{ID: "early", OccursAt: time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC)},
	}

	day := IndexByDay(events).On(model.NewCalendarDate(2025, time.May, 1))
	if day[0].ID != "late" || day[1].ID != "early" {
		t.Fatalf("index reordered events: %s, %s", day[0].ID, day[1].ID)
	}

	SortByOccurrence(events)
	day = IndexByDay(events).On(model.NewCalendarDate(2025, time.May, 1))
	if day[0].ID != "early" || day[1].ID != "late" {
		t.Fatalf("expected chronological order after sort, got %s, %s", day[0].ID, day[1].ID)
	}
}

func TestBuildMonth(t *testing.T) {
	events := []model.ScheduledEvent{
		{ID: "in-month", OccursAt: time.Date(2025, 4, 15, 10, 0, 0, 0, time.UTC)},
		{ID: "filler", OccursAt: time.Date(2025, 3, 31, 9, 0, 0, 0, time.UTC)},
		{ID: "outside", OccursAt: time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)},
	}

	view := BuildMonth(2025, time.April, events)

	if view.Title != "April 2025" {
		t.Errorf("unexpected title %q", view.Title)
	}
	if len(view.Weeks) != 5 {
		t.Fatalf("expected 5 weeks, got %d", len(view.Weeks))
	}
	if got := view.EventCount(); got != 2 {
		t.Errorf("expected 2 visible events, got %d", got)
	}

	for _, week := range view.Weeks {
		for _, day := range week {
			if day.Events == nil {
				t.Fatalf("day %s has nil events", day.Date)
			}
		}
	}

	view.MarkToday(model.NewCalendarDate(2025, time.April, 15))
	marked := 0
	for _, week := range view.Weeks {
		for _, day := range week {
			if day.IsToday {
				marked++
				if day.Date != model.NewCalendarDate(2025, time.April, 15) {
					t.Errorf("wrong day marked as today: %s", day.Date)
				}
			}
		}
	}
	if marked != 1 {
		t.Errorf("expected exactly one day marked as today, got %d", marked)
	}
}
