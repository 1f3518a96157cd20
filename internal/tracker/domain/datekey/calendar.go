package datekey

import "time"

// DayStat aggregates a single day's task counts for the calendar view.
type DayStat struct {
	Total         int
	Completed     int
	HasCompleted  bool
	HasIncomplete bool
}

// Cell is one slot of a rendered calendar month. Empty cells pad the first
// and last week so every week has seven slots.
type Cell struct {
	Day      int
	Key      Key
	Weekday  time.Weekday
	IsToday  bool
	IsPast   bool
	IsFuture bool
	Empty    bool
	Stat     DayStat
}

// Week is a row of seven calendar cells.
type Week struct {
	Days [7]Cell
}

// Calendar lays out a month as weeks of seven cells, stamping each day with
// its relation to today and any per-day stats.
func Calendar(year int, month time.Month, today Key, stats map[Key]DayStat) []Week {
	days := make([]Cell, 0, 42)

	for i := 0; i < int(FirstWeekday(year, month)); i++ {
		days = append(days, Cell{Empty: true})
	}

	for d := 1; d <= DaysInMonth(year, month); d++ {
		key := New(time.Date(year, month, d, 0, 0, 0, 0, time.UTC))
		days = append(days, Cell{
			Day:      d,
			Key:      key,
			Weekday:  key.Time().Weekday(),
			IsToday:  key == today,
			IsPast:   key.Before(today),
			IsFuture: key.After(today),
			Stat:     stats[key],
		})
	}

	for len(days)%7 != 0 {
		days = append(days, Cell{Empty: true})
	}

	weeks := make([]Week, 0, len(days)/7)
	for i := 0; i < len(days); i += 7 {
		var w Week
		copy(w.Days[:], days[i:i+7])
		weeks = append(weeks, w)
	}
	return weeks
}
