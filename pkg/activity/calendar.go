package activity

import (
	"time"

	"github.com/supperdoggy/SmartHomeServer/harmoniq-maestro/playlist-tracker/pkg/models"
)

const (
	CalendarDays = 364
	RecentDays   = 7
	MaxIntensity = 4
)

type CalendarDay struct {
	Date      string `json:"date"`
	Count     int    `json:"count"`
	Intensity int    `json:"intensity"`
}

// RenderCalendar projects the ledger onto the window days ending at today,
// oldest first. Days without an entry have a zero count.
func RenderCalendar(l *Ledger, window int, today time.Time) []CalendarDay {
	if window <= 0 {
		return []CalendarDay{}
	}

	out := make([]CalendarDay, 0, window)
	for offset := window - 1; offset >= 0; offset-- {
		day := addDays(today, -offset, l.loc)
		count := 0
		if entry, ok := l.Day(day); ok {
			count = entry.VideosWatched
		}
		out = append(out, CalendarDay{
			Date:      DayKey(day, l.loc),
			Count:     count,
			Intensity: min(count, MaxIntensity),
		})
	}
	return out
}

// Recent returns the last n ledger entries in date order.
func Recent(l *Ledger, n int) []models.DailyActivity {
	entries := l.Entries()
	if n <= 0 {
		return []models.DailyActivity{}
	}
	if len(entries) > n {
		entries = entries[len(entries)-n:]
	}
	out := make([]models.DailyActivity, len(entries))
	copy(out, entries)
	return out
}
