package activity

import (
	"sort"
	"time"

	"github.com/supperdoggy/SmartHomeServer/harmoniq-maestro/playlist-tracker/pkg/models"
)

// AdvanceStreak applies the first-activity-of-day transition for day.
// continued reports whether the day before had a ledger entry.
func AdvanceStreak(s *models.Streak, day time.Time, continued bool) {
	if continued {
		s.Current++
	} else {
		s.Current = 1
	}
	if s.Current > s.Longest {
		s.Longest = s.Current
	}
	d := day
	s.LastActive = &d
}

// StreakView is the streak as a reader should see it on today: a run whose last
// active day is older than yesterday is broken, so Current reads as zero.
// The stored streak is left alone.
func StreakView(s models.Streak, today time.Time, loc *time.Location) models.Streak {
	view := s
	if s.LastActive == nil {
		view.Current = 0
		return view
	}

	last := DayKey(*s.LastActive, loc)
	if last != DayKey(today, loc) && last != DayKey(addDays(today, -1, loc), loc) {
		view.Current = 0
	}
	return view
}

// Replay rebuilds a streak from ledger entries by applying every day in date order.
func Replay(entries []models.DailyActivity, loc *time.Location) models.Streak {
	sorted := make([]models.DailyActivity, len(entries))
	copy(sorted, entries)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date) })

	var (
		s    models.Streak
		seen = make(map[string]struct{}, len(sorted))
	)
	for _, e := range sorted {
		key := entryKey(e, loc)
		if _, ok := seen[key]; ok {
			continue
		}
		_, continued := seen[DayKey(addDays(e.Date, -1, loc), loc)]
		AdvanceStreak(&s, StartOfDay(e.Date, loc), continued)
		seen[key] = struct{}{}
	}
	return s
}

func entryKey(e models.DailyActivity, loc *time.Location) string {
	if e.Day != "" {
		return e.Day
	}
	return DayKey(e.Date, loc)
}
