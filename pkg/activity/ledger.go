package activity

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"time"

	"github.com/supperdoggy/SmartHomeServer/harmoniq-maestro/playlist-tracker/pkg/models"
)

// RetentionDays is how far back, counted from the current day, ledger entries are kept.
const RetentionDays = 365

var ErrNegativeWatchTime = errors.New("watch time must not be negative")

type Kind int

const (
	MarkedComplete Kind = iota
	MarkedIncomplete
	WatchTimeReported
)

func (k Kind) String() string {
	switch k {
	case MarkedComplete:
		return "marked_complete"
	case MarkedIncomplete:
		return "marked_incomplete"
	case WatchTimeReported:
		return "watch_time_reported"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

type Event struct {
	Kind    Kind
	VideoID string
	Minutes int // WatchTimeReported only
}

// Ledger is a user's per-day activity log with an index from day key to entry.
// It mutates the user's LearningActivity, Streak and TotalStats in place.
type Ledger struct {
	user  *models.User
	loc   *time.Location
	index map[string]int
}

func NewLedger(user *models.User, loc *time.Location) *Ledger {
	l := &Ledger{user: user, loc: loc}
	sort.SliceStable(user.LearningActivity, func(i, j int) bool {
		return user.LearningActivity[i].Date.Before(user.LearningActivity[j].Date)
	})
	l.reindex()
	return l
}

func (l *Ledger) reindex() {
	l.index = make(map[string]int, len(l.user.LearningActivity))
	for i := range l.user.LearningActivity {
		e := &l.user.LearningActivity[i]
		if e.Day == "" {
			e.Day = DayKey(e.Date, l.loc)
		}
		l.index[e.Day] = i
	}
}

func (l *Ledger) Entries() []models.DailyActivity {
	return l.user.LearningActivity
}

// Day returns the entry for t's calendar day.
func (l *Ledger) Day(t time.Time) (models.DailyActivity, bool) {
	i, ok := l.index[DayKey(t, l.loc)]
	if !ok {
		return models.DailyActivity{}, false
	}
	return l.user.LearningActivity[i], true
}

// Record applies ev to the entry for day, creating the entry (and advancing the
// streak) when it is the first activity of that day. Entries older than
// RetentionDays before day are pruned afterwards. It returns the day's entry.
func (l *Ledger) Record(day time.Time, ev Event) (models.DailyActivity, error) {
	if ev.Kind == WatchTimeReported && ev.Minutes < 0 {
		return models.DailyActivity{}, ErrNegativeWatchTime
	}
	if ev.Kind != MarkedComplete && ev.Kind != MarkedIncomplete && ev.Kind != WatchTimeReported {
		return models.DailyActivity{}, fmt.Errorf("unknown event kind %s", ev.Kind)
	}

	key := DayKey(day, l.loc)
	i, ok := l.index[key]
	if !ok {
		i = l.createDay(day)
	}
	entry := &l.user.LearningActivity[i]
	stats := &l.user.TotalStats

	switch ev.Kind {
	case MarkedComplete:
		if !slices.Contains(entry.CompletedVideoIDs, ev.VideoID) {
			entry.CompletedVideoIDs = append(entry.CompletedVideoIDs, ev.VideoID)
			entry.VideosWatched++
			stats.TotalVideosWatched++
		}
	case MarkedIncomplete:
		if idx := slices.Index(entry.CompletedVideoIDs, ev.VideoID); idx >= 0 {
			entry.CompletedVideoIDs = slices.Delete(entry.CompletedVideoIDs, idx, idx+1)
			entry.VideosWatched = decrement(entry.VideosWatched)
			stats.TotalVideosWatched = decrement(stats.TotalVideosWatched)
		}
	case WatchTimeReported:
		entry.WatchTimeMinutes += ev.Minutes
		stats.TotalWatchTimeMinutes += ev.Minutes
	}

	out := *entry
	out.CompletedVideoIDs = slices.Clone(entry.CompletedVideoIDs)
	l.Prune(day)
	return out, nil
}

func (l *Ledger) createDay(day time.Time) int {
	start := StartOfDay(day, l.loc)
	_, continued := l.index[DayKey(addDays(start, -1, l.loc), l.loc)]

	entry := models.DailyActivity{
		Day:               DayKey(start, l.loc),
		Date:              start,
		CompletedVideoIDs: []string{},
	}

	entries := l.user.LearningActivity
	pos := sort.Search(len(entries), func(i int) bool { return entries[i].Date.After(start) })
	entries = append(entries, models.DailyActivity{})
	copy(entries[pos+1:], entries[pos:])
	entries[pos] = entry
	l.user.LearningActivity = entries
	l.reindex()

	AdvanceStreak(&l.user.Streak, start, continued)
	l.user.TotalStats.TotalActiveDays++

	return pos
}

// Prune drops entries whose day is more than RetentionDays before today.
func (l *Ledger) Prune(today time.Time) int {
	cutoff := addDays(today, -RetentionDays, l.loc)
	kept := l.user.LearningActivity[:0]
	dropped := 0
	for _, e := range l.user.LearningActivity {
		if e.Date.Before(cutoff) {
			dropped++
			continue
		}
		kept = append(kept, e)
	}
	l.user.LearningActivity = kept
	if dropped > 0 {
		l.reindex()
	}
	return dropped
}

func decrement(n int) int {
	if n <= 0 {
		return 0
	}
	return n - 1
}
