package progress

import (
	"fmt"
	"math"

	"github.com/supperdoggy/SmartHomeServer/harmoniq-maestro/playlist-tracker/pkg/models"
)

type Progress struct {
	Completed  int     `json:"completed"`
	Total      int     `json:"total"`
	Percentage float64 `json:"percentage"`
}

type Remaining struct {
	Seconds   float64 `json:"seconds"`
	Hours     int     `json:"hours"`
	Minutes   int     `json:"minutes"`
	Formatted string  `json:"formatted"`
}

// Totals is the aggregate over every playlist a user owns.
type Totals struct {
	TotalWatched         int     `json:"totalWatched"`
	TotalVideos          int     `json:"totalVideos"`
	CompletionPercentage float64 `json:"completionPercentage"`
}

func Compute(videos []models.Video) Progress {
	p := Progress{Total: len(videos)}
	for _, v := range videos {
		if v.Completed {
			p.Completed++
		}
	}
	p.Percentage = percentage(p.Completed, p.Total)
	return p
}

// RemainingTime sums the durations of incomplete videos scaled by speed.
// A speed of zero or less counts as normal speed.
func RemainingTime(videos []models.Video, speed float64) Remaining {
	if speed <= 0 {
		speed = 1
	}

	total := 0
	for _, v := range videos {
		if !v.Completed {
			total += v.DurationSeconds
		}
	}

	seconds := float64(total) / speed
	whole := int(math.Floor(seconds))
	hours := whole / 3600
	minutes := (whole / 60) % 60

	return Remaining{
		Seconds:   seconds,
		Hours:     hours,
		Minutes:   minutes,
		Formatted: fmt.Sprintf("%dh %dm", hours, minutes),
	}
}

func ComputeTotals(playlists []models.Playlist) Totals {
	var t Totals
	for _, p := range playlists {
		progress := Compute(p.Videos)
		t.TotalWatched += progress.Completed
		t.TotalVideos += progress.Total
	}
	t.CompletionPercentage = math.Round(percentage(t.TotalWatched, t.TotalVideos)*10) / 10
	return t
}

func percentage(completed, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(completed) / float64(total) * 100
}
