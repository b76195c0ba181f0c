package models

import "time"

type User struct {
	ID           string    `json:"id" bson:"_id"`
	Username     string    `json:"username" bson:"username"`
	Email        string    `json:"email" bson:"email"`
	PasswordHash string    `json:"-" bson:"password_hash"`
	CreatedAt    time.Time `json:"createdAt" bson:"created_at"`

	LearningActivity []DailyActivity `json:"learningActivity" bson:"learning_activity"`
	Streak           Streak          `json:"streak" bson:"streak"`
	TotalStats       TotalStats      `json:"totalStats" bson:"total_stats"`
}

// DailyActivity is one ledger entry. Day is the calendar key (YYYY-MM-DD) in the
// service time zone, Date is midnight of that day.
type DailyActivity struct {
	Day               string    `json:"day" bson:"day"`
	Date              time.Time `json:"date" bson:"date"`
	VideosWatched     int       `json:"videosWatched" bson:"videos_watched"`
	WatchTimeMinutes  int       `json:"watchTimeMinutes" bson:"watch_time_minutes"`
	CompletedVideoIDs []string  `json:"videosCompleted" bson:"completed_video_ids"`
}

type Streak struct {
	Current    int        `json:"current" bson:"current"`
	Longest    int        `json:"longest" bson:"longest"`
	LastActive *time.Time `json:"lastActive" bson:"last_active,omitempty"`
}

type TotalStats struct {
	TotalVideosWatched    int `json:"totalVideosWatched" bson:"total_videos_watched"`
	TotalWatchTimeMinutes int `json:"totalWatchTimeMinutes" bson:"total_watch_time_minutes"`
	TotalActiveDays       int `json:"totalActiveDays" bson:"total_active_days"`
}
