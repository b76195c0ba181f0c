package models

import "time"

type Video struct {
	VideoID         string     `json:"videoId" bson:"video_id"`
	Title           string     `json:"title" bson:"title"`
	DurationSeconds int        `json:"duration" bson:"duration_seconds"`
	ThumbnailURL    string     `json:"thumbnail,omitempty" bson:"thumbnail_url,omitempty"`
	Position        int        `json:"position" bson:"position"`
	Completed       bool       `json:"completed" bson:"completed"`
	CompletedAt     *time.Time `json:"completedAt,omitempty" bson:"completed_at,omitempty"`
}

// SetCompleted flips the completion flag and keeps CompletedAt consistent with it.
func (v *Video) SetCompleted(completed bool, at time.Time) {
	v.Completed = completed
	if completed {
		t := at
		v.CompletedAt = &t
		return
	}
	v.CompletedAt = nil
}

type Playlist struct {
	ID            string    `json:"id" bson:"_id"`
	PlaylistID    string    `json:"playlistId" bson:"playlist_id"` // external YouTube id
	Title         string    `json:"title" bson:"title"`
	Description   string    `json:"description" bson:"description"`
	ThumbnailURL  string    `json:"thumbnail" bson:"thumbnail_url"`
	VideoCount    int       `json:"videoCount" bson:"video_count"`
	OwnerUserID   string    `json:"userId" bson:"owner_user_id"`
	Videos        []Video   `json:"videos" bson:"videos"`
	PlaybackSpeed float64   `json:"playlistSpeed" bson:"playback_speed"`
	SkippedItems  int       `json:"skippedItems" bson:"skipped_items"` // items dropped during import
	CreatedAt     time.Time `json:"createdAt" bson:"created_at"`
}

// VideoIndex returns the index of the video with the given external id, or -1.
func (p *Playlist) VideoIndex(videoID string) int {
	for i := range p.Videos {
		if p.Videos[i].VideoID == videoID {
			return i
		}
	}
	return -1
}
