package importer

import (
	"fmt"

	"github.com/supperdoggy/SmartHomeServer/harmoniq-maestro/playlist-tracker/pkg/models"
	"go.uber.org/zap"
	"google.golang.org/api/youtube/v3"
)

type Normalized struct {
	Videos  []models.Video
	Skipped int
}

// Normalize maps raw playlist items onto videos. Items that fail are dropped and
// counted; positions stay contiguous over the survivors. A video id that repeats
// keeps its first occurrence only.
func Normalize(log *zap.Logger, items []*youtube.PlaylistItem, durations map[string]string) (Normalized, error) {
	out := Normalized{Videos: make([]models.Video, 0, len(items))}
	seen := make(map[string]struct{}, len(items))

	for index, item := range items {
		video, err := normalizeItem(item, len(out.Videos), durations)
		if err == nil {
			if _, dup := seen[video.VideoID]; dup {
				err = fmt.Errorf("%w: %s", ErrDuplicateVideoID, video.VideoID)
			}
		}
		if err != nil {
			out.Skipped++
			log.Warn("skipping playlist item", zap.Int("index", index), zap.Error(err))
			continue
		}
		seen[video.VideoID] = struct{}{}
		out.Videos = append(out.Videos, video)
	}

	if len(out.Videos) == 0 {
		return out, ErrNoVideosProcessed
	}

	return out, nil
}

func normalizeItem(item *youtube.PlaylistItem, position int, durations map[string]string) (models.Video, error) {
	videoID := ResolveVideoID(item)
	if videoID == "" {
		return models.Video{}, ErrMissingVideoID
	}

	return models.Video{
		VideoID:         videoID,
		Title:           ResolveTitle(item, position),
		DurationSeconds: ResolveDuration(durations, videoID),
		ThumbnailURL:    ResolveThumbnail(itemThumbnails(item)),
		Position:        position,
	}, nil
}
