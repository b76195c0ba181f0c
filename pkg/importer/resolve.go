package importer

import (
	"strconv"
	"strings"

	"google.golang.org/api/youtube/v3"
)

// ResolveVideoID prefers contentDetails and falls back to the snippet resource id.
func ResolveVideoID(item *youtube.PlaylistItem) string {
	if item == nil {
		return ""
	}
	if item.ContentDetails != nil {
		if id := strings.TrimSpace(item.ContentDetails.VideoId); id != "" {
			return id
		}
	}
	if item.Snippet != nil && item.Snippet.ResourceId != nil {
		return strings.TrimSpace(item.Snippet.ResourceId.VideoId)
	}
	return ""
}

// ResolveTitle returns the item title or "Video <position+1>".
func ResolveTitle(item *youtube.PlaylistItem, position int) string {
	if item != nil && item.Snippet != nil {
		if title := strings.TrimSpace(item.Snippet.Title); title != "" {
			return title
		}
	}
	return "Video " + strconv.Itoa(position+1)
}

// ResolveThumbnail walks thumbnail variants from the highest resolution down.
func ResolveThumbnail(thumbnails *youtube.ThumbnailDetails) string {
	if thumbnails == nil {
		return ""
	}

	for _, t := range []*youtube.Thumbnail{
		thumbnails.Maxres,
		thumbnails.Standard,
		thumbnails.High,
		thumbnails.Medium,
		thumbnails.Default,
	} {
		if t != nil && t.Url != "" {
			return t.Url
		}
	}

	return ""
}

func itemThumbnails(item *youtube.PlaylistItem) *youtube.ThumbnailDetails {
	if item == nil || item.Snippet == nil {
		return nil
	}
	return item.Snippet.Thumbnails
}

// ResolveDuration looks the id up in the merged duration details; absent means 0.
func ResolveDuration(durations map[string]string, videoID string) int {
	token, ok := durations[videoID]
	if !ok {
		return 0
	}
	return ParseDuration(token)
}
