package youtube

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/supperdoggy/SmartHomeServer/harmoniq-maestro/playlist-tracker/pkg/importer"
	"go.uber.org/zap"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

type Client struct {
	service *youtube.Service
	log     *zap.Logger
}

// NewClient builds a YouTube Data API client. Extra options (endpoint, http client)
// are appended after the API key.
func NewClient(ctx context.Context, apiKey string, log *zap.Logger, opts ...option.ClientOption) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("YouTube API key is required")
	}

	opts = append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)
	service, err := youtube.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create YouTube service: %w", err)
	}

	return &Client{
		service: service,
		log:     log,
	}, nil
}

func (c *Client) FetchPlaylistMetadata(ctx context.Context, playlistID string) (importer.PlaylistMeta, error) {
	res, err := c.service.Playlists.List([]string{"snippet"}).
		Id(playlistID).
		Context(ctx).
		Do()
	if err != nil {
		return importer.PlaylistMeta{}, classify("playlists.list", err)
	}

	if len(res.Items) == 0 || res.Items[0].Snippet == nil {
		return importer.PlaylistMeta{}, &importer.UpstreamError{
			Reason: importer.ReasonNotFound,
			Op:     "playlists.list",
			Err:    fmt.Errorf("playlist %s not found", playlistID),
		}
	}

	snippet := res.Items[0].Snippet
	return importer.PlaylistMeta{
		Title:        snippet.Title,
		Description:  snippet.Description,
		ThumbnailURL: importer.ResolveThumbnail(snippet.Thumbnails),
	}, nil
}

func (c *Client) FetchPlaylistItems(ctx context.Context, playlistID, pageToken string) (importer.ItemsPage, error) {
	call := c.service.PlaylistItems.List([]string{"snippet", "contentDetails"}).
		PlaylistId(playlistID).
		MaxResults(importer.PageSize)
	if pageToken != "" {
		call = call.PageToken(pageToken)
	}

	res, err := call.Context(ctx).Do()
	if err != nil {
		return importer.ItemsPage{}, classify("playlistItems.list", err)
	}

	c.log.Debug("fetched playlist page",
		zap.String("playlist_id", playlistID),
		zap.Int("items", len(res.Items)),
		zap.Bool("has_next", res.NextPageToken != ""),
	)

	return importer.ItemsPage{
		Items:         res.Items,
		NextPageToken: res.NextPageToken,
	}, nil
}

func (c *Client) FetchVideoDurations(ctx context.Context, ids []string) (map[string]string, error) {
	if len(ids) > importer.MaxIDsPerRequest {
		return nil, fmt.Errorf("too many ids in one request: %d", len(ids))
	}

	durations := make(map[string]string, len(ids))
	if len(ids) == 0 {
		return durations, nil
	}

	res, err := c.service.Videos.List([]string{"contentDetails"}).
		Id(ids...).
		MaxResults(importer.MaxIDsPerRequest).
		Context(ctx).
		Do()
	if err != nil {
		return nil, classify("videos.list", err)
	}

	for _, item := range res.Items {
		if item == nil || item.ContentDetails == nil {
			continue
		}
		durations[item.Id] = item.ContentDetails.Duration
	}

	return durations, nil
}

// classify maps a Data API failure onto the import error reasons.
func classify(op string, err error) error {
	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) {
		return &importer.UpstreamError{Reason: importer.ReasonUpstream, Op: op, Err: err}
	}

	reason := importer.ReasonUpstream
	switch {
	case apiErr.Code == http.StatusNotFound || hasReason(apiErr, "playlistNotFound", "videoNotFound", "notFound"):
		reason = importer.ReasonNotFound
	case apiErr.Code == http.StatusTooManyRequests ||
		hasReason(apiErr, "quotaExceeded", "rateLimitExceeded", "userRateLimitExceeded", "dailyLimitExceeded"):
		reason = importer.ReasonQuotaExceeded
	case hasReason(apiErr, "keyInvalid", "keyExpired", "accessNotConfigured") ||
		strings.Contains(apiErr.Message, "API key not valid") ||
		apiErr.Code == http.StatusForbidden:
		reason = importer.ReasonInvalidKey
	}

	return &importer.UpstreamError{Reason: reason, Op: op, Err: err}
}

func hasReason(apiErr *googleapi.Error, reasons ...string) bool {
	for _, item := range apiErr.Errors {
		for _, r := range reasons {
			if item.Reason == r {
				return true
			}
		}
	}
	return false
}
