package importer

import (
	"context"

	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"
	"google.golang.org/api/youtube/v3"
)

const (
	// PageSize and MaxIDsPerRequest are the YouTube Data API per-request limits.
	PageSize         = 50
	MaxIDsPerRequest = 50

	defaultMaxPages    = 100
	defaultConcurrency = 3
)

type PlaylistMeta struct {
	Title        string
	Description  string
	ThumbnailURL string
}

type ItemsPage struct {
	Items         []*youtube.PlaylistItem
	NextPageToken string
}

// Source is the video platform as the import pipeline sees it.
type Source interface {
	FetchPlaylistMetadata(ctx context.Context, playlistID string) (PlaylistMeta, error)
	FetchPlaylistItems(ctx context.Context, playlistID, pageToken string) (ItemsPage, error)
	FetchVideoDurations(ctx context.Context, ids []string) (map[string]string, error)
}

type Result struct {
	PlaylistID string
	Meta       PlaylistMeta
	Normalized
}

type Importer struct {
	source      Source
	log         *zap.Logger
	maxPages    int
	concurrency int
}

func NewImporter(source Source, log *zap.Logger, maxPages, concurrency int) *Importer {
	if maxPages <= 0 {
		maxPages = defaultMaxPages
	}
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}

	return &Importer{
		source:      source,
		log:         log,
		maxPages:    maxPages,
		concurrency: concurrency,
	}
}

// Import fetches metadata, every item page and all durations, then normalizes.
// Any fetch failure aborts the whole import with an *UpstreamError.
func (i *Importer) Import(ctx context.Context, playlistID string) (*Result, error) {
	meta, err := i.source.FetchPlaylistMetadata(ctx, playlistID)
	if err != nil {
		return nil, asUpstream("playlists.list", err)
	}

	items, err := i.fetchAllItems(ctx, playlistID)
	if err != nil {
		return nil, err
	}

	durations, err := i.fetchDurations(ctx, collectVideoIDs(items))
	if err != nil {
		return nil, err
	}

	normalized, err := Normalize(i.log, items, durations)
	if err != nil {
		return nil, err
	}

	i.log.Info("playlist normalized",
		zap.String("playlist_id", playlistID),
		zap.Int("items", len(items)),
		zap.Int("videos", len(normalized.Videos)),
		zap.Int("skipped", normalized.Skipped),
	)

	return &Result{
		PlaylistID: playlistID,
		Meta:       meta,
		Normalized: normalized,
	}, nil
}

func (i *Importer) fetchAllItems(ctx context.Context, playlistID string) ([]*youtube.PlaylistItem, error) {
	var (
		items     []*youtube.PlaylistItem
		pageToken string
	)

	for page := 0; page < i.maxPages; page++ {
		res, err := i.source.FetchPlaylistItems(ctx, playlistID, pageToken)
		if err != nil {
			return nil, asUpstream("playlistItems.list", err)
		}

		items = append(items, res.Items...)
		if res.NextPageToken == "" {
			return items, nil
		}
		pageToken = res.NextPageToken
	}

	i.log.Warn("playlist truncated at page limit",
		zap.String("playlist_id", playlistID),
		zap.Int("max_pages", i.maxPages),
		zap.Int("items", len(items)),
	)

	return items, nil
}

func (i *Importer) fetchDurations(ctx context.Context, ids []string) (map[string]string, error) {
	durations := make(map[string]string, len(ids))
	if len(ids) == 0 {
		return durations, nil
	}

	p := pool.NewWithResults[map[string]string]().
		WithContext(ctx).
		WithCancelOnError().
		WithFirstError().
		WithMaxGoroutines(i.concurrency)

	for _, batch := range chunk(ids, MaxIDsPerRequest) {
		batch := batch
		p.Go(func(ctx context.Context) (map[string]string, error) {
			return i.source.FetchVideoDurations(ctx, batch)
		})
	}

	results, err := p.Wait()
	if err != nil {
		return nil, asUpstream("videos.list", err)
	}

	for _, res := range results {
		for id, d := range res {
			durations[id] = d
		}
	}

	return durations, nil
}

func collectVideoIDs(items []*youtube.PlaylistItem) []string {
	seen := make(map[string]struct{}, len(items))
	ids := make([]string, 0, len(items))
	for _, item := range items {
		id := ResolveVideoID(item)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}

func chunk(ids []string, size int) [][]string {
	batches := make([][]string, 0, (len(ids)+size-1)/size)
	for start := 0; start < len(ids); start += size {
		end := start + size
		if end > len(ids) {
			end = len(ids)
		}
		batches = append(batches, ids[start:end])
	}
	return batches
}
