package importer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"go.uber.org/zap"
	"google.golang.org/api/youtube/v3"
)

type fakeSource struct {
	meta     PlaylistMeta
	metaErr  error
	pages    []ItemsPage
	pageErr  map[int]error
	detailFn func(ids []string) (map[string]string, error)

	mu          sync.Mutex
	pageCalls   []string
	detailCalls [][]string
}

func (f *fakeSource) FetchPlaylistMetadata(context.Context, string) (PlaylistMeta, error) {
	return f.meta, f.metaErr
}

func (f *fakeSource) FetchPlaylistItems(_ context.Context, _ string, pageToken string) (ItemsPage, error) {
	f.mu.Lock()
	f.pageCalls = append(f.pageCalls, pageToken)
	call := len(f.pageCalls) - 1
	f.mu.Unlock()

	if err := f.pageErr[call]; err != nil {
		return ItemsPage{}, err
	}
	if call >= len(f.pages) {
		return ItemsPage{}, nil
	}
	return f.pages[call], nil
}

func (f *fakeSource) FetchVideoDurations(_ context.Context, ids []string) (map[string]string, error) {
	f.mu.Lock()
	f.detailCalls = append(f.detailCalls, append([]string(nil), ids...))
	f.mu.Unlock()

	if f.detailFn != nil {
		return f.detailFn(ids)
	}
	out := make(map[string]string, len(ids))
	for _, id := range ids {
		out[id] = "PT10M"
	}
	return out, nil
}

func pageOf(start, n int, next string) ItemsPage {
	items := make([]*youtube.PlaylistItem, 0, n)
	for i := start; i < start+n; i++ {
		items = append(items, testItem(fmt.Sprintf("vid-%03d", i), fmt.Sprintf("Lecture %d", i)))
	}
	return ItemsPage{Items: items, NextPageToken: next}
}

func TestImportTwoPagesWithMissingID(t *testing.T) {
	first := pageOf(0, 50, "page-2")
	second := pageOf(50, 50, "")
	second.Items[10] = &youtube.PlaylistItem{Snippet: &youtube.PlaylistItemSnippet{Title: "deleted"}}

	src := &fakeSource{
		meta:  PlaylistMeta{Title: "Course"},
		pages: []ItemsPage{first, second},
	}

	res, err := NewImporter(src, zap.NewNop(), 0, 0).Import(context.Background(), "PL1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Videos) != 99 {
		t.Fatalf("expected 99 videos, got %d", len(res.Videos))
	}
	if res.Skipped != 1 {
		t.Fatalf("expected 1 skipped item, got %d", res.Skipped)
	}
	for i, v := range res.Videos {
		if v.Position != i {
			t.Fatalf("expected contiguous position %d, got %d", i, v.Position)
		}
		if v.DurationSeconds != 600 {
			t.Fatalf("expected 600s duration, got %d for %s", v.DurationSeconds, v.VideoID)
		}
	}
	if res.Meta.Title != "Course" || res.PlaylistID != "PL1" {
		t.Fatalf("unexpected meta: %+v", res)
	}
	if len(src.pageCalls) != 2 || src.pageCalls[0] != "" || src.pageCalls[1] != "page-2" {
		t.Fatalf("unexpected page calls: %v", src.pageCalls)
	}
}

func TestImportBatchesDurationLookups(t *testing.T) {
	src := &fakeSource{
		pages: []ItemsPage{pageOf(0, 50, "b"), pageOf(50, 50, "c"), pageOf(100, 30, "")},
	}

	res, err := NewImporter(src, zap.NewNop(), 10, 2).Import(context.Background(), "PL1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Videos) != 130 {
		t.Fatalf("expected 130 videos, got %d", len(res.Videos))
	}
	if len(src.detailCalls) != 3 {
		t.Fatalf("expected 3 detail batches, got %d", len(src.detailCalls))
	}

	total := 0
	for _, batch := range src.detailCalls {
		if len(batch) > MaxIDsPerRequest {
			t.Fatalf("batch of %d ids exceeds limit", len(batch))
		}
		total += len(batch)
	}
	if total != 130 {
		t.Fatalf("expected 130 ids requested, got %d", total)
	}
}

func TestImportAbortsOnDetailFailure(t *testing.T) {
	boom := errors.New("connection reset")
	src := &fakeSource{
		pages: []ItemsPage{pageOf(0, 50, "b"), pageOf(50, 50, "")},
		detailFn: func(ids []string) (map[string]string, error) {
			if ids[0] == "vid-050" {
				return nil, boom
			}
			return map[string]string{}, nil
		},
	}

	res, err := NewImporter(src, zap.NewNop(), 0, 1).Import(context.Background(), "PL1")
	if res != nil {
		t.Fatalf("expected no result, got %+v", res)
	}

	var upstream *UpstreamError
	if !errors.As(err, &upstream) {
		t.Fatalf("expected UpstreamError, got %v", err)
	}
	if upstream.Reason != ReasonUpstream {
		t.Fatalf("expected generic upstream reason, got %q", upstream.Reason)
	}
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped cause, got %v", err)
	}
}

func TestImportAbortsOnPageFailure(t *testing.T) {
	src := &fakeSource{
		pages:   []ItemsPage{pageOf(0, 50, "b")},
		pageErr: map[int]error{1: &UpstreamError{Reason: ReasonQuotaExceeded, Op: "playlistItems.list"}},
	}

	_, err := NewImporter(src, zap.NewNop(), 0, 0).Import(context.Background(), "PL1")

	var upstream *UpstreamError
	if !errors.As(err, &upstream) {
		t.Fatalf("expected UpstreamError, got %v", err)
	}
	if upstream.Reason != ReasonQuotaExceeded {
		t.Fatalf("expected quota reason to survive, got %q", upstream.Reason)
	}
	if len(src.detailCalls) != 0 {
		t.Fatalf("expected no detail lookups after page failure, got %d", len(src.detailCalls))
	}
}

func TestImportMetadataNotFound(t *testing.T) {
	src := &fakeSource{metaErr: &UpstreamError{Reason: ReasonNotFound, Op: "playlists.list"}}

	_, err := NewImporter(src, zap.NewNop(), 0, 0).Import(context.Background(), "missing")

	var upstream *UpstreamError
	if !errors.As(err, &upstream) || upstream.Reason != ReasonNotFound {
		t.Fatalf("expected not_found upstream error, got %v", err)
	}
	if len(src.pageCalls) != 0 {
		t.Fatalf("expected no page fetches, got %d", len(src.pageCalls))
	}
}

func TestImportStopsAtPageLimit(t *testing.T) {
	src := &fakeSource{
		pages: []ItemsPage{pageOf(0, 50, "b"), pageOf(50, 50, "c"), pageOf(100, 50, "d")},
	}

	res, err := NewImporter(src, zap.NewNop(), 2, 0).Import(context.Background(), "PL1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Videos) != 100 {
		t.Fatalf("expected 100 videos from 2 pages, got %d", len(res.Videos))
	}
}

func TestImportAllItemsUnusable(t *testing.T) {
	src := &fakeSource{
		pages: []ItemsPage{{Items: []*youtube.PlaylistItem{{}, {}}}},
	}

	_, err := NewImporter(src, zap.NewNop(), 0, 0).Import(context.Background(), "PL1")
	if !errors.Is(err, ErrNoVideosProcessed) {
		t.Fatalf("expected ErrNoVideosProcessed, got %v", err)
	}
	if len(src.detailCalls) != 0 {
		t.Fatalf("expected no detail lookups without ids, got %d", len(src.detailCalls))
	}
}

func TestChunk(t *testing.T) {
	ids := make([]string, 101)
	batches := chunk(ids, 50)
	if len(batches) != 3 || len(batches[2]) != 1 {
		t.Fatalf("unexpected batches: %d", len(batches))
	}
	if len(chunk(nil, 50)) != 0 {
		t.Fatal("expected no batches for empty input")
	}
}
