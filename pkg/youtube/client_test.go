package youtube

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/supperdoggy/SmartHomeServer/harmoniq-maestro/playlist-tracker/pkg/importer"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewClient(context.Background(), "test-key", zap.NewNop(),
		option.WithEndpoint(srv.URL+"/"),
		option.WithHTTPClient(srv.Client()),
	)
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}
	return client
}

func writeAPIError(w http.ResponseWriter, code int, reason, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"code":    code,
			"message": message,
			"errors":  []map[string]any{{"reason": reason, "message": message}},
		},
	})
}

func writeJSON(w http.ResponseWriter, body any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(body)
}

func TestNewClientRequiresKey(t *testing.T) {
	if _, err := NewClient(context.Background(), "", zap.NewNop()); err == nil {
		t.Fatal("expected error for empty API key")
	}
}

func TestFetchPlaylistMetadata(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/youtube/v3/playlists" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("id"); got != "PL1" {
			t.Errorf("expected id=PL1, got %q", got)
		}
		writeJSON(w, map[string]any{
			"items": []map[string]any{{
				"id": "PL1",
				"snippet": map[string]any{
					"title":       "Go course",
					"description": "all of it",
					"thumbnails": map[string]any{
						"default": map[string]any{"url": "small.jpg"},
						"high":    map[string]any{"url": "high.jpg"},
					},
				},
			}},
		})
	})

	meta, err := client.FetchPlaylistMetadata(context.Background(), "PL1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if meta.Title != "Go course" || meta.Description != "all of it" {
		t.Fatalf("unexpected meta: %+v", meta)
	}
	if meta.ThumbnailURL != "high.jpg" {
		t.Fatalf("expected best thumbnail, got %q", meta.ThumbnailURL)
	}
}

func TestFetchPlaylistMetadataEmptyIsNotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"items": []any{}})
	})

	_, err := client.FetchPlaylistMetadata(context.Background(), "missing")

	var upstream *importer.UpstreamError
	if !errors.As(err, &upstream) || upstream.Reason != importer.ReasonNotFound {
		t.Fatalf("expected not_found, got %v", err)
	}
}

func TestFetchPlaylistItemsPassesPageToken(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if r.URL.Path != "/youtube/v3/playlistItems" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if q.Get("maxResults") != "50" {
			t.Errorf("expected maxResults=50, got %q", q.Get("maxResults"))
		}
		if q.Get("pageToken") != "next-1" {
			t.Errorf("expected pageToken=next-1, got %q", q.Get("pageToken"))
		}
		writeJSON(w, map[string]any{
			"nextPageToken": "next-2",
			"items": []map[string]any{
				{"contentDetails": map[string]any{"videoId": "a"}},
				{"snippet": map[string]any{"resourceId": map[string]any{"videoId": "b"}}},
			},
		})
	})

	page, err := client.FetchPlaylistItems(context.Background(), "PL1", "next-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if page.NextPageToken != "next-2" || len(page.Items) != 2 {
		t.Fatalf("unexpected page: %+v", page)
	}
	if importer.ResolveVideoID(page.Items[1]) != "b" {
		t.Fatalf("expected resource id fallback to resolve b")
	}
}

func TestFetchVideoDurations(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/youtube/v3/videos" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		ids := strings.Join(r.URL.Query()["id"], ",")
		if ids != "a,b" {
			t.Errorf("expected ids a,b, got %q", ids)
		}
		writeJSON(w, map[string]any{
			"items": []map[string]any{
				{"id": "a", "contentDetails": map[string]any{"duration": "PT1M"}},
				{"id": "b"},
			},
		})
	})

	durations, err := client.FetchVideoDurations(context.Background(), []string{"a", "b"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if durations["a"] != "PT1M" {
		t.Fatalf("expected PT1M for a, got %q", durations["a"])
	}
	if _, ok := durations["b"]; ok {
		t.Fatal("expected no duration for item without content details")
	}
}

func TestFetchVideoDurationsRejectsOversizedBatch(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	})

	ids := make([]string, importer.MaxIDsPerRequest+1)
	if _, err := client.FetchVideoDurations(context.Background(), ids); err == nil {
		t.Fatal("expected error for oversized batch")
	}
}

func TestErrorClassification(t *testing.T) {
	tests := []struct {
		name    string
		code    int
		reason  string
		message string
		want    importer.Reason
	}{
		{name: "quota", code: http.StatusForbidden, reason: "quotaExceeded", message: "quota", want: importer.ReasonQuotaExceeded},
		{name: "rate limited", code: http.StatusTooManyRequests, reason: "rateLimitExceeded", message: "slow down", want: importer.ReasonQuotaExceeded},
		{name: "missing playlist", code: http.StatusNotFound, reason: "playlistNotFound", message: "gone", want: importer.ReasonNotFound},
		{name: "bad key", code: http.StatusBadRequest, reason: "badRequest", message: "API key not valid. Please pass a valid API key.", want: importer.ReasonInvalidKey},
		{name: "forbidden", code: http.StatusForbidden, reason: "forbidden", message: "nope", want: importer.ReasonInvalidKey},
		{name: "server error", code: http.StatusInternalServerError, reason: "backendError", message: "oops", want: importer.ReasonUpstream},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				writeAPIError(w, tt.code, tt.reason, tt.message)
			})

			_, err := client.FetchPlaylistItems(context.Background(), "PL1", "")

			var upstream *importer.UpstreamError
			if !errors.As(err, &upstream) {
				t.Fatalf("expected UpstreamError, got %v", err)
			}
			if upstream.Reason != tt.want {
				t.Fatalf("expected reason %q, got %q", tt.want, upstream.Reason)
			}
			if upstream.Op != "playlistItems.list" {
				t.Fatalf("unexpected op %q", upstream.Op)
			}
		})
	}
}
