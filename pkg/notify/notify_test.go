package notify

import (
	"errors"
	"testing"

	"github.com/supperdoggy/SmartHomeServer/harmoniq-maestro/playlist-tracker/pkg/models"
	"go.uber.org/zap"
)

func TestImportMessage(t *testing.T) {
	tests := []struct {
		name     string
		playlist models.Playlist
		expected string
	}{
		{
			name:     "no skipped items",
			playlist: models.Playlist{Title: "Go course", VideoCount: 12},
			expected: `alice imported "Go course": 12 videos`,
		},
		{
			name:     "with skipped items",
			playlist: models.Playlist{Title: "ML", VideoCount: 99, SkippedItems: 1},
			expected: `alice imported "ML": 99 videos, 1 skipped`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ImportMessage(&tt.playlist, "alice")
			if result != tt.expected {
				t.Errorf("ImportMessage() = %q, want %q", result, tt.expected)
			}
		})
	}
}

func TestTelegramNotifierSends(t *testing.T) {
	var sent []string
	n := &telegramNotifier{
		log: zap.NewNop(),
		sendFn: func(text string) error {
			sent = append(sent, text)
			return nil
		},
	}

	n.PlaylistImported(&models.Playlist{Title: "Go", VideoCount: 3}, "bob")

	if len(sent) != 1 || sent[0] != `bob imported "Go": 3 videos` {
		t.Fatalf("unexpected messages %v", sent)
	}
}

func TestTelegramNotifierSwallowsErrors(t *testing.T) {
	n := &telegramNotifier{
		log:    zap.NewNop(),
		sendFn: func(string) error { return errors.New("telegram down") },
	}

	// must not panic or propagate
	n.PlaylistImported(&models.Playlist{Title: "Go"}, "bob")
	NewNopNotifier().PlaylistImported(&models.Playlist{}, "bob")
}
