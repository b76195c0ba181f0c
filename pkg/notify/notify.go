package notify

import (
	"fmt"

	"github.com/supperdoggy/SmartHomeServer/harmoniq-maestro/playlist-tracker/pkg/models"
	"go.uber.org/zap"
	"gopkg.in/tucnak/telebot.v2"
)

type Notifier interface {
	PlaylistImported(playlist *models.Playlist, username string)
}

type telegramNotifier struct {
	log    *zap.Logger
	sendFn func(text string) error
}

func NewTelegramNotifier(token string, chatID int64, log *zap.Logger) (Notifier, error) {
	bot, err := telebot.NewBot(telebot.Settings{Token: token})
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	chat := &telebot.Chat{ID: chatID}
	return &telegramNotifier{
		log: log,
		sendFn: func(text string) error {
			_, err := bot.Send(chat, text)
			return err
		},
	}, nil
}

func (n *telegramNotifier) PlaylistImported(playlist *models.Playlist, username string) {
	if err := n.sendFn(ImportMessage(playlist, username)); err != nil {
		n.log.Error("Failed to send import notification",
			zap.String("playlist_id", playlist.PlaylistID),
			zap.Error(err),
		)
	}
}

// ImportMessage is the one-line import summary posted to the chat.
func ImportMessage(playlist *models.Playlist, username string) string {
	msg := fmt.Sprintf("%s imported %q: %d videos", username, playlist.Title, playlist.VideoCount)
	if playlist.SkippedItems > 0 {
		msg += fmt.Sprintf(", %d skipped", playlist.SkippedItems)
	}
	return msg
}

type nopNotifier struct{}

func NewNopNotifier() Notifier {
	return nopNotifier{}
}

func (nopNotifier) PlaylistImported(*models.Playlist, string) {}
