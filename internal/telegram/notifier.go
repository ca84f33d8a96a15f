package telegram

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"hlsbot/internal/notifications"
)

// MaxMessageRunes is the longest text the Bot API accepts for a message.
const MaxMessageRunes = 4096

// MessageNotifier edits one chat message in place.
type MessageNotifier struct {
	api       API
	chatID    int64
	messageID int
}

// NewMessageNotifier targets the given message.
func NewMessageNotifier(api API, chatID int64, messageID int) *MessageNotifier {
	return &MessageNotifier{api: api, chatID: chatID, messageID: messageID}
}

// Update implements notifications.Notifier. Text beyond MaxMessageRunes is
// cut so the edit is never rejected for length.
func (n *MessageNotifier) Update(_ context.Context, text string) error {
	if runes := []rune(text); len(runes) > MaxMessageRunes {
		text = string(runes[:MaxMessageRunes-1]) + "…"
	}
	_, err := n.api.Send(tgbotapi.NewEditMessageText(n.chatID, n.messageID, text))
	if err != nil && strings.Contains(err.Error(), "message is not modified") {
		return notifications.ErrUnchanged
	}
	return err
}
