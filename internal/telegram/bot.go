package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dustin/go-humanize"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"hlsbot/internal/logging"
	"hlsbot/internal/notifications"
	"hlsbot/internal/queue"
	"hlsbot/internal/services"
)

// Chat texts.
const (
	GreetingText     = "Send me a video file. I will convert it to HLS (m3u8)."
	queuedTextFormat = "🎥 Video received. Added to queue... (Position: %d)"
)

// QueuedText is the first status text of a job.
func QueuedText(position int) string {
	return fmt.Sprintf(queuedTextFormat, position)
}

// Submitter accepts jobs.
type Submitter interface {
	Submit(ctx context.Context, job *queue.Job) (int, error)
	NextPosition() int
}

// Bot turns chat updates into jobs.
type Bot struct {
	api         API
	submitter   Submitter
	logger      *slog.Logger
	pollTimeout int
}

// NewBot builds the update handler.
func NewBot(api API, submitter Submitter, pollTimeout int, logger *slog.Logger) *Bot {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Bot{
		api:         api,
		submitter:   submitter,
		logger:      logging.NewComponentLogger(logger, "telegram"),
		pollTimeout: pollTimeout,
	}
}

// Run long-polls for updates until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = b.pollTimeout
	cfg.AllowedUpdates = []string{"message"}
	updates := b.api.GetUpdatesChan(cfg)
	b.logger.Info("bot started polling")

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			b.logger.Info("bot stopped polling")
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			b.HandleUpdate(ctx, update)
		}
	}
}

// HandleUpdate processes one update. Errors are logged, never returned.
func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	msg := update.Message
	if msg == nil || msg.Chat == nil {
		return
	}
	ctx = services.WithChatID(ctx, msg.Chat.ID)
	logger := logging.WithContext(ctx, b.logger)

	if msg.IsCommand() {
		if msg.Command() == "start" {
			b.reply(logger, msg, GreetingText)
		}
		return
	}

	upload, ok := extractUpload(msg)
	if !ok {
		logger.Debug("ignoring non-video message", logging.Int("message_id", msg.MessageID))
		return
	}
	b.accept(ctx, logger, msg, upload)
}

type upload struct {
	fileID string
	name   string
	size   int64
}

func extractUpload(msg *tgbotapi.Message) (upload, bool) {
	switch {
	case msg.Video != nil:
		return upload{fileID: msg.Video.FileID, name: msg.Video.FileName, size: int64(msg.Video.FileSize)}, true
	case msg.Document != nil && strings.HasPrefix(strings.ToLower(msg.Document.MimeType), "video/"):
		return upload{fileID: msg.Document.FileID, name: msg.Document.FileName, size: int64(msg.Document.FileSize)}, true
	default:
		return upload{}, false
	}
}

func (b *Bot) accept(ctx context.Context, logger *slog.Logger, msg *tgbotapi.Message, up upload) {
	status, err := b.reply(logger, msg, QueuedText(b.submitter.NextPosition()))
	if err != nil {
		return
	}
	notifier := notifications.NewDedup(NewMessageNotifier(b.api, msg.Chat.ID, status.MessageID))
	job := queue.NewJob(up.fileID, up.name, up.size, notifier)
	job.ChatID = msg.Chat.ID
	job.MessageID = status.MessageID

	logger.Info("video received",
		logging.String(logging.FieldJobID, job.ID),
		logging.String("file_name", job.FileName),
		logging.String("file_size", humanize.Bytes(uint64(max(up.size, 0)))),
	)
	if _, err := b.submitter.Submit(ctx, job); err != nil {
		logging.WarnWithContext(logger, "job not queued", "queue_rejected",
			logging.String(logging.FieldJobID, job.ID),
			logging.Error(err),
			logging.String(logging.FieldImpact, "video dropped"),
		)
		notifications.Deliver(ctx, logger, notifier, "❌ Error processing video: "+err.Error())
	}
}

func (b *Bot) reply(logger *slog.Logger, msg *tgbotapi.Message, text string) (tgbotapi.Message, error) {
	out := tgbotapi.NewMessage(msg.Chat.ID, text)
	out.ReplyToMessageID = msg.MessageID
	sent, err := b.api.Send(out)
	if err != nil {
		logging.WarnWithContext(logger, "reply failed", "telegram_send_failed",
			logging.Error(err),
			logging.Int("message_id", msg.MessageID),
		)
	}
	return sent, err
}
