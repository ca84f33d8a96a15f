package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"hlsbot/internal/config"
	"hlsbot/internal/logging"
)

// API is the subset of the Bot API used here. *tgbotapi.BotAPI satisfies it.
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetFile(config tgbotapi.FileConfig) (tgbotapi.File, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// ErrUnauthorized reports a rejected bot token. Retrying does not help.
var ErrUnauthorized = errors.New("bot token rejected by the Bot API server")

var newBotAPI = func(token, endpoint string, client *http.Client) (*tgbotapi.BotAPI, error) {
	return tgbotapi.NewBotAPIWithClient(token, endpoint, client)
}

// Endpoint returns the method URL template for a Bot API server root.
func Endpoint(apiRoot string) string {
	return strings.TrimRight(apiRoot, "/") + "/bot%s/%s"
}

// Connect creates a Bot API client, retrying while the server comes up. An
// Unauthorized response stops retrying immediately: a token still bound to the
// cloud API must be logged out there before a local server accepts it.
func Connect(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*tgbotapi.BotAPI, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logging.NewComponentLogger(logger, "telegram")
	attempts := cfg.Telegram.ConnectAttempts
	if attempts <= 0 {
		attempts = 1
	}
	interval := cfg.ConnectInterval()
	// Long polling holds requests open for the poll timeout.
	client := &http.Client{Timeout: time.Duration(cfg.Telegram.PollTimeoutSeconds+30) * time.Second}
	endpoint := Endpoint(cfg.Telegram.APIRoot)

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		logger.Info("connecting to bot api",
			logging.String("api_root", cfg.Telegram.APIRoot),
			logging.Int("attempt", attempt),
			logging.Int("attempts_left", attempts-attempt),
		)
		bot, err := newBotAPI(cfg.Telegram.Token, endpoint, client)
		if err == nil {
			logger.Info("connected to bot api", logging.String("username", bot.Self.UserName))
			return bot, nil
		}
		lastErr = err

		if isUnauthorized(err) {
			logging.ErrorWithContext(logger, "bot api rejected the token", "telegram_unauthorized",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "log the bot out of the cloud API first: https://api.telegram.org/bot<token>/logOut"),
			)
			return nil, fmt.Errorf("%w: %v", ErrUnauthorized, err)
		}

		attrs := []logging.Attr{logging.Error(err), logging.String(logging.FieldImpact, "retrying")}
		if isDNSFailure(err) {
			attrs = append(attrs, logging.String(logging.FieldErrorHint, "DNS lookup failed; the Bot API server may still be starting"))
		} else {
			attrs = append(attrs, logging.String(logging.FieldErrorHint, "check telegram.api_root and that the Bot API server is running"))
		}
		logging.WarnWithContext(logger, "bot api connection failed", "telegram_connect_failed", attrs...)

		if attempt == attempts {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(interval):
		}
	}
	return nil, fmt.Errorf("could not connect to bot api after %d attempts: %w", attempts, lastErr)
}

func isUnauthorized(err error) bool {
	var apiErr *tgbotapi.Error
	if errors.As(err, &apiErr) && apiErr.Code == http.StatusUnauthorized {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "401") || strings.Contains(msg, "Unauthorized")
}

func isDNSFailure(err error) bool {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	return strings.Contains(err.Error(), "EAI_AGAIN") || strings.Contains(err.Error(), "no such host")
}
