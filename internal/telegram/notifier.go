package telegram

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Notifier is the delivery channel for reminders. All chats share one token
// bucket so bursts stay under Telegram's global send limit.
type Notifier struct {
	bot     Bot
	limiter *rate.Limiter
	log     *zap.Logger
}

// NewNotifier creates a Notifier allowing perSec messages per second.
func NewNotifier(bot Bot, perSec int, log *zap.Logger) *Notifier {
	if perSec <= 0 {
		perSec = 1
	}
	return &Notifier{
		bot:     bot,
		limiter: rate.NewLimiter(rate.Limit(perSec), perSec),
		log:     log.Named("notifier"),
	}
}

// SendReminder sends the image by URL with caption as a photo message.
// This makes Notifier satisfy scheduler.Sender.
func (n *Notifier) SendReminder(ctx context.Context, chatID int64, imageURL, caption string) error {
	if err := n.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}
	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileURL(imageURL))
	photo.Caption = caption
	if _, err := n.bot.Send(photo); err != nil {
		return fmt.Errorf("send photo: %w", err)
	}
	n.log.Debug("photo sent", zap.Int64("chatID", chatID))
	return nil
}
