package telegram

import (
	"context"
	"errors"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/ykvlv/water-reminder-bot/internal/domain"
	"github.com/ykvlv/water-reminder-bot/internal/store"
)

// --- Generic helpers ---

func (r *Router) send(c tgbotapi.Chattable, chatID int64) {
	if _, err := r.bot.Send(c); err != nil {
		r.log.Warn("reply failed", zap.Int64("chatID", chatID), zap.Error(err))
	}
}

func (r *Router) sendText(chatID int64, text string) {
	r.send(tgbotapi.NewMessage(chatID, text), chatID)
}

func (r *Router) sendWithKeyboard(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = frequencyKeyboard()
	r.send(msg, chatID)
}

// --- Commands ---

func (r *Router) handleStart(ctx context.Context, chatID int64) {
	if _, err := r.repo.EnsureUser(ctx, chatID); err != nil {
		r.log.Error("ensureUser failed", zap.Int64("chatID", chatID), zap.Error(err))
		r.sendText(chatID, storeErrorText)
		return
	}
	r.sendWithKeyboard(chatID, startMessage())
}

func (r *Router) handleStop(ctx context.Context, chatID int64) {
	if err := r.repo.SetActive(ctx, chatID, false); err != nil {
		r.log.Error("deactivate failed", zap.Int64("chatID", chatID), zap.Error(err))
		r.sendText(chatID, storeErrorText)
		return
	}
	r.sched.Cancel(chatID)
	r.log.Info("reminders stopped", zap.Int64("chatID", chatID))
	r.sendWithKeyboard(chatID, stopText)
}

func (r *Router) handleInfo(chatID int64) {
	msg := tgbotapi.NewMessage(chatID, r.info)
	msg.ParseMode = tgbotapi.ModeMarkdown
	msg.DisableWebPagePreview = true
	r.send(msg, chatID)
}

func (r *Router) handleStatus(ctx context.Context, chatID int64) {
	u, err := r.repo.GetUser(ctx, chatID)
	if errors.Is(err, store.ErrNotFound) {
		r.sendText(chatID, notStartedText)
		return
	}
	if err != nil {
		r.log.Error("getUser failed", zap.Int64("chatID", chatID), zap.Error(err))
		r.sendText(chatID, storeErrorText)
		return
	}

	enabled := "✅ On"
	if !u.Active {
		enabled = "⏸ Off"
	}
	freq := "—"
	if u.HasFrequency {
		freq = "every " + domain.FormatHours(u.FrequencyHours)
	}
	next := "—"
	if u.Active {
		if at, ok := r.sched.NextRun(chatID); ok && !at.IsZero() {
			next = "in " + domain.Until(r.now(), at)
		}
	}

	body := fmt.Sprintf("%s\n\n"+statusFmt, statusTitle, enabled, freq, next)
	r.sendText(chatID, body)
}

// --- Frequency flow ---

func (r *Router) handleCustom(chatID int64) {
	r.setPending(chatID)
	r.sendText(chatID, customPromptText)
}

// handleFrequency persists the choice (which also activates the user) and
// then (re)schedules the chat. hours is already validated.
func (r *Router) handleFrequency(ctx context.Context, chatID int64, hours int) {
	if err := r.repo.SetFrequency(ctx, chatID, hours); err != nil {
		r.log.Error("setFrequency failed", zap.Int64("chatID", chatID), zap.Error(err))
		r.sendText(chatID, storeErrorText)
		return
	}
	if err := r.sched.Schedule(chatID, hours); err != nil {
		r.log.Error("schedule failed", zap.Int64("chatID", chatID), zap.Int("hours", hours), zap.Error(err))
		r.sendText(chatID, storeErrorText)
		return
	}
	r.sendText(chatID, fmt.Sprintf(frequencySetFmt, domain.FormatHours(hours)))
}
