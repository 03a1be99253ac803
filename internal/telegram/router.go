package telegram

import (
	"context"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/ykvlv/water-reminder-bot/internal/store"
)

// Bot is the subset of *tgbotapi.BotAPI the router and notifier use.
type Bot interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Scheduler is what the router needs from scheduler.Scheduler.
type Scheduler interface {
	Schedule(chatID int64, hours int) error
	Cancel(chatID int64) bool
	NextRun(chatID int64) (time.Time, bool)
}

// Router wires Telegram updates to handlers and holds minimal in-memory state.
type Router struct {
	bot     Bot
	log     *zap.Logger
	repo    store.Repo
	sched   Scheduler
	info    string
	now     func() time.Time
	pending map[int64]bool // chatID -> waiting for a custom frequency
	mu      sync.RWMutex
}

// NewRouter creates a new Telegram router. info is the Markdown body of /info.
func NewRouter(bot Bot, log *zap.Logger, repo store.Repo, sched Scheduler, info string) *Router {
	return &Router{
		bot:     bot,
		log:     log.Named("router"),
		repo:    repo,
		sched:   sched,
		info:    info,
		now:     time.Now,
		pending: make(map[int64]bool),
	}
}

// setPending marks a chat as waiting for a custom frequency (non-persistent).
func (r *Router) setPending(chatID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pending[chatID] = true
}

func (r *Router) isPending(chatID int64) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.pending[chatID]
}

func (r *Router) clearPending(chatID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.pending, chatID)
}

// HandleUpdate routes a single update to the matching handler.
func (r *Router) HandleUpdate(ctx context.Context, upd tgbotapi.Update) {
	if upd.Message == nil || upd.Message.Chat == nil {
		return
	}
	chatID := upd.Message.Chat.ID
	in := classify(upd.Message.Text, r.isPending(chatID))

	if in.kind != intentInvalidFrequency && in.kind != intentUnknown {
		r.clearPending(chatID)
	}

	switch in.kind {
	case intentStart:
		r.handleStart(ctx, chatID)
	case intentStop:
		r.handleStop(ctx, chatID)
	case intentInfo:
		r.handleInfo(chatID)
	case intentStatus:
		r.handleStatus(ctx, chatID)
	case intentCustom:
		r.handleCustom(chatID)
	case intentFrequency:
		r.handleFrequency(ctx, chatID, in.hours)
	case intentInvalidFrequency:
		r.log.Debug("invalid frequency input", zap.Int64("chatID", chatID), zap.Error(in.err))
		r.sendText(chatID, invalidFrequencyText)
	default:
		r.sendWithKeyboard(chatID, unknownText)
	}
}
