package telegram

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap/zaptest"

	"github.com/ykvlv/water-reminder-bot/internal/store"
)

type fakeBot struct {
	mu   sync.Mutex
	sent []tgbotapi.Chattable
	err  error
}

func (b *fakeBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err != nil {
		return tgbotapi.Message{}, b.err
	}
	b.sent = append(b.sent, c)
	return tgbotapi.Message{MessageID: len(b.sent)}, nil
}

func (b *fakeBot) messages() []tgbotapi.MessageConfig {
	b.mu.Lock()
	defer b.mu.Unlock()
	var res []tgbotapi.MessageConfig
	for _, c := range b.sent {
		if m, ok := c.(tgbotapi.MessageConfig); ok {
			res = append(res, m)
		}
	}
	return res
}

func (b *fakeBot) photos() []tgbotapi.PhotoConfig {
	b.mu.Lock()
	defer b.mu.Unlock()
	var res []tgbotapi.PhotoConfig
	for _, c := range b.sent {
		if p, ok := c.(tgbotapi.PhotoConfig); ok {
			res = append(res, p)
		}
	}
	return res
}

func (b *fakeBot) lastText(t *testing.T) string {
	t.Helper()
	msgs := b.messages()
	if len(msgs) == 0 {
		t.Fatal("no message sent")
	}
	return msgs[len(msgs)-1].Text
}

type scheduleCall struct {
	chatID int64
	hours  int
}

type fakeScheduler struct {
	mu        sync.Mutex
	scheduled []scheduleCall
	cancelled []int64
	next      time.Time
}

func (s *fakeScheduler) Schedule(chatID int64, hours int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scheduled = append(s.scheduled, scheduleCall{chatID, hours})
	return nil
}

func (s *fakeScheduler) Cancel(chatID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelled = append(s.cancelled, chatID)
	return true
}

func (s *fakeScheduler) NextRun(int64) (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.next, !s.next.IsZero()
}

func openRepo(t *testing.T) *store.SQLiteRepo {
	t.Helper()
	repo, err := store.OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "bot.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func textUpdate(chatID int64, text string) tgbotapi.Update {
	return tgbotapi.Update{
		Message: &tgbotapi.Message{
			Chat: &tgbotapi.Chat{ID: chatID},
			Text: text,
		},
	}
}

var errTelegram = errors.New("telegram: Too Many Requests")

func newTestRouter(t *testing.T) (*Router, *fakeBot, *fakeScheduler, *store.SQLiteRepo) {
	t.Helper()
	bot := &fakeBot{}
	sched := &fakeScheduler{}
	repo := openRepo(t)
	return NewRouter(bot, zaptest.NewLogger(t), repo, sched, "*info*"), bot, sched, repo
}
