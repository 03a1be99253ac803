// Package scheduler runs one reminder loop per active chat.
//
// Each chat gets at most one task. A task ticks immediately, then sleeps for
// the chat's frequency. On every tick it reads the active flag from the store;
// an inactive flag ends the task. Re-scheduling with the same frequency is a
// no-op, a different frequency cancels the old task and starts a new one.
//
// Deactivation through the store alone is observed at the next tick, so a
// just-deactivated chat may still get one delivery if the tick races the
// update. Cancel closes that window by interrupting the sleep.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ykvlv/water-reminder-bot/internal/content"
	"github.com/ykvlv/water-reminder-bot/internal/domain"
)

// ErrStopped is returned by Schedule after Stop.
var ErrStopped = errors.New("scheduler stopped")

// Store is the part of the preference store the scheduler reads.
type Store interface {
	GetActive(ctx context.Context, chatID int64) (bool, error)
	ListActive(ctx context.Context) ([]domain.User, error)
}

// Content produces the payload for one delivery.
type Content interface {
	Reminder(ctx context.Context) content.Notification
}

// Sender delivers a reminder to a chat.
// telegram.Notifier implements this.
type Sender interface {
	SendReminder(ctx context.Context, chatID int64, imageURL, caption string) error
}

// Option customises a Scheduler.
type Option func(*Scheduler)

// WithUnit sets the length of one frequency hour. Production uses time.Hour.
func WithUnit(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.unit = d
		}
	}
}

// WithClock overrides time.Now, used for NextRun.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) { s.now = now }
}

// Scheduler owns the chatID -> task registry.
type Scheduler struct {
	store   Store
	content Content
	sender  Sender
	log     *zap.Logger
	unit    time.Duration
	now     func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	tasks   map[int64]*task
	stopped bool
}

// New creates a Scheduler. Tasks run until Stop is called.
func New(store Store, c Content, sender Sender, log *zap.Logger, opts ...Option) *Scheduler {
	if log == nil {
		log = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		store:   store,
		content: c,
		sender:  sender,
		log:     log.Named("scheduler"),
		unit:    time.Hour,
		now:     time.Now,
		ctx:     ctx,
		cancel:  cancel,
		tasks:   make(map[int64]*task),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Schedule makes sure exactly one task delivers to chatID every hours.
// It never blocks on the task itself.
func (s *Scheduler) Schedule(chatID int64, hours int) error {
	_, err := s.schedule(chatID, hours, true)
	return err
}

// schedule starts a task for chatID. With replace false an existing task is
// left untouched, so a stale snapshot cannot override a newer Schedule call.
func (s *Scheduler) schedule(chatID int64, hours int, replace bool) (bool, error) {
	if err := domain.ValidateFrequency(hours); err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return false, ErrStopped
	}

	if cur, ok := s.tasks[chatID]; ok {
		if !replace {
			s.log.Debug("restore skipped: task already running",
				zap.Int64("chatID", chatID),
				zap.Int("hours", cur.hours),
			)
			return false, nil
		}
		if cur.hours == hours {
			// The caller has just (re)activated the chat; keep the task alive
			// even if its current tick read a stale inactive flag.
			cur.rearmed = true
			s.log.Debug("schedule unchanged", zap.Int64("chatID", chatID), zap.Int("hours", hours))
			return false, nil
		}
		cur.cancel()
		delete(s.tasks, chatID)
		s.log.Info("reminder rescheduled",
			zap.Int64("chatID", chatID),
			zap.Int("from", cur.hours),
			zap.Int("to", hours),
		)
	} else {
		s.log.Info("reminder scheduled", zap.Int64("chatID", chatID), zap.Int("hours", hours))
	}

	t := newTask(s.ctx, chatID, hours)
	s.tasks[chatID] = t
	s.wg.Add(1)
	go s.run(t)
	return true, nil
}

// Cancel stops the task for chatID, if any, without waiting for it.
func (s *Scheduler) Cancel(chatID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[chatID]
	if !ok {
		return false
	}
	t.cancel()
	delete(s.tasks, chatID)
	s.log.Info("reminder cancelled", zap.Int64("chatID", chatID))
	return true
}

// Restore schedules every active user found in the store. It is called on
// startup because tasks do not survive a restart. Chats that already have a
// task (scheduled by the router while the snapshot was read) are skipped.
func (s *Scheduler) Restore(ctx context.Context) (int, error) {
	users, err := s.store.ListActive(ctx)
	if err != nil {
		return 0, fmt.Errorf("list active users: %w", err)
	}
	n := 0
	for _, u := range users {
		if !u.Schedulable() {
			s.log.Warn("active user without valid frequency",
				zap.Int64("chatID", u.ChatID),
				zap.Int("hours", u.FrequencyHours),
			)
			continue
		}
		started, err := s.schedule(u.ChatID, u.FrequencyHours, false)
		if err != nil {
			return n, err
		}
		if started {
			n++
		}
	}
	return n, nil
}

// Run restores tasks from the store and blocks until ctx is done, then stops
// every task.
func (s *Scheduler) Run(ctx context.Context) error {
	n, err := s.Restore(ctx)
	if err != nil {
		s.log.Error("restore failed", zap.Error(err))
	} else {
		s.log.Info("reminders restored", zap.Int("count", n))
	}

	<-ctx.Done()
	s.log.Info("scheduler stopping")
	s.Stop()
	return err
}

// Stop cancels all tasks and waits for them to exit. Later Schedule calls
// return ErrStopped.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	s.stopped = true
	s.tasks = make(map[int64]*task)
	s.mu.Unlock()

	s.cancel()
	s.wg.Wait()
}

// Len returns the number of live tasks.
func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}

// Frequency returns the frequency of the live task for chatID.
func (s *Scheduler) Frequency(chatID int64) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[chatID]
	if !ok {
		return 0, false
	}
	return t.hours, true
}

// NextRun returns when the task for chatID will tick next.
func (s *Scheduler) NextRun(chatID int64) (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[chatID]
	if !ok {
		return time.Time{}, false
	}
	return t.next, true
}

// run is the task body: tick, sleep, repeat.
func (s *Scheduler) run(t *task) {
	defer s.wg.Done()
	defer s.release(t)
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("reminder task panicked",
				zap.Int64("chatID", t.chatID),
				zap.Any("panic", r),
				zap.ByteString("stack", debug.Stack()),
			)
		}
	}()

	log := s.log.With(zap.Int64("chatID", t.chatID), zap.Int("hours", t.hours))
	interval := domain.Interval(t.hours, s.unit)

	for {
		if t.ctx.Err() != nil {
			return
		}
		if !s.deliver(t, log) {
			log.Info("reminder stopped: user inactive")
			return
		}

		s.setNext(t, s.now().Add(interval))
		timer := time.NewTimer(interval)
		select {
		case <-t.ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

// deliver runs one tick. It returns false when the task must end.
func (s *Scheduler) deliver(t *task, log *zap.Logger) bool {
	s.mu.Lock()
	t.rearmed = false
	s.mu.Unlock()

	active, err := s.store.GetActive(t.ctx, t.chatID)
	if err != nil {
		if t.ctx.Err() != nil {
			return false
		}
		// Store hiccup: skip this tick rather than dropping the user.
		log.Error("read active flag failed", zap.Error(err))
		return true
	}
	if !active && s.retire(t) {
		return false
	}

	n := s.content.Reminder(t.ctx)
	if t.ctx.Err() != nil {
		// Superseded or cancelled while fetching.
		return false
	}

	if err := s.sender.SendReminder(t.ctx, t.chatID, n.ImageURL, n.Caption); err != nil {
		if t.ctx.Err() != nil {
			return false
		}
		log.Error("send reminder failed", zap.Error(err))
		return true
	}
	log.Debug("reminder sent", zap.String("image", n.ImageURL))
	return true
}

// retire removes t from the registry unless Schedule re-armed it since the
// tick started. It reports whether the task should end.
func (s *Scheduler) retire(t *task) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.rearmed {
		t.rearmed = false
		return false
	}
	if s.tasks[t.chatID] == t {
		delete(s.tasks, t.chatID)
	}
	return true
}

// release drops t from the registry if it is still the registered task.
func (s *Scheduler) release(t *task) {
	s.mu.Lock()
	if s.tasks[t.chatID] == t {
		delete(s.tasks, t.chatID)
	}
	s.mu.Unlock()
	t.cancel()
	close(t.done)
}

func (s *Scheduler) setNext(t *task, at time.Time) {
	s.mu.Lock()
	t.next = at
	s.mu.Unlock()
}
