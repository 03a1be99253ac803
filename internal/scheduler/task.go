package scheduler

import (
	"context"
	"time"
)

// task is one chat's delivery loop. Fields after cancel are guarded by
// Scheduler.mu.
type task struct {
	chatID int64
	hours  int
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	next    time.Time
	rearmed bool
}

func newTask(parent context.Context, chatID int64, hours int) *task {
	ctx, cancel := context.WithCancel(parent)
	return &task{
		chatID: chatID,
		hours:  hours,
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}
}
