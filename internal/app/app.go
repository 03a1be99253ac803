package app

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/ykvlv/water-reminder-bot/assets"
	"github.com/ykvlv/water-reminder-bot/internal/config"
	"github.com/ykvlv/water-reminder-bot/internal/content"
	"github.com/ykvlv/water-reminder-bot/internal/scheduler"
	"github.com/ykvlv/water-reminder-bot/internal/store"
	"github.com/ykvlv/water-reminder-bot/internal/telegram"
)

// App is the application context: everything the bot needs, built once at
// startup and passed explicitly to the components.
type App struct {
	cfg     config.Config
	log     *zap.Logger
	bot     *tgbotapi.BotAPI
	httpSrv *http.Server
	repo    store.Repo
	sched   *scheduler.Scheduler
	router  *telegram.Router
}

func New(cfg config.Config, log *zap.Logger) (*App, error) {
	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, err
	}
	bot.Debug = false

	a := &App{cfg: cfg, log: log, bot: bot}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", a.handleHealth)
	a.httpSrv = &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      mux,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}
	return a, nil
}

// handleHealth reports liveness and the number of running reminder tasks.
func (a *App) handleHealth(w http.ResponseWriter, _ *http.Request) {
	tasks := 0
	if a.sched != nil {
		tasks = a.sched.Len()
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]any{"status": "ok", "tasks": tasks})
}

func (a *App) Run(ctx context.Context) error {
	a.log.Info("starting water-reminder-bot",
		zap.String("bot", a.bot.Self.UserName),
		zap.String("http", a.cfg.HTTPAddr),
		zap.Duration("intervalUnit", a.cfg.IntervalUnit),
	)

	// Open SQLite and run migrations.
	repo, err := store.OpenSQLite(ctx, a.cfg.DBPath)
	if err != nil {
		a.log.Error("open sqlite failed", zap.Error(err))
		return err
	}
	a.repo = repo
	a.log.Info("sqlite ready", zap.String("path", a.cfg.DBPath))

	provider := content.New(content.Options{
		ImageURL:    a.cfg.ImageAPIURL,
		FallbackURL: a.cfg.FallbackImageURL,
		Attempts:    a.cfg.ImageAttempts,
		RetryDelay:  a.cfg.ImageRetryDelay,
		Timeout:     a.cfg.ImageTimeout,
	}, nil, a.log)
	notifier := telegram.NewNotifier(a.bot, a.cfg.SendRate, a.log)
	a.sched = scheduler.New(repo, provider, notifier, a.log, scheduler.WithUnit(a.cfg.IntervalUnit))
	a.router = telegram.NewRouter(a.bot, a.log, repo, a.sched, assets.Info())

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	schedDone := make(chan struct{})
	go func() {
		defer close(schedDone)
		if err := a.sched.Run(ctx); err != nil {
			a.log.Error("scheduler restore error", zap.Error(err))
		}
	}()

	go func() {
		if err := a.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Error("http server error", zap.Error(err))
		}
	}()

	u := tgbotapi.NewUpdate(0)
	u.Timeout = a.cfg.PollTimeout
	updCh := a.bot.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			a.log.Info("shutdown signal received")
			a.bot.StopReceivingUpdates()

			shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			err := a.httpSrv.Shutdown(shCtx)
			cancel()
			if err != nil {
				a.log.Warn("http server shutdown error", zap.Error(err))
			}

			// Tasks must be gone before the store closes under them.
			<-schedDone
			if err := a.repo.Close(); err != nil {
				a.log.Warn("sqlite close error", zap.Error(err))
			}
			return nil

		case upd := <-updCh:
			a.router.HandleUpdate(ctx, upd)
		}
	}
}
