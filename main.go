package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/example/vocolatin/internal/bot"
	"github.com/example/vocolatin/internal/config"
	"github.com/example/vocolatin/internal/database"
	"github.com/example/vocolatin/internal/excel"
	"github.com/example/vocolatin/internal/logger"
	"github.com/example/vocolatin/internal/provider"
	"github.com/example/vocolatin/internal/scheduler"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := logger.New(cfg.Log)

	// Cancel the context on SIGINT or SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Connect(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return err
	}
	defer db.Close()
	log.Info("database connected", "driver", cfg.Database.Driver)

	kv := database.NewKVRepository(db)
	words := database.NewWordRepository(db)
	results := database.NewResultRepository(db)
	catalog := provider.NewCatalog(words, cfg.Study.BatchSize)

	if n, err := words.Count(ctx); err == nil && n == 0 {
		log.Warn("word catalog is empty, import a word list with vocoimport or /import")
	}

	api, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
	if err != nil {
		return err
	}
	log.Info("authorized on account", "username", api.Self.UserName)

	b := bot.New(api, catalog, kv, results, excel.NewImporter(words, log), bot.Config{
		LedgerKey: cfg.Study.LedgerKey,
		AdminIDs:  cfg.Telegram.AdminIDs,
	}, log)

	if cfg.Reminder.Enabled {
		sched := scheduler.New(b, kv, scheduler.Config{
			Interval:  cfg.Reminder.Interval,
			StartHour: cfg.Reminder.StartHour,
			EndHour:   cfg.Reminder.EndHour,
			LedgerKey: cfg.Study.LedgerKey,
		}, log)
		if err := sched.Start(ctx); err != nil {
			return err
		}
		defer sched.Stop()
	}

	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := api.GetUpdatesChan(updateConfig)

	done := make(chan error, 1)
	go func() { done <- b.Run(ctx, updates) }()

	<-ctx.Done()
	log.Info("shutting down")
	api.StopReceivingUpdates()

	select {
	case err := <-done:
		if err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
	case <-time.After(5 * time.Second):
		log.Warn("bot did not stop in time")
	}
	log.Info("bot stopped successfully")
	return nil
}
