package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/example/vocolatin/internal/ledger"
)

// Default notification window
const (
	DefaultNotificationStartHour = 8
	DefaultNotificationEndHour   = 22
)

// Notifier interface for sending notifications
type Notifier interface {
	SendReminders(chatID int64, count int) error
}

// Store lists and reads persisted ledgers.
type Store interface {
	ledger.Storage
	Keys(ctx context.Context, prefix string) ([]string, error)
}

// Config controls when reminders go out.
type Config struct {
	Interval  time.Duration
	StartHour int
	EndHour   int
	// LedgerKey is the base key of the per-chat ledgers.
	LedgerKey string
	Location  *time.Location
}

// Scheduler manages scheduled tasks for the application
type Scheduler struct {
	scheduler *gocron.Scheduler
	notifier  Notifier
	store     Store
	cfg       Config
	log       *slog.Logger
	now       func() time.Time
}

// New creates a new scheduler instance
func New(notifier Notifier, store Store, cfg Config, log *slog.Logger) *Scheduler {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Hour
	}
	if cfg.LedgerKey == "" {
		cfg.LedgerKey = ledger.DefaultKey
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if log == nil {
		log = slog.Default()
	}
	loc := cfg.Location
	return &Scheduler{
		scheduler: gocron.NewScheduler(loc),
		notifier:  notifier,
		store:     store,
		cfg:       cfg,
		log:       log.With("component", "scheduler"),
		now:       func() time.Time { return time.Now().In(loc) },
	}
}

// Start begins running all scheduled tasks. The first check runs one
// interval after start.
func (s *Scheduler) Start(ctx context.Context) error {
	_, err := s.scheduler.Every(s.cfg.Interval).WaitForSchedule().Do(func() {
		s.CheckAndSendReminders(ctx)
	})
	if err != nil {
		return fmt.Errorf("failed to schedule reminders: %w", err)
	}

	// Start the scheduler in a non-blocking manner
	s.scheduler.StartAsync()
	s.log.Info("reminders scheduled", "interval", s.cfg.Interval,
		"start_hour", s.cfg.StartHour, "end_hour", s.cfg.EndHour)
	return nil
}

// Stop terminates all scheduled tasks
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

// InWindow reports whether reminders may be sent at t.
func (s *Scheduler) InWindow(t time.Time) bool {
	h := t.Hour()
	return h >= s.cfg.StartHour && h <= s.cfg.EndHour
}

// CheckAndSendReminders reminds every chat with missed words, if the current
// hour is inside the notification window. It returns the number of reminders sent.
func (s *Scheduler) CheckAndSendReminders(ctx context.Context) int {
	now := s.now()
	if !s.InWindow(now) {
		s.log.Debug("outside notification hours, skipping reminders",
			"hour", now.Hour(), "start_hour", s.cfg.StartHour, "end_hour", s.cfg.EndHour)
		return 0
	}

	keys, err := s.store.Keys(ctx, s.cfg.LedgerKey+":")
	if err != nil {
		s.log.Error("failed to list learners", "error", err)
		return 0
	}

	sent := 0
	for _, key := range keys {
		chatID, ok := ledger.ParseChatKey(s.cfg.LedgerKey, key)
		if !ok {
			continue
		}
		count := s.missedCount(ctx, key)
		if count == 0 {
			continue
		}
		if err := s.notifier.SendReminders(chatID, count); err != nil {
			s.log.Warn("failed to send reminder", "chat_id", chatID, "error", err)
			continue
		}
		sent++
	}
	return sent
}

// RunManualCheck forces a check for a specific chat, ignoring the window
func (s *Scheduler) RunManualCheck(ctx context.Context, chatID int64) error {
	count := s.missedCount(ctx, ledger.ChatKey(s.cfg.LedgerKey, chatID))
	if count == 0 {
		return nil
	}
	return s.notifier.SendReminders(chatID, count)
}

func (s *Scheduler) missedCount(ctx context.Context, key string) int {
	return ledger.Open(ctx, s.store, key, s.log).Len()
}
