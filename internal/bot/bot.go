package bot

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/example/vocolatin/internal/database"
	"github.com/example/vocolatin/internal/excel"
	"github.com/example/vocolatin/internal/ledger"
	"github.com/example/vocolatin/internal/provider"
	"github.com/example/vocolatin/internal/study"
	"github.com/example/vocolatin/pkg/models"
)

// MenuButton represents a button in the menu
type MenuButton struct {
	Text         string
	CallbackData string
}

// createKeyboard creates a keyboard from menu buttons
func createKeyboard(buttons [][]MenuButton) tgbotapi.InlineKeyboardMarkup {
	var keyboard [][]tgbotapi.InlineKeyboardButton
	for _, row := range buttons {
		var keyboardRow []tgbotapi.InlineKeyboardButton
		for _, button := range row {
			keyboardRow = append(keyboardRow, tgbotapi.NewInlineKeyboardButtonData(button.Text, button.CallbackData))
		}
		keyboard = append(keyboard, keyboardRow)
	}
	return tgbotapi.NewInlineKeyboardMarkup(keyboard...)
}

// Sender is the part of the Telegram API the bot talks to. *tgbotapi.BotAPI implements it.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetFileDirectURL(fileID string) (string, error)
}

// Catalog supplies lesson words, media and the lesson list.
type Catalog interface {
	provider.Vocabulary
	provider.Media
	study.LessonSource
}

// Results stores and summarizes finished sessions.
type Results interface {
	study.Recorder
	GetRecentByChat(ctx context.Context, chatID int64, limit int) ([]models.SessionResult, error)
	Summary(ctx context.Context, chatID int64) (database.ResultSummary, error)
}

// Importer loads uploaded word lists into the catalog.
type Importer interface {
	ImportExcel(ctx context.Context, r io.Reader, cfg excel.ImportConfig) (*excel.ImportResult, error)
	ImportCSV(ctx context.Context, r io.Reader, cfg excel.ImportConfig) (*excel.ImportResult, error)
}

// Config holds the bot settings.
type Config struct {
	// LedgerKey is the base key of the per-chat ledgers.
	LedgerKey string
	AdminIDs  []int64
}

// Bot represents the Telegram bot application
type Bot struct {
	api      Sender
	catalog  Catalog
	storage  ledger.Storage
	results  Results
	importer Importer
	cfg      Config
	log      *slog.Logger

	// download fetches an uploaded file.
	download func(ctx context.Context, url string) (io.ReadCloser, error)

	mu                 sync.Mutex
	studies            map[int64]*study.Study
	awaitingFileUpload map[int64]bool
	adminUserIDs       map[int64]bool
}

// New creates a new bot instance. results and importer may be nil.
func New(api Sender, catalog Catalog, storage ledger.Storage, results Results, importer Importer, cfg Config, log *slog.Logger) *Bot {
	if log == nil {
		log = slog.Default()
	}
	if cfg.LedgerKey == "" {
		cfg.LedgerKey = ledger.DefaultKey
	}
	b := &Bot{
		api:                api,
		catalog:            catalog,
		storage:            storage,
		results:            results,
		importer:           importer,
		cfg:                cfg,
		log:                log.With("component", "bot"),
		download:           httpDownload,
		studies:            make(map[int64]*study.Study),
		awaitingFileUpload: make(map[int64]bool),
		adminUserIDs:       make(map[int64]bool),
	}
	for _, id := range cfg.AdminIDs {
		b.adminUserIDs[id] = true
	}
	return b
}

// Run handles updates one at a time until ctx is done or updates is closed.
func (b *Bot) Run(ctx context.Context, updates <-chan tgbotapi.Update) error {
	b.log.Info("bot started")
	for {
		select {
		case <-ctx.Done():
			b.log.Info("bot stopped")
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				b.log.Info("update channel closed")
				return nil
			}
			b.HandleUpdate(ctx, update)
		}
	}
}

// HandleUpdate dispatches one update. Handler errors are logged and reported
// to the chat.
func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	var (
		chatID int64
		err    error
	)
	switch {
	case update.Message != nil && update.Message.Chat != nil:
		chatID = update.Message.Chat.ID
		err = b.HandleMessage(ctx, update.Message)
	case update.CallbackQuery != nil:
		if update.CallbackQuery.Message != nil && update.CallbackQuery.Message.Chat != nil {
			chatID = update.CallbackQuery.Message.Chat.ID
		}
		err = b.HandleCallback(ctx, update.CallbackQuery)
	default:
		return
	}

	if err != nil {
		b.log.Error("failed to handle update", "update_id", update.UpdateID, "chat_id", chatID, "error", err)
		if chatID != 0 {
			_ = b.sendText(chatID, "❌ Something went wrong. Please try again later.", nil)
		}
	}
}

// SendReminders implements the scheduler.Notifier interface
func (b *Bot) SendReminders(chatID int64, count int) error {
	wordForm := "words"
	if count == 1 {
		wordForm = "word"
	}
	text := fmt.Sprintf("🔁 You have %d missed %s waiting for review.", count, wordForm)
	markup := createKeyboard([][]MenuButton{{{Text: "🔁 Review now", CallbackData: callbackReview}}})

	if err := b.sendText(chatID, text, &markup); err != nil {
		return fmt.Errorf("failed to send reminder to chat %d: %w", chatID, err)
	}
	b.log.Info("reminder sent", "chat_id", chatID, "count", count)
	return nil
}

// isAdmin checks if a user is an admin
func (b *Bot) isAdmin(userID int64) bool {
	return b.adminUserIDs[userID]
}

// studyFor returns the chat's study, opening its ledger and loading the
// default lesson on first use.
func (b *Bot) studyFor(ctx context.Context, chatID int64) *study.Study {
	b.mu.Lock()
	defer b.mu.Unlock()

	if s, ok := b.studies[chatID]; ok {
		return s
	}

	l := ledger.Open(ctx, b.storage, ledger.ChatKey(b.cfg.LedgerKey, chatID), b.log)
	opts := []study.Option{study.WithChatID(chatID)}
	if b.results != nil {
		opts = append(opts, study.WithRecorder(b.results))
	}
	s := study.New(l, b.catalog, b.log.With("chat_id", chatID), opts...)
	s.SelectLesson(ctx, study.DefaultLesson)
	b.studies[chatID] = s
	return s
}

func (b *Bot) setAwaitingUpload(chatID int64, awaiting bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if awaiting {
		b.awaitingFileUpload[chatID] = true
	} else {
		delete(b.awaitingFileUpload, chatID)
	}
}

func (b *Bot) isAwaitingUpload(chatID int64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.awaitingFileUpload[chatID]
}

func (b *Bot) sendText(chatID int64, text string, markup *tgbotapi.InlineKeyboardMarkup) error {
	msg := tgbotapi.NewMessage(chatID, text)
	if markup != nil {
		msg.ReplyMarkup = *markup
	}
	_, err := b.api.Send(msg)
	return err
}

func httpDownload(ctx context.Context, url string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("download failed: %s", resp.Status)
	}
	return resp.Body, nil
}
