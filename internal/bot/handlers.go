package bot

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/example/vocolatin/internal/excel"
	"github.com/example/vocolatin/internal/provider"
	"github.com/example/vocolatin/internal/quiz"
	"github.com/example/vocolatin/internal/study"
	"github.com/example/vocolatin/pkg/models"
)

// Constants for callback data
const (
	callbackLessonPrefix = "lesson:"
	callbackLessonIndex  = "lessonidx:"
	callbackModePrefix   = "mode:"
	callbackQuizPrefix   = "quiz:"
	callbackNext         = "nav:next"
	callbackPrev         = "nav:prev"
	callbackSwipeLeft    = "swipe:left"
	callbackSwipeRight   = "swipe:right"
	callbackReview       = "review"
	callbackRestart      = "restart"
	callbackSpeak        = "speak"
	callbackLessons      = "lessons"
	callbackMenu         = "menu"
	callbackStats        = "stats"
)

const recentResults = 5

// Telegram rejects a keyboard whose callback data exceeds 64 bytes.
const maxCallbackData = 64

var modeLabels = map[study.Mode]string{
	study.Explore:    "📖 Explore",
	study.Flashcards: "🃏 Flashcards",
	study.Quiz:       "❓ Quiz",
}

// HandleMessage handles a text message, command or document
func (b *Bot) HandleMessage(ctx context.Context, message *tgbotapi.Message) error {
	if message == nil || message.Chat == nil {
		return fmt.Errorf("invalid message: required fields are missing")
	}
	if message.IsCommand() {
		return b.HandleCommand(ctx, message)
	}
	if message.Document != nil && b.isAwaitingUpload(message.Chat.ID) {
		return b.handleDocument(ctx, message)
	}
	markup := createKeyboard(b.MainMenuButtons())
	return b.sendText(message.Chat.ID, "I don't understand. Use /menu to show the main menu.", &markup)
}

// HandleCommand handles bot commands
func (b *Bot) HandleCommand(ctx context.Context, message *tgbotapi.Message) error {
	chatID := message.Chat.ID
	switch message.Command() {
	case "start":
		return b.handleStart(ctx, chatID)
	case "menu":
		return b.showMenu(ctx, chatID)
	case "lessons":
		return b.showLessons(ctx, chatID)
	case "lesson":
		name := strings.TrimSpace(message.CommandArguments())
		if name == "" {
			return b.showLessons(ctx, chatID)
		}
		return b.selectLesson(ctx, chatID, name)
	case "explore":
		return b.setMode(ctx, chatID, study.Explore)
	case "flashcards":
		return b.setMode(ctx, chatID, study.Flashcards)
	case "quiz":
		return b.setMode(ctx, chatID, study.Quiz)
	case "review":
		return b.startReview(ctx, chatID)
	case "stats":
		return b.handleStats(ctx, chatID)
	case "restart":
		return b.restart(ctx, chatID)
	case "import":
		if message.From == nil || !b.isAdmin(message.From.ID) {
			markup := createKeyboard(b.MainMenuButtons())
			return b.sendText(chatID, "This command is only available for administrators.", &markup)
		}
		return b.handleImportCommand(chatID)
	default:
		markup := createKeyboard(b.MainMenuButtons())
		return b.sendText(chatID, "Unknown command. Use /menu to show the main menu.", &markup)
	}
}

// HandleCallback handles inline button presses
func (b *Bot) HandleCallback(ctx context.Context, callback *tgbotapi.CallbackQuery) error {
	if callback == nil || callback.Message == nil || callback.Message.Chat == nil {
		return fmt.Errorf("invalid callback data: required fields are missing")
	}

	// Always send an answer to the callback query to remove the loading state
	if _, err := b.api.Request(tgbotapi.NewCallback(callback.ID, "")); err != nil {
		b.log.Warn("failed to answer callback", "error", err)
	}

	chatID := callback.Message.Chat.ID
	data := callback.Data

	switch {
	case data == callbackNext:
		s := b.studyFor(ctx, chatID)
		return b.afterAction(ctx, chatID, s, s.Next(ctx))
	case data == callbackPrev:
		s := b.studyFor(ctx, chatID)
		return b.afterAction(ctx, chatID, s, s.Prev())
	case data == callbackSwipeLeft:
		return b.swipe(ctx, chatID, study.Left)
	case data == callbackSwipeRight:
		return b.swipe(ctx, chatID, study.Right)
	case data == callbackReview:
		return b.startReview(ctx, chatID)
	case data == callbackRestart:
		return b.restart(ctx, chatID)
	case data == callbackSpeak:
		return b.speak(ctx, chatID)
	case data == callbackLessons:
		return b.showLessons(ctx, chatID)
	case data == callbackMenu:
		return b.showMenu(ctx, chatID)
	case data == callbackStats:
		return b.handleStats(ctx, chatID)
	case strings.HasPrefix(data, callbackLessonPrefix):
		return b.selectLesson(ctx, chatID, strings.TrimPrefix(data, callbackLessonPrefix))
	case strings.HasPrefix(data, callbackLessonIndex):
		return b.selectLessonAt(ctx, chatID, strings.TrimPrefix(data, callbackLessonIndex))
	case strings.HasPrefix(data, callbackModePrefix):
		mode, ok := study.ParseMode(strings.TrimPrefix(data, callbackModePrefix))
		if !ok {
			return b.sendText(chatID, "⚠️ Unknown action", nil)
		}
		return b.setMode(ctx, chatID, mode)
	case strings.HasPrefix(data, callbackQuizPrefix):
		choice, err := strconv.Atoi(strings.TrimPrefix(data, callbackQuizPrefix))
		if err != nil {
			return b.sendText(chatID, "⚠️ Unknown action", nil)
		}
		return b.answer(ctx, chatID, choice)
	default:
		return b.sendText(chatID, "⚠️ Unknown action", nil)
	}
}

func (b *Bot) handleStart(ctx context.Context, chatID int64) error {
	b.studyFor(ctx, chatID)
	text := `Salve! Welcome to VocoLatin 🏛

Learn the words of each lesson in three ways:
📖 Explore - browse the words with examples
🃏 Flashcards - mark each word as known or to repeat
❓ Quiz - pick the right translation

Words you miss go to your review list until you get them right in a review.

Commands:
/menu - main menu
/lessons - choose a lesson
/review - review missed words
/stats - your progress`
	markup := createKeyboard(b.MainMenuButtons())
	return b.sendText(chatID, text, &markup)
}

// MainMenuButtons returns the buttons for the main menu
func (b *Bot) MainMenuButtons() [][]MenuButton {
	return [][]MenuButton{
		{
			{Text: "📚 Lessons", CallbackData: callbackLessons},
			{Text: "📊 Statistics", CallbackData: callbackStats},
		},
		{
			{Text: "🔄 Restart", CallbackData: callbackRestart},
		},
	}
}

func (b *Bot) showMenu(ctx context.Context, chatID int64) error {
	s := b.studyFor(ctx, chatID)
	text := fmt.Sprintf("🤖 Main menu\n\nLesson: %s\nMode: %s\nMissed words: %d",
		s.Lesson(), modeLabels[s.Mode()], s.MissedCount())
	rows := append(b.MainMenuButtons(), modeRow())
	if s.CanReview() {
		rows = append(rows, []MenuButton{{Text: "🔁 Review missed words", CallbackData: callbackReview}})
	}
	markup := createKeyboard(rows)
	return b.sendText(chatID, text, &markup)
}

func (b *Bot) showLessons(ctx context.Context, chatID int64) error {
	lessons := study.Lessons(ctx, b.catalog, b.log)

	var rows [][]MenuButton
	var row []MenuButton
	for i, name := range lessons {
		row = append(row, MenuButton{Text: name, CallbackData: lessonCallback(i, name)})
		if len(row) == 3 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	rows = append(rows, []MenuButton{{Text: "« Back to Menu", CallbackData: callbackMenu}})

	markup := createKeyboard(rows)
	return b.sendText(chatID, "📚 Choose a lesson:", &markup)
}

func (b *Bot) selectLesson(ctx context.Context, chatID int64, lesson string) error {
	s := b.studyFor(ctx, chatID)
	s.SelectLesson(ctx, lesson)
	return b.show(ctx, chatID, s)
}

// selectLessonAt selects a lesson by its index in the lesson list.
func (b *Bot) selectLessonAt(ctx context.Context, chatID int64, index string) error {
	lessons := study.Lessons(ctx, b.catalog, b.log)
	i, err := strconv.Atoi(index)
	if err != nil || i < 0 || i >= len(lessons) {
		if err := b.sendText(chatID, "⚠️ This button is no longer active.", nil); err != nil {
			return err
		}
		return b.showLessons(ctx, chatID)
	}
	return b.selectLesson(ctx, chatID, lessons[i])
}

// lessonCallback names the lesson in the callback data when it fits and
// falls back to its list index otherwise.
func lessonCallback(i int, name string) string {
	if data := callbackLessonPrefix + name; len(data) <= maxCallbackData {
		return data
	}
	return callbackLessonIndex + strconv.Itoa(i)
}

func (b *Bot) setMode(ctx context.Context, chatID int64, mode study.Mode) error {
	s := b.studyFor(ctx, chatID)
	if err := s.SetMode(ctx, mode); err != nil {
		return b.afterAction(ctx, chatID, s, err)
	}
	return b.show(ctx, chatID, s)
}

func (b *Bot) startReview(ctx context.Context, chatID int64) error {
	s := b.studyFor(ctx, chatID)
	return b.afterAction(ctx, chatID, s, s.StartReview(ctx))
}

func (b *Bot) restart(ctx context.Context, chatID int64) error {
	s := b.studyFor(ctx, chatID)
	s.Restart(ctx)
	return b.show(ctx, chatID, s)
}

func (b *Bot) swipe(ctx context.Context, chatID int64, dir study.Direction) error {
	s := b.studyFor(ctx, chatID)
	word, err := s.Swipe(ctx, dir)
	if err != nil {
		return b.afterAction(ctx, chatID, s, err)
	}

	feedback := fmt.Sprintf("✅ %s — %s", word.Word, word.Translation)
	if dir == study.Right {
		feedback = fmt.Sprintf("🔁 %s — %s\nAdded to your review list.", word.Word, word.Translation)
	}
	if err := b.sendText(chatID, feedback, nil); err != nil {
		return err
	}
	return b.show(ctx, chatID, s)
}

func (b *Bot) answer(ctx context.Context, chatID int64, choice int) error {
	s := b.studyFor(ctx, chatID)
	res, err := s.Answer(ctx, choice)
	if err != nil {
		return b.afterAction(ctx, chatID, s, err)
	}

	feedback := fmt.Sprintf("✅ Correct! Streak: %d", res.Streak)
	if !res.Correct {
		feedback = fmt.Sprintf("❌ Wrong. Correct answer: %s", res.Expected)
	}
	if err := b.sendText(chatID, feedback, nil); err != nil {
		return err
	}
	return b.show(ctx, chatID, s)
}

func (b *Bot) speak(ctx context.Context, chatID int64) error {
	s := b.studyFor(ctx, chatID)
	word, ok := s.Current()
	if !ok {
		return b.sendText(chatID, "Nothing to pronounce right now.", nil)
	}
	url := provider.Audio(ctx, b.catalog, word.Word, b.log)
	if url == "" {
		return b.sendText(chatID, fmt.Sprintf("🔇 No pronunciation available for %s.", word.Word), nil)
	}
	audio := tgbotapi.NewAudio(chatID, tgbotapi.FileURL(url))
	audio.Caption = word.Word
	_, err := b.api.Send(audio)
	return err
}

// afterAction reports study errors a learner can cause with stale buttons
// and shows the current state.
func (b *Bot) afterAction(ctx context.Context, chatID int64, s *study.Study, err error) error {
	switch {
	case err == nil:
	case errors.Is(err, study.ErrNothingToReview):
		return b.sendText(chatID, "🎉 No missed words to review. Keep it up!", nil)
	case errors.Is(err, study.ErrWrongMode), errors.Is(err, study.ErrNoSession), errors.Is(err, quiz.ErrBadChoice):
		if err := b.sendText(chatID, "⚠️ This button is no longer active.", nil); err != nil {
			return err
		}
	default:
		return err
	}
	return b.show(ctx, chatID, s)
}

// show renders the current state of a study: a word, a question or the result.
func (b *Bot) show(ctx context.Context, chatID int64, s *study.Study) error {
	if res := s.Result(); res != nil {
		return b.showResult(chatID, s, res)
	}

	switch s.Mode() {
	case study.Quiz:
		return b.showQuestion(chatID, s)
	case study.Flashcards:
		return b.showCard(ctx, chatID, s, false)
	default:
		return b.showCard(ctx, chatID, s, true)
	}
}

func (b *Bot) showCard(ctx context.Context, chatID int64, s *study.Study, reveal bool) error {
	word, ok := s.Current()
	if !ok {
		return b.sendText(chatID, "No words loaded. Choose a lesson with /lessons.", nil)
	}

	text := heading(s) + "\n\n" + formatWord(word, reveal)

	var rows [][]MenuButton
	if reveal {
		rows = append(rows, []MenuButton{
			{Text: "⬅️ Prev", CallbackData: callbackPrev},
			{Text: "Next ➡️", CallbackData: callbackNext},
		})
	} else {
		rows = append(rows, []MenuButton{
			{Text: "✅ Know it", CallbackData: callbackSwipeLeft},
			{Text: "🔁 Repeat", CallbackData: callbackSwipeRight},
		})
	}
	rows = append(rows, []MenuButton{{Text: "🔊 Pronounce", CallbackData: callbackSpeak}})
	rows = append(rows, modeRow(), b.footerRow(s))
	markup := createKeyboard(rows)

	if image := provider.Image(ctx, b.catalog, word, b.log); image != "" {
		photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileURL(image))
		photo.Caption = text
		photo.ReplyMarkup = markup
		_, err := b.api.Send(photo)
		return err
	}
	return b.sendText(chatID, text, &markup)
}

func (b *Bot) showQuestion(chatID int64, s *study.Study) error {
	q, err := s.Question()
	if err != nil {
		return err
	}

	var sb strings.Builder
	sb.WriteString(heading(s))
	if streak := s.Streak(); streak > 1 {
		sb.WriteString(fmt.Sprintf(" · 🔥 %d", streak))
	}
	sb.WriteString("\n\n" + q.Word.Word)
	if q.Word.PartOfSpeech != "" {
		sb.WriteString(" (" + q.Word.PartOfSpeech + ")")
	}
	sb.WriteString("\n\nChoose the translation:")

	var rows [][]MenuButton
	for i, option := range q.Options {
		rows = append(rows, []MenuButton{{Text: option, CallbackData: callbackQuizPrefix + strconv.Itoa(i)}})
	}
	rows = append(rows, modeRow(), b.footerRow(s))
	markup := createKeyboard(rows)
	return b.sendText(chatID, sb.String(), &markup)
}

func (b *Bot) showResult(chatID int64, s *study.Study, res *study.Result) error {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("🏁 Finished %s (%s)\n\n", res.Lesson, modeLabels[res.Mode]))
	if res.Total == 0 {
		sb.WriteString("This lesson has no words yet.")
	} else {
		sb.WriteString(fmt.Sprintf("Score: %d / %d", res.Score, res.Total))
	}
	if res.Mode == study.Quiz && res.MaxStreak > 0 {
		sb.WriteString(fmt.Sprintf("\nBest streak: %d", res.MaxStreak))
	}
	if res.IsReview && res.Missed > 0 {
		sb.WriteString(fmt.Sprintf("\n\n%d missed words stay in your review list.", res.Missed))
	}

	rows := [][]MenuButton{
		{{Text: "🔄 Restart", CallbackData: callbackRestart}},
		modeRow(),
		b.footerRow(s),
	}
	markup := createKeyboard(rows)
	return b.sendText(chatID, sb.String(), &markup)
}

func (b *Bot) handleStats(ctx context.Context, chatID int64) error {
	s := b.studyFor(ctx, chatID)

	var sb strings.Builder
	sb.WriteString("📊 Statistics\n\n")
	if b.results != nil {
		summary, err := b.results.Summary(ctx, chatID)
		if err != nil {
			return fmt.Errorf("failed to get summary: %w", err)
		}
		sb.WriteString(fmt.Sprintf("Sessions: %d\nWords practised: %d\nKnown: %d\n",
			summary.Sessions, summary.TotalWords, summary.Score))
	}
	sb.WriteString(fmt.Sprintf("Missed words to review: %d", s.MissedCount()))

	if b.results != nil {
		recent, err := b.results.GetRecentByChat(ctx, chatID, recentResults)
		if err != nil {
			return fmt.Errorf("failed to get recent results: %w", err)
		}
		if len(recent) > 0 {
			sb.WriteString("\n\nRecent sessions:")
			for _, r := range recent {
				sb.WriteString(fmt.Sprintf("\n- %s · %s · %d/%d", r.Lesson, r.Mode, r.Score, r.TotalWords))
			}
		}
	}

	markup := createKeyboard(b.MainMenuButtons())
	return b.sendText(chatID, sb.String(), &markup)
}

func (b *Bot) handleImportCommand(chatID int64) error {
	if b.importer == nil {
		return b.sendText(chatID, "Import is not available.", nil)
	}
	b.setAwaitingUpload(chatID, true)
	text := "📤 Send an .xlsx or .csv file.\n\n" +
		"Columns: word, translation, part of speech, example, example translation, " +
		"notes, lesson, image URL, audio URL. The first row is a header. " +
		"A row with only a lesson name such as \"Lektion 3\" starts that lesson."
	return b.sendText(chatID, text, nil)
}

// handleDocument imports an uploaded word list
func (b *Bot) handleDocument(ctx context.Context, message *tgbotapi.Message) error {
	chatID := message.Chat.ID
	b.setAwaitingUpload(chatID, false)

	if message.From == nil || !b.isAdmin(message.From.ID) || b.importer == nil {
		return b.sendText(chatID, "This command is only available for administrators.", nil)
	}

	doc := message.Document
	ext := strings.ToLower(filepath.Ext(doc.FileName))
	if ext != ".csv" && ext != ".xlsx" {
		return b.sendText(chatID, "❌ Unsupported file type. Send an .xlsx or .csv file.", nil)
	}

	url, err := b.api.GetFileDirectURL(doc.FileID)
	if err != nil {
		return fmt.Errorf("failed to get file url: %w", err)
	}
	body, err := b.download(ctx, url)
	if err != nil {
		return fmt.Errorf("failed to download %s: %w", doc.FileName, err)
	}
	defer body.Close()

	cfg := excel.DefaultImportConfig()
	var result *excel.ImportResult
	if ext == ".csv" {
		result, err = b.importer.ImportCSV(ctx, body, cfg)
	} else {
		result, err = b.importer.ImportExcel(ctx, body, cfg)
	}
	if err != nil {
		b.log.Warn("import failed", "file", doc.FileName, "error", err)
		return b.sendText(chatID, fmt.Sprintf("❌ Import failed: %v", err), nil)
	}

	markup := createKeyboard(b.MainMenuButtons())
	return b.sendText(chatID, formatImportResult(result), &markup)
}

func formatImportResult(r *excel.ImportResult) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("✅ Words processed: %d\n- Added: %d\n- Updated: %d\n- Skipped: %d",
		r.TotalProcessed, r.Created, r.Updated, r.Skipped))
	if len(r.Lessons) > 0 {
		sb.WriteString("\nLessons: " + strings.Join(r.Lessons, ", "))
	}
	if len(r.Errors) > 0 {
		sb.WriteString(fmt.Sprintf("\n\n❌ Errors (%d):", len(r.Errors)))
		for i, e := range r.Errors {
			if i == 10 {
				sb.WriteString(fmt.Sprintf("\n... and %d more", len(r.Errors)-10))
				break
			}
			sb.WriteString("\n- " + e)
		}
	}
	return sb.String()
}

func heading(s *study.Study) string {
	pos, total := s.Position()
	title := "📖 " + s.Lesson()
	if s.IsReview() {
		title = "🔁 Review"
	}
	return fmt.Sprintf("%s · %d/%d", title, pos, total)
}

// formatWord renders a word card. The back of a flashcard stays hidden
// until the learner judges it.
func formatWord(w models.WordRecord, reveal bool) string {
	var sb strings.Builder
	sb.WriteString(w.Word)
	if w.PartOfSpeech != "" {
		sb.WriteString(" (" + w.PartOfSpeech + ")")
	}
	if !reveal {
		return sb.String()
	}
	sb.WriteString("\n" + w.Translation)
	if w.ExampleSentence != "" {
		sb.WriteString("\n\n" + w.ExampleSentence)
		if w.ExampleTranslation != "" {
			sb.WriteString("\n" + w.ExampleTranslation)
		}
	}
	if w.Notes != "" {
		sb.WriteString("\n\n📝 " + w.Notes)
	}
	return sb.String()
}

func modeRow() []MenuButton {
	row := make([]MenuButton, 0, len(study.Modes))
	for _, m := range study.Modes {
		row = append(row, MenuButton{Text: modeLabels[m], CallbackData: callbackModePrefix + string(m)})
	}
	return row
}

// footerRow offers the lesson list and, with missed words pending, the review.
func (b *Bot) footerRow(s *study.Study) []MenuButton {
	row := []MenuButton{{Text: "📚 Lessons", CallbackData: callbackLessons}}
	if s.CanReview() {
		row = append(row, MenuButton{
			Text:         fmt.Sprintf("🔁 Review (%d)", s.MissedCount()),
			CallbackData: callbackReview,
		})
	}
	return row
}
