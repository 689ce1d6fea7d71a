// Package study drives one learner through lessons in the explore,
// flashcard and quiz modes and keeps the missed-word ledger in step.
package study

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/example/vocolatin/internal/ledger"
	"github.com/example/vocolatin/internal/provider"
	"github.com/example/vocolatin/internal/quiz"
	"github.com/example/vocolatin/internal/review"
	"github.com/example/vocolatin/internal/session"
	"github.com/example/vocolatin/pkg/models"
)

// Mode is the way words are presented.
type Mode string

const (
	Explore    Mode = "EXPLORE"
	Flashcards Mode = "FLASHCARDS"
	Quiz       Mode = "QUIZ"
)

// Modes lists the modes in menu order.
var Modes = []Mode{Explore, Flashcards, Quiz}

// ParseMode returns the mode named s.
func ParseMode(s string) (Mode, bool) {
	for _, m := range Modes {
		if string(m) == s {
			return m, true
		}
	}
	return "", false
}

// Direction of a flashcard swipe.
type Direction int

const (
	// Left marks the word as known.
	Left Direction = iota
	// Right asks to repeat the word.
	Right
)

// DefaultLesson is selected for a new learner.
const DefaultLesson = "Lektion 1"

var (
	// ErrNothingToReview is returned when the review entry point is used with an empty ledger.
	ErrNothingToReview = session.ErrNothingToReview
	// ErrWrongMode is returned for input that does not belong to the current mode.
	ErrWrongMode = errors.New("action not available in this mode")
	// ErrNoSession is returned for input after the session finished.
	ErrNoSession = errors.New("no active session")
)

// Recorder stores finished sessions.
type Recorder interface {
	Create(ctx context.Context, result *models.SessionResult) error
}

// Result describes a finished session.
type Result struct {
	Mode      Mode
	Lesson    string
	IsReview  bool
	Score     int
	Total     int
	MaxStreak int
	// Missed words stay in the ledger after a review session.
	Missed int
}

// AnswerResult is the feedback for one quiz answer.
type AnswerResult struct {
	quiz.Outcome
	Finished bool
}

// Study is the state of one learner. It is not safe for concurrent use.
type Study struct {
	chatID   int64
	ledger   *ledger.Ledger
	vocab    provider.Vocabulary
	recorder Recorder
	log      *slog.Logger

	builder *quiz.Builder
	ctrl    *session.Controller
	round   *quiz.Round
	lesson  string
	mode    Mode
	result  *Result
}

// Option configures a Study.
type Option func(*Study)

// WithRecorder stores every finished session through r.
func WithRecorder(r Recorder) Option {
	return func(s *Study) { s.recorder = r }
}

// WithQuizBuilder replaces the random quiz builder.
func WithQuizBuilder(b *quiz.Builder) Option {
	return func(s *Study) { s.builder = b }
}

// WithChatID tags recorded results with the learner's chat.
func WithChatID(id int64) Option {
	return func(s *Study) { s.chatID = id }
}

// New creates a study in explore mode with no session loaded. Call
// SelectLesson or StartReview to begin.
func New(l *ledger.Ledger, vocab provider.Vocabulary, log *slog.Logger, opts ...Option) *Study {
	if log == nil {
		log = slog.Default()
	}
	s := &Study{
		ledger: l,
		vocab:  vocab,
		log:    log,
		ctrl:   session.NewController(l),
		lesson: DefaultLesson,
		mode:   Explore,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.builder == nil {
		s.builder = quiz.NewBuilder()
	}
	return s
}

// SelectLesson leaves any review session, fetches the lesson and starts it in
// the current mode. A failed fetch starts an empty lesson, which is finished
// at once with a score of zero.
func (s *Study) SelectLesson(ctx context.Context, lesson string) {
	s.lesson = lesson
	s.load(ctx)
}

// Restart goes back to explore mode and reloads the current lesson.
func (s *Study) Restart(ctx context.Context) {
	s.mode = Explore
	s.load(ctx)
}

func (s *Study) load(ctx context.Context) {
	words := provider.Fetch(ctx, s.vocab, s.lesson, s.log)
	s.log.Debug("lesson loaded", "lesson", s.lesson, "words", len(words))
	// A non-review start never fails.
	_ = s.begin(ctx, words, false)
}

// StartReview starts a session over a snapshot of the ledger. Explore mode
// switches to flashcards.
func (s *Study) StartReview(ctx context.Context) error {
	items := s.ledger.Snapshot()
	if len(items) == 0 {
		return ErrNothingToReview
	}
	if s.mode == Explore {
		s.mode = Flashcards
	}
	return s.begin(ctx, items, true)
}

// SetMode switches the presentation mode and restarts the current words from
// the beginning.
func (s *Study) SetMode(ctx context.Context, mode Mode) error {
	s.mode = mode
	return s.begin(ctx, s.ctrl.Items(), s.ctrl.IsReview())
}

func (s *Study) begin(ctx context.Context, items []models.WordRecord, isReview bool) error {
	s.result = nil
	s.round = nil
	if err := s.ctrl.Start(items, isReview); err != nil {
		return err
	}
	if s.mode == Quiz {
		s.round = quiz.NewRound(s.builder, items)
	}
	s.checkFinished(ctx)
	return nil
}

// Next shows the following word in explore mode. Moving past the last word
// finishes the session.
func (s *Study) Next(ctx context.Context) error {
	if s.mode != Explore {
		return ErrWrongMode
	}
	if s.ctrl.State() != session.Active {
		return ErrNoSession
	}
	s.ctrl.Advance()
	s.checkFinished(ctx)
	return nil
}

// Prev shows the previous word in explore mode.
func (s *Study) Prev() error {
	if s.mode != Explore {
		return ErrWrongMode
	}
	if s.ctrl.State() != session.Active {
		return ErrNoSession
	}
	s.ctrl.Retreat()
	return nil
}

// Swipe judges the current flashcard: Left means known, Right means repeat.
// It returns the judged word.
func (s *Study) Swipe(ctx context.Context, dir Direction) (models.WordRecord, error) {
	if s.mode != Flashcards {
		return models.WordRecord{}, ErrWrongMode
	}
	verdict := review.Mastered
	if dir == Right {
		verdict = review.Missed
	}
	word, err := s.ctrl.Judge(ctx, verdict)
	if err != nil {
		return models.WordRecord{}, ErrNoSession
	}
	s.checkFinished(ctx)
	return word, nil
}

// Question returns the open quiz question.
func (s *Study) Question() (quiz.Question, error) {
	if s.mode != Quiz || s.round == nil {
		return quiz.Question{}, ErrWrongMode
	}
	word, ok := s.ctrl.Current()
	if !ok {
		return quiz.Question{}, ErrNoSession
	}
	return s.round.Ask(word), nil
}

// Answer grades the chosen option of the open quiz question. The ledger is
// updated for all questions together once the last one is answered.
func (s *Study) Answer(ctx context.Context, choice int) (AnswerResult, error) {
	if s.mode != Quiz || s.round == nil {
		return AnswerResult{}, ErrWrongMode
	}
	word, ok := s.ctrl.Current()
	if !ok {
		return AnswerResult{}, ErrNoSession
	}

	out, err := s.round.Answer(word, choice)
	if err != nil {
		return AnswerResult{}, err
	}
	verdict := review.Missed
	if out.Correct {
		verdict = review.Mastered
	}
	if _, err := s.ctrl.Record(verdict); err != nil {
		return AnswerResult{}, fmt.Errorf("record answer: %w", err)
	}

	if s.ctrl.State() == session.Terminal {
		judged, verdicts := s.ctrl.Judged()
		review.ApplyVerdicts(ctx, s.ledger, judged, verdicts, s.ctrl.IsReview())
	}
	s.checkFinished(ctx)
	return AnswerResult{Outcome: out, Finished: s.result != nil}, nil
}

// checkFinished records the result once the session reaches its end.
func (s *Study) checkFinished(ctx context.Context) {
	if s.result != nil || s.ctrl.State() != session.Terminal {
		return
	}
	r := &Result{
		Mode:     s.mode,
		Lesson:   s.lesson,
		IsReview: s.ctrl.IsReview(),
		Score:    s.ctrl.FinalScore(),
		Total:    s.ctrl.Len(),
		Missed:   len(s.ctrl.Missed()),
	}
	if s.round != nil {
		r.MaxStreak = s.round.MaxStreak()
	}
	if r.IsReview {
		r.Lesson = "review"
	}
	s.result = r
	s.log.Info("session finished",
		"mode", r.Mode, "lesson", r.Lesson, "review", r.IsReview,
		"score", r.Score, "total", r.Total)

	if s.recorder == nil || r.Total == 0 {
		return
	}
	err := s.recorder.Create(ctx, &models.SessionResult{
		ChatID:     s.chatID,
		Lesson:     r.Lesson,
		Mode:       string(r.Mode),
		IsReview:   r.IsReview,
		TotalWords: r.Total,
		Score:      r.Score,
		MaxStreak:  r.MaxStreak,
	})
	if err != nil {
		s.log.Warn("failed to record session result", "error", err)
	}
}

// Current returns the word on screen. ok is false when the session is over.
func (s *Study) Current() (word models.WordRecord, ok bool) {
	return s.ctrl.Current()
}

// Position returns the 1-based index of the current word and the session length.
func (s *Study) Position() (int, int) {
	return s.ctrl.Cursor() + 1, s.ctrl.Len()
}

// Result returns the outcome of the finished session, or nil while it runs.
func (s *Study) Result() *Result {
	return s.result
}

// Mode returns the presentation mode.
func (s *Study) Mode() Mode { return s.mode }

// Lesson returns the selected lesson.
func (s *Study) Lesson() string { return s.lesson }

// IsReview reports whether the session re-tests missed words.
func (s *Study) IsReview() bool { return s.ctrl.IsReview() }

// CanReview reports whether the review entry point is available.
func (s *Study) CanReview() bool { return s.ledger.Len() > 0 }

// MissedCount returns the number of words in the ledger.
func (s *Study) MissedCount() int { return s.ledger.Len() }

// Streak returns the running quiz streak.
func (s *Study) Streak() int {
	if s.round == nil {
		return 0
	}
	return s.round.Streak()
}

// LessonCount is the size of the built-in lesson list.
const LessonCount = 30

// LessonSource lists the lessons available in the catalog.
type LessonSource interface {
	Lessons(ctx context.Context) ([]string, error)
}

// Lessons returns the catalog lessons, or the built-in "Lektion 1".."Lektion 30"
// when the catalog is empty or fails.
func Lessons(ctx context.Context, src LessonSource, log *slog.Logger) []string {
	if src != nil {
		lessons, err := src.Lessons(ctx)
		if err != nil && log != nil {
			log.Warn("failed to list lessons, using defaults", "error", err)
		}
		if err == nil && len(lessons) > 0 {
			return lessons
		}
	}
	out := make([]string, LessonCount)
	for i := range out {
		out[i] = fmt.Sprintf("Lektion %d", i+1)
	}
	return out
}
