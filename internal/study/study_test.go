package study

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/vocolatin/internal/ledger"
	"github.com/example/vocolatin/internal/quiz"
	"github.com/example/vocolatin/pkg/models"
)

var quietLog = slog.New(slog.NewTextHandler(io.Discard, nil))

type fakeVocab struct {
	lessons map[string][]models.WordRecord
	err     error
}

func (f *fakeVocab) FetchVocabulary(_ context.Context, category string) ([]models.WordRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.lessons[category], nil
}

func (f *fakeVocab) Lessons(context.Context) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []string
	for name := range f.lessons {
		out = append(out, name)
	}
	return out, nil
}

type fakeRecorder struct {
	results []models.SessionResult
	err     error
}

func (f *fakeRecorder) Create(_ context.Context, r *models.SessionResult) error {
	f.results = append(f.results, *r)
	return f.err
}

func words(prefix string, n int) []models.WordRecord {
	out := make([]models.WordRecord, n)
	for i := range out {
		out[i] = models.WordRecord{
			Word:        fmt.Sprintf("%s%d", prefix, i),
			Translation: fmt.Sprintf("%s-tr%d", prefix, i),
		}
	}
	return out
}

func newStudy(t *testing.T, vocab *fakeVocab, opts ...Option) (*Study, *ledger.Ledger) {
	t.Helper()
	l := ledger.New(ledger.NewMemoryStorage(), "", quietLog)
	opts = append(opts, WithQuizBuilder(quiz.NewBuilderWithSource(rand.NewSource(1))))
	return New(l, vocab, quietLog, opts...), l
}

func keys(ws []models.WordRecord) []string {
	out := make([]string, len(ws))
	for i, w := range ws {
		out[i] = w.Key()
	}
	return out
}

// answerAll answers every question, correctly where correct(i) is true.
func answerAll(t *testing.T, s *Study, correct func(i int) bool) []AnswerResult {
	t.Helper()
	var out []AnswerResult
	for i := 0; ; i++ {
		q, err := s.Question()
		if errors.Is(err, ErrNoSession) {
			return out
		}
		require.NoError(t, err)
		choice := q.CorrectIndex
		if !correct(i) {
			choice = (q.CorrectIndex + 1) % len(q.Options)
		}
		res, err := s.Answer(context.Background(), choice)
		require.NoError(t, err)
		out = append(out, res)
	}
}

func TestNewStudyDefaults(t *testing.T) {
	s, _ := newStudy(t, &fakeVocab{})

	assert.Equal(t, Explore, s.Mode())
	assert.Equal(t, DefaultLesson, s.Lesson())
	assert.False(t, s.IsReview())
	assert.False(t, s.CanReview())
}

func TestParseMode(t *testing.T) {
	m, ok := ParseMode("QUIZ")
	assert.True(t, ok)
	assert.Equal(t, Quiz, m)

	_, ok = ParseMode("quiz")
	assert.False(t, ok)
}

func TestExploreNavigation(t *testing.T) {
	ctx := context.Background()
	s, l := newStudy(t, &fakeVocab{lessons: map[string][]models.WordRecord{"Lektion 1": words("a", 3)}})
	s.SelectLesson(ctx, "Lektion 1")

	require.NoError(t, s.Prev())
	pos, total := s.Position()
	assert.Equal(t, 1, pos)
	assert.Equal(t, 3, total)

	require.NoError(t, s.Next(ctx))
	require.NoError(t, s.Next(ctx))
	w, ok := s.Current()
	require.True(t, ok)
	assert.Equal(t, "a2", w.Word)

	require.NoError(t, s.Next(ctx))
	require.NotNil(t, s.Result())
	assert.Equal(t, 0, s.Result().Score)
	assert.ErrorIs(t, s.Next(ctx), ErrNoSession)
	assert.Equal(t, 0, l.Len(), "explore never touches the ledger")
}

func TestActionsOutsideTheirMode(t *testing.T) {
	ctx := context.Background()
	s, _ := newStudy(t, &fakeVocab{lessons: map[string][]models.WordRecord{"Lektion 1": words("a", 3)}})
	s.SelectLesson(ctx, "Lektion 1")

	_, err := s.Swipe(ctx, Left)
	assert.ErrorIs(t, err, ErrWrongMode)
	_, err = s.Answer(ctx, 0)
	assert.ErrorIs(t, err, ErrWrongMode)
	_, err = s.Question()
	assert.ErrorIs(t, err, ErrWrongMode)

	require.NoError(t, s.SetMode(ctx, Flashcards))
	assert.ErrorIs(t, s.Next(ctx), ErrWrongMode)
	assert.ErrorIs(t, s.Prev(), ErrWrongMode)
}

func TestFlashcardsUpdateLedgerPerSwipe(t *testing.T) {
	ctx := context.Background()
	lesson := words("a", 3)
	s, l := newStudy(t, &fakeVocab{lessons: map[string][]models.WordRecord{"Lektion 1": lesson}})
	s.SelectLesson(ctx, "Lektion 1")
	require.NoError(t, s.SetMode(ctx, Flashcards))

	w, err := s.Swipe(ctx, Right)
	require.NoError(t, err)
	assert.Equal(t, "a0", w.Word)
	assert.True(t, l.Contains("a0"), "a miss is recorded immediately")

	_, err = s.Swipe(ctx, Left)
	require.NoError(t, err)
	_, err = s.Swipe(ctx, Left)
	require.NoError(t, err)

	res := s.Result()
	require.NotNil(t, res)
	assert.Equal(t, 2, res.Score)
	assert.Equal(t, 3, res.Total)
	assert.Equal(t, []string{"a0"}, keys(l.Snapshot()))

	_, err = s.Swipe(ctx, Left)
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestReviewRequiresMissedWords(t *testing.T) {
	s, _ := newStudy(t, &fakeVocab{})

	assert.ErrorIs(t, s.StartReview(context.Background()), ErrNothingToReview)
	assert.False(t, s.IsReview())
	assert.Equal(t, Explore, s.Mode())
}

func TestReviewConvergence(t *testing.T) {
	ctx := context.Background()
	s, l := newStudy(t, &fakeVocab{})
	for _, w := range words("m", 3) {
		l.Add(ctx, w)
	}

	require.NoError(t, s.StartReview(ctx))
	assert.Equal(t, Flashcards, s.Mode(), "explore switches to flashcards")
	assert.True(t, s.IsReview())

	for _, dir := range []Direction{Left, Right, Left} {
		_, err := s.Swipe(ctx, dir)
		require.NoError(t, err)
	}

	assert.Equal(t, []string{"m1"}, keys(l.Snapshot()))
	res := s.Result()
	require.NotNil(t, res)
	assert.True(t, res.IsReview)
	assert.Equal(t, 2, res.Score)
	assert.Equal(t, 1, res.Missed)
	assert.True(t, s.CanReview())
}

func TestReviewKeepsQuizMode(t *testing.T) {
	ctx := context.Background()
	s, l := newStudy(t, &fakeVocab{})
	l.Add(ctx, models.WordRecord{Word: "x", Translation: "y"})

	require.NoError(t, s.SetMode(ctx, Quiz))
	require.NoError(t, s.StartReview(ctx))
	assert.Equal(t, Quiz, s.Mode())
}

func TestQuizAppliesLedgerAtTheEnd(t *testing.T) {
	ctx := context.Background()
	lesson := words("q", 5)
	s, l := newStudy(t, &fakeVocab{lessons: map[string][]models.WordRecord{"Lektion 1": lesson}})
	s.SelectLesson(ctx, "Lektion 1")
	require.NoError(t, s.SetMode(ctx, Quiz))

	q, err := s.Question()
	require.NoError(t, err)
	assert.Len(t, q.Options, quiz.DistractorCount+1)

	// First answer is wrong; the ledger waits for the end of the quiz.
	res, err := s.Answer(ctx, (q.CorrectIndex+1)%len(q.Options))
	require.NoError(t, err)
	assert.False(t, res.Correct)
	assert.Equal(t, "q-tr0", res.Expected)
	assert.Equal(t, 0, l.Len())

	results := answerAll(t, s, func(int) bool { return true })
	require.Len(t, results, 4)
	last := results[len(results)-1]
	assert.True(t, last.Finished)
	assert.Equal(t, 4, last.MaxStreak)

	assert.Equal(t, []string{"q0"}, keys(l.Snapshot()))
	require.NotNil(t, s.Result())
	assert.Equal(t, 4, s.Result().Score)
	assert.Equal(t, 4, s.Result().MaxStreak)
}

func TestQuizReviewRemovesMasteredWords(t *testing.T) {
	ctx := context.Background()
	s, l := newStudy(t, &fakeVocab{})
	for _, w := range words("m", 4) {
		l.Add(ctx, w)
	}
	require.NoError(t, s.SetMode(ctx, Quiz))
	require.NoError(t, s.StartReview(ctx))

	answerAll(t, s, func(i int) bool { return i != 2 })

	assert.Equal(t, []string{"m2"}, keys(l.Snapshot()))
}

func TestAnswerRejectsBadChoice(t *testing.T) {
	ctx := context.Background()
	s, _ := newStudy(t, &fakeVocab{lessons: map[string][]models.WordRecord{"Lektion 1": words("q", 4)}})
	s.SelectLesson(ctx, "Lektion 1")
	require.NoError(t, s.SetMode(ctx, Quiz))

	_, err := s.Answer(ctx, 9)
	assert.ErrorIs(t, err, quiz.ErrBadChoice)
	pos, _ := s.Position()
	assert.Equal(t, 1, pos, "a bad choice does not advance")
}

func TestSetModeRestartsFromTheBeginning(t *testing.T) {
	ctx := context.Background()
	s, _ := newStudy(t, &fakeVocab{lessons: map[string][]models.WordRecord{"Lektion 1": words("a", 3)}})
	s.SelectLesson(ctx, "Lektion 1")
	require.NoError(t, s.SetMode(ctx, Flashcards))
	_, err := s.Swipe(ctx, Left)
	require.NoError(t, err)

	require.NoError(t, s.SetMode(ctx, Explore))
	pos, total := s.Position()
	assert.Equal(t, 1, pos)
	assert.Equal(t, 3, total)
	assert.Nil(t, s.Result())
}

func TestEmptyLessonFinishesImmediately(t *testing.T) {
	ctx := context.Background()
	rec := &fakeRecorder{}
	s, _ := newStudy(t, &fakeVocab{err: errors.New("offline")}, WithRecorder(rec))

	s.SelectLesson(ctx, "Lektion 7")

	res := s.Result()
	require.NotNil(t, res)
	assert.Equal(t, 0, res.Score)
	assert.Equal(t, 0, res.Total)
	_, ok := s.Current()
	assert.False(t, ok)
	assert.Empty(t, rec.results, "empty sessions are not recorded")
}

func TestRestartLeavesReview(t *testing.T) {
	ctx := context.Background()
	s, l := newStudy(t, &fakeVocab{lessons: map[string][]models.WordRecord{"Lektion 2": words("b", 2)}})
	l.Add(ctx, models.WordRecord{Word: "x", Translation: "y"})
	s.SelectLesson(ctx, "Lektion 2")
	require.NoError(t, s.StartReview(ctx))

	s.Restart(ctx)

	assert.Equal(t, Explore, s.Mode())
	assert.False(t, s.IsReview())
	assert.Equal(t, "Lektion 2", s.Lesson())
	w, ok := s.Current()
	require.True(t, ok)
	assert.Equal(t, "b0", w.Word)
}

func TestFinishedSessionsAreRecorded(t *testing.T) {
	ctx := context.Background()
	rec := &fakeRecorder{err: errors.New("disk full")}
	s, _ := newStudy(t, &fakeVocab{lessons: map[string][]models.WordRecord{"Lektion 1": words("a", 2)}},
		WithRecorder(rec), WithChatID(42))
	s.SelectLesson(ctx, "Lektion 1")
	require.NoError(t, s.SetMode(ctx, Flashcards))

	_, err := s.Swipe(ctx, Left)
	require.NoError(t, err)
	_, err = s.Swipe(ctx, Right)
	require.NoError(t, err, "a recording failure is not reported to the learner")

	require.Len(t, rec.results, 1)
	got := rec.results[0]
	assert.Equal(t, int64(42), got.ChatID)
	assert.Equal(t, "Lektion 1", got.Lesson)
	assert.Equal(t, "FLASHCARDS", got.Mode)
	assert.Equal(t, 2, got.TotalWords)
	assert.Equal(t, 1, got.Score)
}

func TestLessonsFallback(t *testing.T) {
	ctx := context.Background()

	got := Lessons(ctx, &fakeVocab{err: errors.New("down")}, quietLog)
	require.Len(t, got, LessonCount)
	assert.Equal(t, "Lektion 1", got[0])
	assert.Equal(t, "Lektion 30", got[29])

	assert.Len(t, Lessons(ctx, nil, quietLog), LessonCount)

	got = Lessons(ctx, &fakeVocab{lessons: map[string][]models.WordRecord{"Extra": nil}}, quietLog)
	assert.Equal(t, []string{"Extra"}, got)
}
