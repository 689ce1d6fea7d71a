// Package quiz builds multiple choice questions and keeps the running score
// of a quiz round.
package quiz

import (
	"fmt"

	"github.com/example/vocolatin/pkg/models"
)

// Outcome is the result of answering one question.
type Outcome struct {
	Correct   bool
	Answer    string // the chosen option
	Expected  string // the correct option
	Streak    int
	MaxStreak int
}

// Round tracks score and streaks over the questions of one quiz.
type Round struct {
	builder   *Builder
	items     []models.WordRecord
	question  *Question
	score     int
	streak    int
	maxStreak int
}

// NewRound starts a round over items.
func NewRound(builder *Builder, items []models.WordRecord) *Round {
	own := make([]models.WordRecord, len(items))
	copy(own, items)
	return &Round{builder: builder, items: own}
}

// Ask returns the question for word, building it on first use. The options
// stay fixed until the question is answered.
func (r *Round) Ask(word models.WordRecord) Question {
	if r.question == nil || r.question.Word.Key() != word.Key() {
		q := r.builder.Question(word, r.items)
		r.question = &q
	}
	return *r.question
}

// Answer grades choice against the open question for word.
func (r *Round) Answer(word models.WordRecord, choice int) (Outcome, error) {
	q := r.Ask(word)
	if choice < 0 || choice >= len(q.Options) {
		return Outcome{}, fmt.Errorf("answer %d of %d options: %w", choice, len(q.Options), ErrBadChoice)
	}
	r.question = nil

	out := Outcome{
		Answer:   q.Options[choice],
		Expected: q.Correct(),
	}
	// Options are unique, so comparing text is the same as comparing index.
	if out.Answer == out.Expected {
		out.Correct = true
		r.score++
		r.streak++
		if r.streak > r.maxStreak {
			r.maxStreak = r.streak
		}
	} else {
		r.streak = 0
	}
	out.Streak = r.streak
	out.MaxStreak = r.maxStreak
	return out, nil
}

// Score returns the number of correct answers.
func (r *Round) Score() int { return r.score }

// Streak returns the current run of correct answers.
func (r *Round) Streak() int { return r.streak }

// MaxStreak returns the longest run of correct answers.
func (r *Round) MaxStreak() int { return r.maxStreak }

