// Package review decides how a learner's verdict on a word changes the
// missed-word ledger.
package review

import (
	"context"
	"fmt"

	"github.com/example/vocolatin/pkg/models"
)

// Verdict is the learner's judgment on one word.
type Verdict int

const (
	// Mastered means the learner knew the word (swiped "known" or answered correctly).
	Mastered Verdict = iota
	// Missed means the learner did not know the word.
	Missed
)

func (v Verdict) String() string {
	switch v {
	case Mastered:
		return "MASTERED"
	case Missed:
		return "MISSED"
	default:
		return fmt.Sprintf("Verdict(%d)", int(v))
	}
}

// Ledger is the set of missed words the evaluator mutates.
type Ledger interface {
	Add(ctx context.Context, word models.WordRecord) bool
	Remove(ctx context.Context, key string) bool
}

// Action is the ledger mutation chosen for a verdict.
type Action int

const (
	None Action = iota
	Add
	Remove
)

// Decide returns the ledger action for a verdict. Mastery only removes a
// word inside a review session; a miss always adds it.
func Decide(verdict Verdict, isReview bool) Action {
	switch {
	case verdict == Missed:
		return Add
	case isReview:
		return Remove
	default:
		return None
	}
}

// Evaluate applies the ledger action for one judged word.
func Evaluate(ctx context.Context, ledger Ledger, word models.WordRecord, verdict Verdict, isReview bool) Action {
	action := Decide(verdict, isReview)
	switch action {
	case Add:
		ledger.Add(ctx, word)
	case Remove:
		ledger.Remove(ctx, word.Key())
	}
	return action
}

// ApplyQuizResults applies the per-word rule to every item of a finished quiz
// in item order. Items found in missed are judged Missed, all others Mastered.
// A key that occurs twice gets the same verdict both times; study sessions use
// ApplyVerdicts, which keeps the verdict of each occurrence.
func ApplyQuizResults(ctx context.Context, ledger Ledger, items, missed []models.WordRecord, isReview bool) {
	missedKeys := make(map[string]bool, len(missed))
	for _, w := range missed {
		missedKeys[w.Key()] = true
	}

	for _, w := range items {
		verdict := Mastered
		if missedKeys[w.Key()] {
			verdict = Missed
		}
		Evaluate(ctx, ledger, w, verdict, isReview)
	}
}

// ApplyVerdicts applies verdicts[i] to items[i] in order. Extra items without
// a verdict are left alone.
func ApplyVerdicts(ctx context.Context, ledger Ledger, items []models.WordRecord, verdicts []Verdict, isReview bool) {
	for i, w := range items {
		if i >= len(verdicts) {
			return
		}
		Evaluate(ctx, ledger, w, verdicts[i], isReview)
	}
}
