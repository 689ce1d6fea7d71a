// Package session tracks progress through one ordered run of word records.
package session

import (
	"context"
	"errors"

	"github.com/example/vocolatin/internal/review"
	"github.com/example/vocolatin/pkg/models"
)

var (
	// ErrNothingToReview is returned when a review session would start without words.
	ErrNothingToReview = errors.New("no missed words to review")
	// ErrSessionFinished is returned when a verdict arrives after the last word.
	ErrSessionFinished = errors.New("session is finished")
)

// State of a session.
type State int

const (
	// Terminal holds the final score; no more input is accepted.
	Terminal State = iota
	// Active accepts navigation and verdicts.
	Active
)

func (s State) String() string {
	if s == Active {
		return "ACTIVE"
	}
	return "TERMINAL"
}

// Controller runs one session at a time over a private copy of its items.
// The zero value is not usable; create one with NewController.
type Controller struct {
	ledger review.Ledger

	items      []models.WordRecord
	judged     []models.WordRecord
	verdicts   []review.Verdict
	cursor     int
	knownTally int
	isReview   bool
	state      State
	finalScore int
}

// NewController creates a controller that applies verdicts to ledger.
// It starts Terminal with no items.
func NewController(ledger review.Ledger) *Controller {
	return &Controller{ledger: ledger, state: Terminal}
}

// Start begins a new session over a copy of items. An empty review session is
// refused and leaves the controller Terminal with no items. An empty lesson
// finishes at once with a score of zero.
func (c *Controller) Start(items []models.WordRecord, isReview bool) error {
	if len(items) == 0 && isReview {
		c.items = nil
		c.judged = nil
		c.verdicts = nil
		c.cursor = 0
		c.knownTally = 0
		c.finalScore = 0
		c.state = Terminal
		return ErrNothingToReview
	}

	c.items = make([]models.WordRecord, len(items))
	copy(c.items, items)
	c.judged = make([]models.WordRecord, 0, len(items))
	c.verdicts = make([]review.Verdict, 0, len(items))
	c.cursor = 0
	c.knownTally = 0
	c.finalScore = 0
	c.isReview = isReview
	c.state = Active

	if len(c.items) == 0 {
		c.finish()
	}
	return nil
}

// Reset restarts the session over items, keeping the review flag.
func (c *Controller) Reset(items []models.WordRecord) error {
	return c.Start(items, c.isReview)
}

// Advance moves to the next word, or finishes the session after the last one.
func (c *Controller) Advance() {
	if c.state != Active {
		return
	}
	if c.cursor < len(c.items)-1 {
		c.cursor++
		return
	}
	c.finish()
}

// Retreat moves back one word, stopping at the first.
func (c *Controller) Retreat() {
	if c.state != Active {
		return
	}
	if c.cursor > 0 {
		c.cursor--
	}
}

// Judge applies verdict to the current word through the review rules, counts
// it and advances. It returns the judged word.
func (c *Controller) Judge(ctx context.Context, verdict review.Verdict) (models.WordRecord, error) {
	word, err := c.count(verdict)
	if err != nil {
		return models.WordRecord{}, err
	}
	review.Evaluate(ctx, c.ledger, word, verdict, c.isReview)
	c.Advance()
	return word, nil
}

// Record counts verdict for the current word and advances without touching
// the ledger. The recorded verdicts are applied in one batch once the session
// is over, see Judged.
func (c *Controller) Record(verdict review.Verdict) (models.WordRecord, error) {
	word, err := c.count(verdict)
	if err != nil {
		return models.WordRecord{}, err
	}
	c.Advance()
	return word, nil
}

func (c *Controller) count(verdict review.Verdict) (models.WordRecord, error) {
	if c.state != Active {
		return models.WordRecord{}, ErrSessionFinished
	}
	word := c.items[c.cursor]
	c.judged = append(c.judged, word)
	c.verdicts = append(c.verdicts, verdict)
	if verdict == review.Mastered {
		c.knownTally++
	}
	return word, nil
}

func (c *Controller) finish() {
	c.finalScore = c.knownTally
	c.state = Terminal
}

// State returns the session state.
func (c *Controller) State() State { return c.state }

// Current returns the word under the cursor. ok is false when the session is
// not active.
func (c *Controller) Current() (word models.WordRecord, ok bool) {
	if c.state != Active {
		return models.WordRecord{}, false
	}
	return c.items[c.cursor], true
}

// Cursor returns the index of the current word.
func (c *Controller) Cursor() int { return c.cursor }

// Len returns the number of words in the session.
func (c *Controller) Len() int { return len(c.items) }

// Items returns a copy of the session words.
func (c *Controller) Items() []models.WordRecord {
	out := make([]models.WordRecord, len(c.items))
	copy(out, c.items)
	return out
}

// KnownTally returns the number of Mastered verdicts so far.
func (c *Controller) KnownTally() int { return c.knownTally }

// FinalScore returns the score recorded when the session finished.
func (c *Controller) FinalScore() int { return c.finalScore }

// IsReview reports whether the session re-tests missed words.
func (c *Controller) IsReview() bool { return c.isReview }

// Judged returns the judged words and their verdicts, in judgment order.
func (c *Controller) Judged() ([]models.WordRecord, []review.Verdict) {
	words := make([]models.WordRecord, len(c.judged))
	copy(words, c.judged)
	verdicts := make([]review.Verdict, len(c.verdicts))
	copy(verdicts, c.verdicts)
	return words, verdicts
}

// Missed returns the judged words that received a Missed verdict.
func (c *Controller) Missed() []models.WordRecord {
	var out []models.WordRecord
	for i, v := range c.verdicts {
		if v == review.Missed {
			out = append(out, c.judged[i])
		}
	}
	return out
}
