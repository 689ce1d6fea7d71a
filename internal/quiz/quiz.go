package quiz

import (
	"errors"
	"math/rand"
	"time"

	"github.com/example/vocolatin/pkg/models"
)

// DistractorCount is the number of wrong options offered next to the correct one.
const DistractorCount = 3

// ErrBadChoice is returned for an option index outside the question.
var ErrBadChoice = errors.New("choice out of range")

// Question represents a single multiple choice question
type Question struct {
	Word         models.WordRecord // The word being tested
	Options      []string          // Possible translations
	CorrectIndex int               // Index of correct answer in options
}

// Correct returns the correct translation.
func (q Question) Correct() string {
	return q.Options[q.CorrectIndex]
}

// Builder generates questions from the words of one session.
type Builder struct {
	rnd *rand.Rand
}

// NewBuilder creates a builder seeded from the clock.
func NewBuilder() *Builder {
	return NewBuilderWithSource(rand.NewSource(time.Now().UnixNano()))
}

// NewBuilderWithSource creates a builder with a fixed random source.
func NewBuilderWithSource(src rand.Source) *Builder {
	return &Builder{rnd: rand.New(src)}
}

// Question builds a question for word. Distractors are translations of other
// session words, drawn without replacement, distinct from each other and from
// the correct translation. Small sessions yield fewer distractors.
func (b *Builder) Question(word models.WordRecord, session []models.WordRecord) Question {
	options := b.distractors(word, session, DistractorCount)

	// Add correct option and shuffle
	options = append(options, word.Translation)
	correctIndex := len(options) - 1

	b.rnd.Shuffle(len(options), func(i, j int) {
		if i == correctIndex {
			correctIndex = j
		} else if j == correctIndex {
			correctIndex = i
		}
		options[i], options[j] = options[j], options[i]
	})

	return Question{
		Word:         word,
		Options:      options,
		CorrectIndex: correctIndex,
	}
}

func (b *Builder) distractors(word models.WordRecord, session []models.WordRecord, count int) []string {
	others := make([]models.WordRecord, 0, len(session))
	for _, w := range session {
		if w.Key() != word.Key() {
			others = append(others, w)
		}
	}

	b.rnd.Shuffle(len(others), func(i, j int) {
		others[i], others[j] = others[j], others[i]
	})

	seen := map[string]bool{word.Translation: true}
	options := make([]string, 0, count)
	for _, w := range others {
		if len(options) == count {
			break
		}
		if seen[w.Translation] {
			continue
		}
		seen[w.Translation] = true
		options = append(options, w.Translation)
	}
	return options
}
