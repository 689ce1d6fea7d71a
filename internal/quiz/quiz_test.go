package quiz

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/vocolatin/pkg/models"
)

func lesson(n int) []models.WordRecord {
	latin := []string{"amicus", "villa", "servus", "dominus", "puella", "nauta", "agricola", "templum"}
	german := []string{"Freund", "Landhaus", "Sklave", "Herr", "Mädchen", "Seemann", "Bauer", "Tempel"}
	out := make([]models.WordRecord, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, models.WordRecord{Word: latin[i], Translation: german[i]})
	}
	return out
}

func TestQuestionHasOneCorrectAndThreeDistinctDistractors(t *testing.T) {
	items := lesson(8)
	b := NewBuilderWithSource(rand.NewSource(1))

	for seed := 0; seed < 20; seed++ {
		for _, w := range items {
			q := b.Question(w, items)

			require.Len(t, q.Options, DistractorCount+1)
			assert.Equal(t, w.Translation, q.Correct())

			seen := map[string]bool{}
			correct := 0
			for _, opt := range q.Options {
				assert.False(t, seen[opt], "duplicate option %q", opt)
				seen[opt] = true
				if opt == w.Translation {
					correct++
				}
			}
			assert.Equal(t, 1, correct)
		}
	}
}

func TestQuestionInSmallSession(t *testing.T) {
	items := lesson(2)
	b := NewBuilderWithSource(rand.NewSource(7))

	q := b.Question(items[0], items)

	assert.ElementsMatch(t, []string{"Freund", "Landhaus"}, q.Options)
	assert.Equal(t, "Freund", q.Correct())
}

func TestQuestionSkipsDuplicateTranslations(t *testing.T) {
	items := []models.WordRecord{
		{Word: "magnus", Translation: "groß"},
		{Word: "ingens", Translation: "groß"},
		{Word: "parvus", Translation: "klein"},
	}
	b := NewBuilderWithSource(rand.NewSource(3))

	q := b.Question(items[0], items)

	assert.ElementsMatch(t, []string{"groß", "klein"}, q.Options)
}

func TestRoundScoresAndStreaks(t *testing.T) {
	items := lesson(5)
	r := NewRound(NewBuilderWithSource(rand.NewSource(42)), items)

	answers := []bool{true, true, false, true, true}
	for i, w := range items {
		q := r.Ask(w)
		choice := q.CorrectIndex
		if !answers[i] {
			choice = (q.CorrectIndex + 1) % len(q.Options)
		}
		out, err := r.Answer(w, choice)
		require.NoError(t, err)
		assert.Equal(t, answers[i], out.Correct)
		assert.Equal(t, w.Translation, out.Expected)
	}

	assert.Equal(t, 4, r.Score())
	assert.Equal(t, 2, r.Streak())
	assert.Equal(t, 2, r.MaxStreak())
}

func TestAskIsStableUntilAnswered(t *testing.T) {
	items := lesson(6)
	r := NewRound(NewBuilderWithSource(rand.NewSource(9)), items)

	first := r.Ask(items[0])
	assert.Equal(t, first, r.Ask(items[0]))
}

func TestAnswerRejectsBadChoice(t *testing.T) {
	items := lesson(4)
	r := NewRound(NewBuilderWithSource(rand.NewSource(1)), items)

	_, err := r.Answer(items[0], 4)
	assert.ErrorIs(t, err, ErrBadChoice)
	_, err = r.Answer(items[0], -1)
	assert.ErrorIs(t, err, ErrBadChoice)
	assert.Equal(t, 0, r.Score())
}
