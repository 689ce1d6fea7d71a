package review_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/example/vocolatin/internal/ledger"
	"github.com/example/vocolatin/internal/review"
	"github.com/example/vocolatin/pkg/models"
)

func newLedger(t *testing.T, words ...string) *ledger.Ledger {
	t.Helper()
	l := ledger.New(ledger.NewMemoryStorage(), "", slog.New(slog.NewTextHandler(io.Discard, nil)))
	for _, w := range words {
		l.Add(context.Background(), rec(w))
	}
	return l
}

func rec(w string) models.WordRecord {
	return models.WordRecord{Word: w, Translation: "t-" + w}
}

func ledgerWords(l *ledger.Ledger) []string {
	var out []string
	for _, w := range l.Snapshot() {
		out = append(out, w.Word)
	}
	return out
}

func TestDecideTable(t *testing.T) {
	tests := []struct {
		name     string
		isReview bool
		verdict  review.Verdict
		want     review.Action
	}{
		{"lesson mastered", false, review.Mastered, review.None},
		{"lesson missed", false, review.Missed, review.Add},
		{"review mastered", true, review.Mastered, review.Remove},
		{"review missed", true, review.Missed, review.Add},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, review.Decide(tt.verdict, tt.isReview))
		})
	}
}

func TestEvaluateNonReviewMasteryNeverMutates(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t, "a", "b")

	for _, w := range []string{"a", "b", "c"} {
		review.Evaluate(ctx, l, rec(w), review.Mastered, false)
	}

	assert.Equal(t, []string{"a", "b"}, ledgerWords(l))
}

func TestEvaluateMissedAddsOnce(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t, "a")

	review.Evaluate(ctx, l, rec("b"), review.Missed, false)
	review.Evaluate(ctx, l, rec("a"), review.Missed, true)
	review.Evaluate(ctx, l, rec("b"), review.Missed, false)

	assert.Equal(t, []string{"a", "b"}, ledgerWords(l))
}

func TestReviewConvergence(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t, "A", "B", "C")

	review.Evaluate(ctx, l, rec("A"), review.Mastered, true)
	review.Evaluate(ctx, l, rec("B"), review.Missed, true)
	review.Evaluate(ctx, l, rec("C"), review.Mastered, true)

	assert.Equal(t, []string{"B"}, ledgerWords(l))
}

func TestApplyQuizResultsMatchesPerWordTable(t *testing.T) {
	ctx := context.Background()
	items := []models.WordRecord{rec("A"), rec("B"), rec("C")}
	missed := []models.WordRecord{rec("B")}

	for _, isReview := range []bool{false, true} {
		batched := newLedger(t, "A", "C", "X")
		review.ApplyQuizResults(ctx, batched, items, missed, isReview)

		sequential := newLedger(t, "A", "C", "X")
		review.Evaluate(ctx, sequential, items[0], review.Mastered, isReview)
		review.Evaluate(ctx, sequential, items[1], review.Missed, isReview)
		review.Evaluate(ctx, sequential, items[2], review.Mastered, isReview)

		assert.Equal(t, ledgerWords(sequential), ledgerWords(batched), "isReview=%v", isReview)
	}
}

func TestApplyQuizResultsReviewSession(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t, "A", "B", "C")

	review.ApplyQuizResults(ctx, l,
		[]models.WordRecord{rec("A"), rec("B"), rec("C")},
		[]models.WordRecord{rec("B")},
		true)

	assert.Equal(t, []string{"B"}, ledgerWords(l))
}

func TestApplyQuizResultsLessonAddsInItemOrder(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t)

	review.ApplyQuizResults(ctx, l,
		[]models.WordRecord{rec("A"), rec("B"), rec("C"), rec("D")},
		[]models.WordRecord{rec("D"), rec("B")},
		false)

	assert.Equal(t, []string{"B", "D"}, ledgerWords(l))
}

func TestApplyVerdictsDuplicateKeyFollowsLastOccurrence(t *testing.T) {
	ctx := context.Background()

	l := newLedger(t, "A")
	review.ApplyVerdicts(ctx, l,
		[]models.WordRecord{rec("A"), rec("A")},
		[]review.Verdict{review.Missed, review.Mastered},
		true)
	assert.Empty(t, ledgerWords(l))

	l = newLedger(t, "A")
	review.ApplyVerdicts(ctx, l,
		[]models.WordRecord{rec("A"), rec("A")},
		[]review.Verdict{review.Mastered, review.Missed},
		true)
	assert.Equal(t, []string{"A"}, ledgerWords(l))
}

func TestApplyQuizResultsDuplicateKeyCountsAsMissed(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t, "A")

	review.ApplyQuizResults(ctx, l,
		[]models.WordRecord{rec("A"), rec("A")},
		[]models.WordRecord{rec("A")},
		true)

	assert.Equal(t, []string{"A"}, ledgerWords(l))
}

func TestVerdictString(t *testing.T) {
	assert.Equal(t, "MASTERED", review.Mastered.String())
	assert.Equal(t, "MISSED", review.Missed.String())
	assert.Equal(t, "Verdict(7)", review.Verdict(7).String())
}
