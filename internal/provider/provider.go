// Package provider defines the content collaborators of a study session and
// the call-site helpers that turn their failures into empty content.
package provider

import (
	"context"
	"log/slog"

	"github.com/example/vocolatin/pkg/models"
)

// DefaultBatchSize is the number of words fetched for one lesson.
const DefaultBatchSize = 10

// Vocabulary supplies the words of a lesson.
type Vocabulary interface {
	FetchVocabulary(ctx context.Context, category string) ([]models.WordRecord, error)
}

// Media supplies optional illustrations and pronunciations. An empty handle
// with a nil error means there is nothing to show.
type Media interface {
	WordImage(ctx context.Context, word, translation string) (string, error)
	Pronunciation(ctx context.Context, word string) (string, error)
}

// Fetch returns the lesson words, or nil when the provider fails.
func Fetch(ctx context.Context, v Vocabulary, category string, log *slog.Logger) []models.WordRecord {
	words, err := v.FetchVocabulary(ctx, category)
	if err != nil {
		log.Warn("failed to fetch vocabulary", "category", category, "error", err)
		return nil
	}
	return words
}

// Image returns the image handle for a word, or "" when there is none.
func Image(ctx context.Context, m Media, word models.WordRecord, log *slog.Logger) string {
	if m == nil {
		return ""
	}
	handle, err := m.WordImage(ctx, word.Word, word.Translation)
	if err != nil {
		log.Warn("failed to get word image", "word", word.Word, "error", err)
		return ""
	}
	return handle
}

// Audio returns the pronunciation handle for a word, or "" when there is none.
func Audio(ctx context.Context, m Media, word string, log *slog.Logger) string {
	if m == nil {
		return ""
	}
	handle, err := m.Pronunciation(ctx, word)
	if err != nil {
		log.Warn("failed to get pronunciation", "word", word, "error", err)
		return ""
	}
	return handle
}
