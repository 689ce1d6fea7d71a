package provider

import (
	"context"

	"github.com/example/vocolatin/pkg/models"
)

// Store is the lesson catalog the Catalog provider reads.
type Store interface {
	GetRandomByLesson(ctx context.Context, lesson string, count int) ([]models.CatalogWord, error)
	FindByWord(ctx context.Context, word string) (*models.CatalogWord, error)
	ListLessons(ctx context.Context) ([]string, error)
}

// Catalog serves lessons imported into the database.
type Catalog struct {
	store     Store
	batchSize int
}

// NewCatalog creates a catalog provider returning up to batchSize words per lesson.
func NewCatalog(store Store, batchSize int) *Catalog {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Catalog{store: store, batchSize: batchSize}
}

// FetchVocabulary returns a random batch of the lesson's words.
func (c *Catalog) FetchVocabulary(ctx context.Context, category string) ([]models.WordRecord, error) {
	rows, err := c.store.GetRandomByLesson(ctx, category, c.batchSize)
	if err != nil {
		return nil, err
	}
	words := make([]models.WordRecord, 0, len(rows))
	for _, r := range rows {
		words = append(words, r.WordRecord)
	}
	return words, nil
}

// WordImage returns the stored image of word. translation is unused; the
// catalog keys media by word alone.
func (c *Catalog) WordImage(ctx context.Context, word, _ string) (string, error) {
	w, err := c.store.FindByWord(ctx, word)
	if err != nil || w == nil {
		return "", err
	}
	return w.Image, nil
}

// Pronunciation returns the stored audio handle of word.
func (c *Catalog) Pronunciation(ctx context.Context, word string) (string, error) {
	w, err := c.store.FindByWord(ctx, word)
	if err != nil || w == nil {
		return "", err
	}
	return w.Pronunciation, nil
}

// Lessons returns the imported lesson names.
func (c *Catalog) Lessons(ctx context.Context) ([]string, error) {
	return c.store.ListLessons(ctx)
}
