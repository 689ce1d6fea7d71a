package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/example/vocolatin/pkg/models"
)

const wordColumns = `id, lesson, position, word, translation, part_of_speech,
	example_sentence, example_translation, notes, image, pronunciation`

// WordRepository handles database operations for the lesson catalog
type WordRepository struct {
	db *sqlx.DB
}

// NewWordRepository creates a new repository instance
func NewWordRepository(db *sqlx.DB) *WordRepository {
	return &WordRepository{db: db}
}

// GetByLesson returns the words of a lesson in catalog order
func (r *WordRepository) GetByLesson(ctx context.Context, lesson string) ([]models.CatalogWord, error) {
	var words []models.CatalogWord
	query := "SELECT " + wordColumns + " FROM words WHERE lesson = ? ORDER BY position, id"
	if err := r.db.SelectContext(ctx, &words, r.db.Rebind(query), lesson); err != nil {
		return nil, fmt.Errorf("failed to get words by lesson: %w", err)
	}
	return words, nil
}

// GetRandomByLesson returns random words from a lesson, limited by count
func (r *WordRepository) GetRandomByLesson(ctx context.Context, lesson string, count int) ([]models.CatalogWord, error) {
	var words []models.CatalogWord
	query := "SELECT " + wordColumns + " FROM words WHERE lesson = ? ORDER BY RANDOM() LIMIT ?"
	if err := r.db.SelectContext(ctx, &words, r.db.Rebind(query), lesson, count); err != nil {
		return nil, fmt.Errorf("failed to get random words: %w", err)
	}
	return words, nil
}

// FindInLesson returns the word of a lesson, or nil when there is none
func (r *WordRepository) FindInLesson(ctx context.Context, lesson, word string) (*models.CatalogWord, error) {
	var w models.CatalogWord
	query := "SELECT " + wordColumns + " FROM words WHERE lesson = ? AND word = ?"
	err := r.db.GetContext(ctx, &w, r.db.Rebind(query), lesson, word)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find word: %w", err)
	}
	return &w, nil
}

// FindByWord returns the first catalog entry for word in any lesson, or nil
func (r *WordRepository) FindByWord(ctx context.Context, word string) (*models.CatalogWord, error) {
	var w models.CatalogWord
	query := "SELECT " + wordColumns + " FROM words WHERE word = ? ORDER BY id LIMIT 1"
	err := r.db.GetContext(ctx, &w, r.db.Rebind(query), word)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find word: %w", err)
	}
	return &w, nil
}

// ListLessons returns lesson names in the order they were first imported
func (r *WordRepository) ListLessons(ctx context.Context) ([]string, error) {
	var lessons []string
	query := "SELECT lesson FROM words GROUP BY lesson ORDER BY MIN(id)"
	if err := r.db.SelectContext(ctx, &lessons, query); err != nil {
		return nil, fmt.Errorf("failed to list lessons: %w", err)
	}
	return lessons, nil
}

// Upsert inserts a word or updates the existing entry with the same lesson
// and word. An updated word keeps its position. It reports whether a new row
// was created.
func (r *WordRepository) Upsert(ctx context.Context, word *models.CatalogWord) (bool, error) {
	existing, err := r.FindInLesson(ctx, word.Lesson, word.Word)
	if err != nil {
		return false, err
	}

	if existing != nil {
		word.ID = existing.ID
		word.Position = existing.Position
		query := `
			UPDATE words SET
				translation = ?,
				part_of_speech = ?,
				example_sentence = ?,
				example_translation = ?,
				notes = ?,
				image = ?,
				pronunciation = ?,
				updated_at = CURRENT_TIMESTAMP
			WHERE id = ?
		`
		_, err := r.db.ExecContext(ctx, r.db.Rebind(query),
			word.Translation,
			word.PartOfSpeech,
			word.ExampleSentence,
			word.ExampleTranslation,
			word.Notes,
			word.Image,
			word.Pronunciation,
			word.ID,
		)
		if err != nil {
			return false, fmt.Errorf("failed to update word: %w", err)
		}
		return false, nil
	}

	query := `
		INSERT INTO words (lesson, position, word, translation, part_of_speech,
			example_sentence, example_translation, notes, image, pronunciation)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	id, err := insertReturningID(ctx, r.db, query,
		word.Lesson,
		word.Position,
		word.Word,
		word.Translation,
		word.PartOfSpeech,
		word.ExampleSentence,
		word.ExampleTranslation,
		word.Notes,
		word.Image,
		word.Pronunciation,
	)
	if err != nil {
		return false, fmt.Errorf("failed to create word: %w", err)
	}
	word.ID = id
	return true, nil
}

// MaxPosition returns the highest position in a lesson, 0 for an empty lesson
func (r *WordRepository) MaxPosition(ctx context.Context, lesson string) (int, error) {
	var highest int
	query := "SELECT COALESCE(MAX(position), 0) FROM words WHERE lesson = ?"
	if err := r.db.GetContext(ctx, &highest, r.db.Rebind(query), lesson); err != nil {
		return 0, fmt.Errorf("failed to get max position: %w", err)
	}
	return highest, nil
}

// DeleteLesson removes every word of a lesson
func (r *WordRepository) DeleteLesson(ctx context.Context, lesson string) (int64, error) {
	result, err := r.db.ExecContext(ctx, r.db.Rebind("DELETE FROM words WHERE lesson = ?"), lesson)
	if err != nil {
		return 0, fmt.Errorf("failed to delete lesson: %w", err)
	}
	return result.RowsAffected()
}

// Count returns the number of catalog words
func (r *WordRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM words"); err != nil {
		return 0, fmt.Errorf("failed to count words: %w", err)
	}
	return n, nil
}
