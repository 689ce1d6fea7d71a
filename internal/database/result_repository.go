package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/example/vocolatin/pkg/models"
)

// ResultRepository handles database operations for finished sessions
type ResultRepository struct {
	db *sqlx.DB
}

// NewResultRepository creates a new repository instance
func NewResultRepository(db *sqlx.DB) *ResultRepository {
	return &ResultRepository{db: db}
}

// ResultSummary aggregates the finished sessions of a chat
type ResultSummary struct {
	Sessions   int `db:"sessions"`
	TotalWords int `db:"total_words"`
	Score      int `db:"score"`
}

// Create inserts a new session result
func (r *ResultRepository) Create(ctx context.Context, result *models.SessionResult) error {
	if result.FinishedAt.IsZero() {
		result.FinishedAt = time.Now()
	}

	query := `
		INSERT INTO session_results (
			chat_id, lesson, mode, is_review,
			total_words, score, max_streak, finished_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	id, err := insertReturningID(ctx, r.db, query,
		result.ChatID,
		result.Lesson,
		result.Mode,
		result.IsReview,
		result.TotalWords,
		result.Score,
		result.MaxStreak,
		result.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create session result: %w", err)
	}
	result.ID = id
	return nil
}

// GetRecentByChat returns the latest results of a chat, newest first
func (r *ResultRepository) GetRecentByChat(ctx context.Context, chatID int64, limit int) ([]models.SessionResult, error) {
	var results []models.SessionResult
	query := `
		SELECT id, chat_id, lesson, mode, is_review, total_words, score, max_streak, finished_at
		FROM session_results
		WHERE chat_id = ?
		ORDER BY finished_at DESC, id DESC
		LIMIT ?`
	if err := r.db.SelectContext(ctx, &results, r.db.Rebind(query), chatID, limit); err != nil {
		return nil, fmt.Errorf("failed to get session results: %w", err)
	}
	return results, nil
}

// Summary returns totals over all results of a chat
func (r *ResultRepository) Summary(ctx context.Context, chatID int64) (ResultSummary, error) {
	var s ResultSummary
	query := `
		SELECT COUNT(*) AS sessions,
			COALESCE(SUM(total_words), 0) AS total_words,
			COALESCE(SUM(score), 0) AS score
		FROM session_results
		WHERE chat_id = ?`
	if err := r.db.GetContext(ctx, &s, r.db.Rebind(query), chatID); err != nil {
		return ResultSummary{}, fmt.Errorf("failed to summarize session results: %w", err)
	}
	return s, nil
}
