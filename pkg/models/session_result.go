package models

import "time"

// SessionResult records one finished study session
type SessionResult struct {
	ID         int64     `json:"id" db:"id"`
	ChatID     int64     `json:"chat_id" db:"chat_id"`
	Lesson     string    `json:"lesson" db:"lesson"`
	Mode       string    `json:"mode" db:"mode"` // e.g., "FLASHCARDS", "QUIZ"
	IsReview   bool      `json:"is_review" db:"is_review"`
	TotalWords int       `json:"total_words" db:"total_words"`
	Score      int       `json:"score" db:"score"`
	MaxStreak  int       `json:"max_streak" db:"max_streak"`
	FinishedAt time.Time `json:"finished_at" db:"finished_at"`
}
