package models

import "time"

type Difficulty string

const (
	DifficultyUnrated Difficulty = "unrated"
	DifficultyEasy    Difficulty = "easy"
	DifficultyMedium  Difficulty = "medium"
	DifficultyHard    Difficulty = "hard"
)

// IsRating reports whether d is one of the three ratings a user can submit.
// DifficultyUnrated is the pre-first-review state and is never accepted as input.
func (d Difficulty) IsRating() bool {
	return d == DifficultyEasy || d == DifficultyMedium || d == DifficultyHard
}

// ReviewRecord is the persisted review state of one user on one flashcard.
// There is at most one record per (UserID, QuestionID) pair; ratings update it
// in place through upserts.
type ReviewRecord struct {
	UserID         string     `db:"user_id" json:"userId"`
	QuestionID     string     `db:"question_id" json:"questionId"`
	Difficulty     Difficulty `db:"difficulty" json:"difficulty"`
	IntervalDays   int        `db:"interval_days" json:"intervalDays"`
	LastReviewedAt *time.Time `db:"last_reviewed_at" json:"lastReviewedAt"`
	NextReviewAt   time.Time  `db:"next_review_at" json:"nextReviewAt"`
	ReviewCount    int        `db:"review_count" json:"reviewCount"`

	// Version is the optimistic concurrency token used by stores that cannot
	// upsert atomically. Stores with atomic upserts ignore it.
	Version int64 `db:"version" json:"-"`
}

// Due reports whether the record is due for review at the given time.
// The boundary is inclusive.
func (r *ReviewRecord) Due(asOf time.Time) bool {
	return !r.NextReviewAt.After(asOf)
}
