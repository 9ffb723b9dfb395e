package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/doubtroom/flashcard-srs/internal/models"
)

func (r *Postgres) GetRecord(ctx context.Context, userID, questionID string) (*models.ReviewRecord, error) {
	query := `
		SELECT user_id, question_id, difficulty, interval_days, last_reviewed_at, next_review_at, review_count, version
		FROM review_records
		WHERE user_id = $1 AND question_id = $2
	`

	var record models.ReviewRecord
	err := r.db.GetContext(ctx, &record, query, userID, questionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, models.NewPersistenceError(
			fmt.Sprintf("get review record (user_id: %s, question_id: %s)", userID, questionID), err)
	}

	return &record, nil
}

func (r *Postgres) GetRecordsForUser(ctx context.Context, userID string) ([]*models.ReviewRecord, error) {
	query := `
		SELECT user_id, question_id, difficulty, interval_days, last_reviewed_at, next_review_at, review_count, version
		FROM review_records
		WHERE user_id = $1
		ORDER BY question_id ASC
	`

	var records []*models.ReviewRecord
	err := r.db.SelectContext(ctx, &records, query, userID)
	if err != nil {
		return nil, models.NewPersistenceError(
			fmt.Sprintf("get review records (user_id: %s)", userID), err)
	}

	return records, nil
}

// GetDueRecords returns every record due at asOf, earliest first. The boundary
// is inclusive and ties are broken by question_id for deterministic ordering.
func (r *Postgres) GetDueRecords(ctx context.Context, userID string, asOf time.Time) ([]*models.ReviewRecord, error) {
	query := `
		SELECT user_id, question_id, difficulty, interval_days, last_reviewed_at, next_review_at, review_count, version
		FROM review_records
		WHERE user_id = $1 AND next_review_at <= $2
		ORDER BY next_review_at ASC, question_id ASC
	`

	var records []*models.ReviewRecord
	err := r.db.SelectContext(ctx, &records, query, userID, asOf)
	if err != nil {
		return nil, models.NewPersistenceError(
			fmt.Sprintf("get due records (user_id: %s, as_of: %s)", userID, asOf.Format(time.RFC3339)), err)
	}

	return records, nil
}

// HasDueRecords short-circuits on the first due row instead of materializing
// the full due list.
func (r *Postgres) HasDueRecords(ctx context.Context, userID string, asOf time.Time) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM review_records
			WHERE user_id = $1 AND next_review_at <= $2
		)
	`

	var due bool
	err := r.db.QueryRowxContext(ctx, query, userID, asOf).Scan(&due)
	if err != nil {
		return false, models.NewPersistenceError(
			fmt.Sprintf("check due records (user_id: %s)", userID), err)
	}

	return due, nil
}

// UpsertRecord inserts or replaces the record for its (user, question) key in a
// single atomic statement, so concurrent submissions for the same pair resolve
// to last-writer-wins without a read-modify-write race.
func (r *Postgres) UpsertRecord(ctx context.Context, record *models.ReviewRecord) error {
	query := r.psql.Insert("review_records").
		Columns("user_id", "question_id", "difficulty", "interval_days", "last_reviewed_at", "next_review_at", "review_count", "version").
		Values(record.UserID, record.QuestionID, record.Difficulty, record.IntervalDays, record.LastReviewedAt, record.NextReviewAt, record.ReviewCount, record.Version+1).
		Suffix(`
			ON CONFLICT (user_id, question_id) DO UPDATE SET
				difficulty = EXCLUDED.difficulty,
				interval_days = EXCLUDED.interval_days,
				last_reviewed_at = EXCLUDED.last_reviewed_at,
				next_review_at = EXCLUDED.next_review_at,
				review_count = EXCLUDED.review_count,
				version = review_records.version + 1
			RETURNING version
		`)

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return fmt.Errorf("build SQL query (user_id: %s, question_id: %s): %w", record.UserID, record.QuestionID, err)
	}

	err = r.db.QueryRowxContext(ctx, sqlStr, args...).Scan(&record.Version)
	if err != nil {
		return models.NewPersistenceError(
			fmt.Sprintf("upsert review record (user_id: %s, question_id: %s)", record.UserID, record.QuestionID), err)
	}

	return nil
}

func (r *Postgres) DeleteRecord(ctx context.Context, userID, questionID string) error {
	query := r.psql.Delete("review_records").
		Where("user_id = ? AND question_id = ?", userID, questionID)

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return fmt.Errorf("build SQL query (user_id: %s, question_id: %s): %w", userID, questionID, err)
	}

	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return models.NewPersistenceError(
			fmt.Sprintf("delete review record (user_id: %s, question_id: %s)", userID, questionID), err)
	}

	return nil
}
