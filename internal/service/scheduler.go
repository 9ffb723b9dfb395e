package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/doubtroom/flashcard-srs/internal/models"
	"github.com/doubtroom/flashcard-srs/internal/service/srs"
	"github.com/doubtroom/flashcard-srs/internal/storage/cache"
	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"
)

// ErrInvalidRating is returned when a submitted difficulty is not one of the
// three user-facing ratings.
var ErrInvalidRating = errors.New("difficulty must be easy, medium or hard")

// submitAttempts bounds the optimistic read-compute-write loop of SubmitRating.
const submitAttempts = 3

const retryBackoff = 10 * time.Millisecond

// Scheduler is the only component that mutates review records. It loads the
// prior record, asks the interval policy for the next interval and writes the
// updated record back through the store.
type Scheduler struct {
	store  models.RecordStore
	policy *srs.Policy
	cache  *cache.Cache
	now    func() time.Time
}

func NewScheduler(store models.RecordStore, policy *srs.Policy, statusCache *cache.Cache) *Scheduler {
	if policy == nil {
		policy = srs.DefaultPolicy()
	}
	if statusCache == nil {
		statusCache = cache.NewCache()
	}

	return &Scheduler{
		store:  store,
		policy: policy,
		cache:  statusCache,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// SubmitRating records a difficulty rating for one card. A missing record is
// treated as the first review and synthesized with interval 0. Transient store
// failures are retried up to submitAttempts times; each attempt re-reads the
// record, so a version conflict from a concurrent submission resolves by
// re-applying the rating on top of the winner's state.
func (s *Scheduler) SubmitRating(ctx context.Context, userID, questionID string, difficulty models.Difficulty) (*models.ReviewRecord, error) {
	if !difficulty.IsRating() {
		return nil, fmt.Errorf("%w, got %q", ErrInvalidRating, difficulty)
	}

	var updated *models.ReviewRecord

	backoff := retry.WithMaxRetries(submitAttempts-1, retry.NewConstant(retryBackoff))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		record, err := s.store.GetRecord(ctx, userID, questionID)
		switch {
		case errors.Is(err, models.ErrNotFound):
			record = &models.ReviewRecord{
				UserID:     userID,
				QuestionID: questionID,
				Difficulty: models.DifficultyUnrated,
			}
		case err != nil:
			return retryIfTransient(err)
		}

		nextInterval, err := s.policy.NextInterval(record.IntervalDays, record.ReviewCount, difficulty)
		if err != nil {
			// Policy rejections indicate a caller bug, never retried.
			return err
		}

		now := s.now()
		record.Difficulty = difficulty
		record.IntervalDays = nextInterval
		record.LastReviewedAt = &now
		record.NextReviewAt = now.AddDate(0, 0, nextInterval)
		record.ReviewCount++

		if err := s.store.UpsertRecord(ctx, record); err != nil {
			zap.S().Warn("upsert review record failed",
				zap.Error(err), zap.String("user_id", userID), zap.String("question_id", questionID))
			return retryIfTransient(err)
		}

		updated = record
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("submit rating (user_id: %s, question_id: %s): %w", userID, questionID, err)
	}

	s.cache.Invalidate(userID)

	return updated, nil
}

// ListDueCards returns every record due at asOf, earliest first with ties
// broken by question ID. A zero asOf means "now". An empty result is not an
// error.
func (s *Scheduler) ListDueCards(ctx context.Context, userID string, asOf time.Time) ([]*models.ReviewRecord, error) {
	if asOf.IsZero() {
		asOf = s.now()
	}

	records, err := s.store.GetDueRecords(ctx, userID, asOf)
	if err != nil {
		return nil, fmt.Errorf("list due cards (user_id: %s): %w", userID, err)
	}

	if records == nil {
		records = []*models.ReviewRecord{}
	}

	return records, nil
}

// HasDueCards answers "is any card due" without materializing the due list.
func (s *Scheduler) HasDueCards(ctx context.Context, userID string, asOf time.Time) (bool, error) {
	if asOf.IsZero() {
		asOf = s.now()
	}

	due, err := s.store.HasDueRecords(ctx, userID, asOf)
	if err != nil {
		return false, fmt.Errorf("check due cards (user_id: %s): %w", userID, err)
	}

	return due, nil
}

// GetRecord returns the stored record for one card, or models.ErrNotFound.
func (s *Scheduler) GetRecord(ctx context.Context, userID, questionID string) (*models.ReviewRecord, error) {
	return s.store.GetRecord(ctx, userID, questionID)
}

// ListRecords returns every record for the user, reading through the per-user
// cache. SubmitRating invalidates the cache, so a stale snapshot never
// outlives the rating that changed it.
func (s *Scheduler) ListRecords(ctx context.Context, userID string) ([]*models.ReviewRecord, error) {
	if cached, ok := s.cache.GetRecords(userID); ok {
		return cached, nil
	}

	records, err := s.store.GetRecordsForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list records (user_id: %s): %w", userID, err)
	}

	if records == nil {
		records = []*models.ReviewRecord{}
	}

	s.cache.SetRecords(userID, records)

	return records, nil
}

func retryIfTransient(err error) error {
	var persistenceErr *models.PersistenceError
	if errors.As(err, &persistenceErr) {
		return retry.RetryableError(err)
	}
	return err
}
