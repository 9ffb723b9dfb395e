package repository

import (
	"context"
	"testing"
	"time"

	"github.com/doubtroom/flashcard-srs/internal/models"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRecord(userID, questionID string, nextReviewAt time.Time) *models.ReviewRecord {
	reviewed := nextReviewAt.AddDate(0, 0, -1)
	return &models.ReviewRecord{
		UserID:         userID,
		QuestionID:     questionID,
		Difficulty:     models.DifficultyMedium,
		IntervalDays:   1,
		LastReviewedAt: &reviewed,
		NextReviewAt:   nextReviewAt,
		ReviewCount:    1,
	}
}

func TestMemory_GetRecord_NotFound(t *testing.T) {
	t.Parallel()

	m := NewMemory()

	_, err := m.GetRecord(context.Background(), "user-1", "question-1")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestMemory_UpsertThenGet(t *testing.T) {
	t.Parallel()

	m := NewMemory()
	ctx := context.Background()

	record := testRecord("user-1", "question-1", time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, m.UpsertRecord(ctx, record))
	assert.Equal(t, int64(1), record.Version, "upsert reports the stored version")

	loaded, err := m.GetRecord(ctx, "user-1", "question-1")
	require.NoError(t, err)

	if diff := cmp.Diff(record, loaded); diff != "" {
		t.Errorf("loaded record differs (-want +got):\n%s", diff)
	}
}

func TestMemory_UpsertRejectsStaleVersion(t *testing.T) {
	t.Parallel()

	m := NewMemory()
	ctx := context.Background()

	record := testRecord("user-1", "question-1", time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, m.UpsertRecord(ctx, record))

	// Two sessions load the same record.
	first, err := m.GetRecord(ctx, "user-1", "question-1")
	require.NoError(t, err)
	second, err := m.GetRecord(ctx, "user-1", "question-1")
	require.NoError(t, err)

	// The first write wins.
	first.ReviewCount = 2
	require.NoError(t, m.UpsertRecord(ctx, first))

	// The second write carries a stale version and must fail transiently.
	second.ReviewCount = 5
	err = m.UpsertRecord(ctx, second)
	require.Error(t, err)

	var persistenceErr *models.PersistenceError
	require.ErrorAs(t, err, &persistenceErr)

	loaded, err := m.GetRecord(ctx, "user-1", "question-1")
	require.NoError(t, err)
	assert.Equal(t, 2, loaded.ReviewCount, "stale write must not clobber the winner")
}

func TestMemory_GetDueRecords_FiltersAndSorts(t *testing.T) {
	t.Parallel()

	m := NewMemory()
	ctx := context.Background()
	base := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, m.UpsertRecord(ctx, testRecord("user-1", "q-c", base.AddDate(0, 0, 1))))
	require.NoError(t, m.UpsertRecord(ctx, testRecord("user-1", "q-a", base.AddDate(0, 0, 3))))
	require.NoError(t, m.UpsertRecord(ctx, testRecord("user-1", "q-b", base.AddDate(0, 0, 1))))
	require.NoError(t, m.UpsertRecord(ctx, testRecord("user-2", "q-z", base)))
	require.NoError(t, m.UpsertRecord(ctx, testRecord("user-1", "q-future", base.AddDate(0, 0, 30))))

	due, err := m.GetDueRecords(ctx, "user-1", base.AddDate(0, 0, 3))
	require.NoError(t, err)

	ids := make([]string, 0, len(due))
	for _, record := range due {
		ids = append(ids, record.QuestionID)
	}
	assert.Equal(t, []string{"q-b", "q-c", "q-a"}, ids)
}

func TestMemory_HasDueRecords(t *testing.T) {
	t.Parallel()

	m := NewMemory()
	ctx := context.Background()
	base := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)

	due, err := m.HasDueRecords(ctx, "user-1", base)
	require.NoError(t, err)
	assert.False(t, due)

	require.NoError(t, m.UpsertRecord(ctx, testRecord("user-1", "q-a", base)))

	// Inclusive boundary: due exactly at next_review_at.
	due, err = m.HasDueRecords(ctx, "user-1", base)
	require.NoError(t, err)
	assert.True(t, due)

	due, err = m.HasDueRecords(ctx, "user-2", base)
	require.NoError(t, err)
	assert.False(t, due, "due state is scoped per user")
}

func TestMemory_DeleteRecord(t *testing.T) {
	t.Parallel()

	m := NewMemory()
	ctx := context.Background()

	record := testRecord("user-1", "question-1", time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, m.UpsertRecord(ctx, record))
	require.NoError(t, m.DeleteRecord(ctx, "user-1", "question-1"))

	_, err := m.GetRecord(ctx, "user-1", "question-1")
	assert.ErrorIs(t, err, models.ErrNotFound)

	// Deleting an absent record is a no-op.
	assert.NoError(t, m.DeleteRecord(ctx, "user-1", "question-1"))
}

func TestMemory_GetRecordsForUser(t *testing.T) {
	t.Parallel()

	m := NewMemory()
	ctx := context.Background()
	base := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, m.UpsertRecord(ctx, testRecord("user-1", "q-b", base)))
	require.NoError(t, m.UpsertRecord(ctx, testRecord("user-1", "q-a", base)))
	require.NoError(t, m.UpsertRecord(ctx, testRecord("user-2", "q-c", base)))

	records, err := m.GetRecordsForUser(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "q-a", records[0].QuestionID)
	assert.Equal(t, "q-b", records[1].QuestionID)
}
