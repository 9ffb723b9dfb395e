package repository

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/doubtroom/flashcard-srs/internal/models"
)

// Memory is a mutex-guarded in-process record store for tests and local runs.
// It cannot upsert atomically against concurrent read-modify-write cycles, so
// it enforces a per-key version check: a write carrying a stale version fails
// with a *PersistenceError and the scheduler's bounded retry re-reads and
// re-applies.
type Memory struct {
	mu      sync.Mutex
	records map[string]models.ReviewRecord
}

func NewMemory() *Memory {
	return &Memory{
		records: make(map[string]models.ReviewRecord),
	}
}

func recordKey(userID, questionID string) string {
	return userID + "\x00" + questionID
}

func (m *Memory) GetRecord(_ context.Context, userID, questionID string) (*models.ReviewRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	record, ok := m.records[recordKey(userID, questionID)]
	if !ok {
		return nil, models.ErrNotFound
	}

	return &record, nil
}

func (m *Memory) GetRecordsForUser(_ context.Context, userID string) ([]*models.ReviewRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var records []*models.ReviewRecord
	for _, record := range m.records {
		if record.UserID != userID {
			continue
		}
		record := record
		records = append(records, &record)
	}

	slices.SortFunc(records, func(a, b *models.ReviewRecord) int {
		return cmp.Compare(a.QuestionID, b.QuestionID)
	})

	return records, nil
}

func (m *Memory) GetDueRecords(_ context.Context, userID string, asOf time.Time) ([]*models.ReviewRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var due []*models.ReviewRecord
	for _, record := range m.records {
		if record.UserID != userID || !record.Due(asOf) {
			continue
		}
		record := record
		due = append(due, &record)
	}

	slices.SortFunc(due, func(a, b *models.ReviewRecord) int {
		if c := a.NextReviewAt.Compare(b.NextReviewAt); c != 0 {
			return c
		}
		return cmp.Compare(a.QuestionID, b.QuestionID)
	})

	return due, nil
}

func (m *Memory) HasDueRecords(_ context.Context, userID string, asOf time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, record := range m.records {
		if record.UserID == userID && record.Due(asOf) {
			return true, nil
		}
	}

	return false, nil
}

func (m *Memory) UpsertRecord(_ context.Context, record *models.ReviewRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := recordKey(record.UserID, record.QuestionID)

	existing, ok := m.records[key]
	if ok && existing.Version != record.Version {
		return models.NewPersistenceError(
			fmt.Sprintf("upsert review record (user_id: %s, question_id: %s)", record.UserID, record.QuestionID),
			fmt.Errorf("version conflict: have %d, want %d", record.Version, existing.Version))
	}

	stored := *record
	stored.Version = record.Version + 1
	m.records[key] = stored
	record.Version = stored.Version

	return nil
}

func (m *Memory) DeleteRecord(_ context.Context, userID, questionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.records, recordKey(userID, questionID))
	return nil
}
