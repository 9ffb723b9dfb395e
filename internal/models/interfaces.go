package models

import (
	"context"
	"time"
)

// RecordStore is the persistence contract the scheduler writes through.
// UpsertRecord must be atomic per (user, question) key; implementations that
// cannot guarantee that must reject stale writes with a *PersistenceError so
// the scheduler's bounded retry can re-read and re-apply.
type RecordStore interface {
	GetRecord(ctx context.Context, userID, questionID string) (*ReviewRecord, error)
	GetRecordsForUser(ctx context.Context, userID string) ([]*ReviewRecord, error)
	GetDueRecords(ctx context.Context, userID string, asOf time.Time) ([]*ReviewRecord, error)
	HasDueRecords(ctx context.Context, userID string, asOf time.Time) (bool, error)
	UpsertRecord(ctx context.Context, record *ReviewRecord) error

	// DeleteRecord exists for the external question-lifecycle collaborator;
	// the scheduler itself never deletes records.
	DeleteRecord(ctx context.Context, userID, questionID string) error
}
