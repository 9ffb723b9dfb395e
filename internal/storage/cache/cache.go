package cache

import (
	"sync"

	"github.com/doubtroom/flashcard-srs/internal/models"
)

// Cache holds per-user snapshots of review records so repeated status reads do
// not hit the store. Every submitted rating invalidates the owning user's
// snapshot.
type Cache struct {
	mu      sync.Mutex
	records map[string][]*models.ReviewRecord
}

func NewCache() *Cache {
	return &Cache{
		records: make(map[string][]*models.ReviewRecord),
	}
}

func (c *Cache) SetRecords(userID string, records []*models.ReviewRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.records[userID] = records
}

func (c *Cache) GetRecords(userID string) ([]*models.ReviewRecord, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	records, exists := c.records[userID]
	return records, exists
}

func (c *Cache) Invalidate(userID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.records, userID)
}
