package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/aretw0/bookclub/pkg/domain"
	"github.com/google/uuid"
)

// RecordStore implements ports.RecordStore in memory.
type RecordStore struct {
	mu      sync.RWMutex
	records map[string]domain.StoredRecord
	now     func() time.Time
}

// NewRecordStore creates an empty table.
func NewRecordStore() *RecordStore {
	return &RecordStore{
		records: make(map[string]domain.StoredRecord),
		now:     time.Now,
	}
}

// Insert assigns an ID and a creation time to the record.
func (s *RecordStore) Insert(ctx context.Context, record domain.AnswerRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.NewString()
	s.records[id] = domain.StoredRecord{
		ID:           id,
		CreatedAt:    s.now().UTC(),
		AnswerRecord: record,
	}
	return nil
}

// List returns every record, newest first.
func (s *RecordStore) List(ctx context.Context) ([]domain.StoredRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.StoredRecord, 0, len(s.records))
	for _, r := range s.records {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// Delete removes one record.
func (s *RecordStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[id]; !ok {
		return fmt.Errorf("%w: %s", domain.ErrRecordNotFound, id)
	}
	delete(s.records, id)
	return nil
}
