package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aretw0/bookclub/pkg/domain"
	"github.com/google/uuid"
	backend "github.com/redis/go-redis/v9"
)

// DefaultRecordPrefix namespaces candidate records.
const DefaultRecordPrefix = "bookclub:record:"

// RecordStore implements ports.RecordStore with one JSON string per record and
// a sorted set ordered by creation time.
type RecordStore struct {
	client *backend.Client
	prefix string
	now    func() time.Time
}

// NewRecordStore creates a record store. An empty prefix uses DefaultRecordPrefix.
func NewRecordStore(client *backend.Client, prefix string) *RecordStore {
	if prefix == "" {
		prefix = DefaultRecordPrefix
	}
	return &RecordStore{client: client, prefix: prefix, now: time.Now}
}

func (s *RecordStore) key(id string) string {
	return s.prefix + id
}

func (s *RecordStore) indexKey() string {
	return s.prefix + "index"
}

// Insert stores the record under a fresh ID.
func (s *RecordStore) Insert(ctx context.Context, record domain.AnswerRecord) error {
	stored := domain.StoredRecord{
		ID:           uuid.NewString(),
		CreatedAt:    s.now().UTC(),
		AnswerRecord: record,
	}
	data, err := json.Marshal(stored)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe backend.Pipeliner) error {
		pipe.Set(ctx, s.key(stored.ID), data, 0)
		pipe.ZAdd(ctx, s.indexKey(), backend.Z{
			Score:  float64(stored.CreatedAt.UnixMicro()),
			Member: stored.ID,
		})
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to insert record: %w", err)
	}
	return nil
}

// List returns every record, newest first.
func (s *RecordStore) List(ctx context.Context) ([]domain.StoredRecord, error) {
	ids, err := s.client.ZRevRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}
	if len(ids) == 0 {
		return []domain.StoredRecord{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.key(id)
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load records: %w", err)
	}

	out := make([]domain.StoredRecord, 0, len(values))
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			// Index entry without a body; skip it.
			continue
		}
		var rec domain.StoredRecord
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			return nil, fmt.Errorf("failed to unmarshal record %s: %w", ids[i], err)
		}
		out = append(out, rec)
	}
	return out, nil
}

// Delete removes one record.
func (s *RecordStore) Delete(ctx context.Context, id string) error {
	var del *backend.IntCmd
	_, err := s.client.TxPipelined(ctx, func(pipe backend.Pipeliner) error {
		del = pipe.Del(ctx, s.key(id))
		pipe.ZRem(ctx, s.indexKey(), id)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete record: %w", err)
	}
	if del.Val() == 0 {
		return fmt.Errorf("%w: %s", domain.ErrRecordNotFound, id)
	}
	return nil
}
