package postgrest

import (
	"context"
	"fmt"
	"time"

	pgrest "github.com/supabase-community/postgrest-go"

	"github.com/aretw0/bookclub/pkg/domain"
)

// RecordStore implements ports.RecordStore over the PostgREST table endpoint.
type RecordStore struct {
	client *Client
}

// NewRecordStore wraps a client.
func NewRecordStore(client *Client) *RecordStore {
	return &RecordStore{client: client}
}

func (s *RecordStore) from(ctx context.Context) (*pgrest.QueryBuilder, error) {
	rest := s.client.rest(ctx)
	if rest.ClientError != nil {
		return nil, fmt.Errorf("invalid backend url: %w", rest.ClientError)
	}
	return rest.From(s.client.table), nil
}

// Insert adds one row. The backend assigns id and created_at.
func (s *RecordStore) Insert(ctx context.Context, record domain.AnswerRecord) error {
	q, err := s.from(ctx)
	if err != nil {
		return err
	}
	if _, _, err := q.Insert([]domain.AnswerRecord{record}, false, "", "minimal", "").Execute(); err != nil {
		return fmt.Errorf("failed to insert candidate: %w", err)
	}
	return nil
}

// List returns every row, newest first.
func (s *RecordStore) List(ctx context.Context) ([]domain.StoredRecord, error) {
	q, err := s.from(ctx)
	if err != nil {
		return nil, err
	}
	var rows []map[string]any
	_, err = q.Select("*", "", false).
		Order("created_at", &pgrest.OrderOpts{Ascending: false}).
		ExecuteTo(&rows)
	if err != nil {
		return nil, fmt.Errorf("failed to list candidates: %w", err)
	}

	out := make([]domain.StoredRecord, 0, len(rows))
	for _, row := range rows {
		rec, err := decodeRow(row)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// decodeRow tolerates column types chosen by the table owner: numeric ids and
// ages are turned into strings.
func decodeRow(row map[string]any) (domain.StoredRecord, error) {
	answers, err := domain.AnswerRecordFromMap(row)
	if err != nil {
		return domain.StoredRecord{}, fmt.Errorf("failed to decode candidate row: %w", err)
	}
	rec := domain.StoredRecord{AnswerRecord: answers}
	if id, ok := row["id"]; ok && id != nil {
		rec.ID = formatID(id)
	}
	if ts, ok := row["created_at"].(string); ok {
		created, err := time.Parse(time.RFC3339Nano, ts)
		if err != nil {
			return domain.StoredRecord{}, fmt.Errorf("failed to parse created_at %q: %w", ts, err)
		}
		rec.CreatedAt = created
	}
	return rec, nil
}

// formatID prints serial ids without an exponent.
func formatID(id any) string {
	if f, ok := id.(float64); ok && f == float64(int64(f)) {
		return fmt.Sprintf("%d", int64(f))
	}
	return fmt.Sprint(id)
}

// Delete removes the row with the given id. The deleted rows are asked back so
// a missing id can be told apart.
func (s *RecordStore) Delete(ctx context.Context, id string) error {
	q, err := s.from(ctx)
	if err != nil {
		return err
	}
	var deleted []map[string]any
	if _, err := q.Delete("representation", "").Eq("id", id).ExecuteTo(&deleted); err != nil {
		return fmt.Errorf("failed to delete candidate: %w", err)
	}
	if len(deleted) == 0 {
		return fmt.Errorf("%w: %s", domain.ErrRecordNotFound, id)
	}
	return nil
}
