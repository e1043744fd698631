// Package firebase stores candidate records in a Firebase Realtime Database.
package firebase

import (
	"context"
	"fmt"
	"sort"
	"time"

	fb "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/db"
	"google.golang.org/api/option"

	"github.com/aretw0/bookclub/pkg/domain"
)

// DefaultPath is the database node holding candidate records.
const DefaultPath = "candidates"

// Tree is the part of the Realtime Database API the store uses.
type Tree interface {
	Push(ctx context.Context, path string, v any) (string, error)
	Get(ctx context.Context, path string, v any) error
	Delete(ctx context.Context, path string) error
}

type dbTree struct {
	client *db.Client
}

func (t dbTree) Push(ctx context.Context, path string, v any) (string, error) {
	ref, err := t.client.NewRef(path).Push(ctx, v)
	if err != nil {
		return "", err
	}
	return ref.Key, nil
}

func (t dbTree) Get(ctx context.Context, path string, v any) error {
	return t.client.NewRef(path).Get(ctx, v)
}

func (t dbTree) Delete(ctx context.Context, path string) error {
	return t.client.NewRef(path).Delete(ctx)
}

// Connect initializes the Firebase app from a service account file and
// returns a store on the given database.
func Connect(ctx context.Context, credentialsFile, databaseURL, path string) (*RecordStore, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	app, err := fb.NewApp(ctx, &fb.Config{DatabaseURL: databaseURL}, opts...)
	if err != nil {
		return nil, fmt.Errorf("error initializing Firebase app: %w", err)
	}
	client, err := app.Database(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting database client: %w", err)
	}
	return NewRecordStore(dbTree{client: client}, path), nil
}

// node is the stored shape: the answers plus a sortable creation time.
type node struct {
	domain.AnswerRecord
	CreatedAt   string `json:"created_at"`
	CreatedAtUS int64  `json:"created_at_us"`
}

// RecordStore implements ports.RecordStore on a database node.
type RecordStore struct {
	tree Tree
	path string
	now  func() time.Time
}

// NewRecordStore uses tree under path. An empty path uses DefaultPath.
func NewRecordStore(tree Tree, path string) *RecordStore {
	if path == "" {
		path = DefaultPath
	}
	return &RecordStore{tree: tree, path: path, now: time.Now}
}

// Insert pushes a child; the push key becomes the record ID.
func (s *RecordStore) Insert(ctx context.Context, record domain.AnswerRecord) error {
	now := s.now().UTC()
	_, err := s.tree.Push(ctx, s.path, node{
		AnswerRecord: record,
		CreatedAt:    now.Format(time.RFC3339Nano),
		CreatedAtUS:  now.UnixMicro(),
	})
	if err != nil {
		return fmt.Errorf("error creating candidate: %w", err)
	}
	return nil
}

// List reads the whole node and orders it newest first.
func (s *RecordStore) List(ctx context.Context) ([]domain.StoredRecord, error) {
	var nodes map[string]node
	if err := s.tree.Get(ctx, s.path, &nodes); err != nil {
		return nil, fmt.Errorf("error listing candidates: %w", err)
	}

	type keyed struct {
		rec domain.StoredRecord
		us  int64
	}
	list := make([]keyed, 0, len(nodes))
	for key, n := range nodes {
		rec := domain.StoredRecord{ID: key, AnswerRecord: n.AnswerRecord}
		if n.CreatedAtUS != 0 {
			rec.CreatedAt = time.UnixMicro(n.CreatedAtUS).UTC()
		} else if t, err := time.Parse(time.RFC3339Nano, n.CreatedAt); err == nil {
			rec.CreatedAt = t
		}
		list = append(list, keyed{rec: rec, us: rec.CreatedAt.UnixMicro()})
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].us == list[j].us {
			// Push keys are chronological.
			return list[i].rec.ID > list[j].rec.ID
		}
		return list[i].us > list[j].us
	})

	out := make([]domain.StoredRecord, len(list))
	for i, k := range list {
		out[i] = k.rec
	}
	return out, nil
}

// Delete removes one child.
func (s *RecordStore) Delete(ctx context.Context, id string) error {
	child := s.path + "/" + id
	var existing map[string]any
	if err := s.tree.Get(ctx, child, &existing); err != nil {
		return fmt.Errorf("error reading candidate: %w", err)
	}
	if existing == nil {
		return fmt.Errorf("%w: %s", domain.ErrRecordNotFound, id)
	}
	if err := s.tree.Delete(ctx, child); err != nil {
		return fmt.Errorf("error deleting candidate: %w", err)
	}
	return nil
}
