package ports

import (
	"context"

	"github.com/aretw0/bookclub/pkg/domain"
)

// Inserter is the submission collaborator.
// The flow calls it exactly once per successful completion with the full record.
// The store assigns the identifier and creation timestamp.
type Inserter interface {
	Insert(ctx context.Context, record domain.AnswerRecord) error
}

// Lister returns stored records ordered by creation time, newest first.
type Lister interface {
	List(ctx context.Context) ([]domain.StoredRecord, error)
}

// Deleter removes a stored record.
// Implementations return domain.ErrRecordNotFound when they can tell the ID is absent.
type Deleter interface {
	Delete(ctx context.Context, id string) error
}

// RecordStore is the full hosted-table surface.
type RecordStore interface {
	Inserter
	Lister
	Deleter
}
