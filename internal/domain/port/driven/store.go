package driven

import (
	"context"
	"errors"

	"github.com/githarvest/githarvest/internal/domain/model"
)

// ErrNotFound is returned by FindOne when no document matches the filter.
var ErrNotFound = errors.New("document not found")

// Filter selects documents in the flat entity collection. Zero-valued fields
// are not part of the match.
type Filter struct {
	ID           string
	ObjectType   model.ObjectType
	RepositoryID string
	Owner        string
	Name         string
}

// DocumentStore is the driven port for entity persistence. It exposes plain
// find/insert/update/count primitives and carries no business logic; the
// completion oracle derives all pipeline state from what these return.
type DocumentStore interface {
	FindOne(ctx context.Context, f Filter) (*model.Document, error)
	Find(ctx context.Context, f Filter) ([]model.Document, error)
	InsertOne(ctx context.Context, doc *model.Document) error
	UpdateOne(ctx context.Context, f Filter, u model.Update) error
	Count(ctx context.Context, f Filter) (int64, error)
}
