package taxonomy

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/iota-uz/staffing/pkg/versioned"
)

var ErrItemNotFound = errors.New("taxonomy item not found")

type Repository interface {
	GetByID(ctx context.Context, kind Kind, id uuid.UUID) (Item, error)
	GetAll(ctx context.Context, kind Kind) ([]Item, error)
	Upsert(ctx context.Context, item Item) (versioned.Result, error)
	Delete(ctx context.Context, kind Kind, id uuid.UUID) (versioned.DeleteResult, error)
}
