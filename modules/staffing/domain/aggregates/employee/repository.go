package employee

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/iota-uz/staffing/pkg/versioned"
)

var ErrEmployeeNotFound = errors.New("employee not found")

type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Employee, error)
	GetAll(ctx context.Context) ([]*Employee, error)
	Version(ctx context.Context, id uuid.UUID) (versioned.Token, error)
	Upsert(ctx context.Context, e *Employee) (versioned.Result, error)
	Delete(ctx context.Context, id uuid.UUID) (versioned.DeleteResult, error)
}
