package project

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/iota-uz/staffing/pkg/versioned"
)

var (
	ErrProjectNotFound  = errors.New("project not found")
	ErrActivityNotFound = errors.New("project activity not found")
)

type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Project, error)
	GetAll(ctx context.Context) ([]*Project, error)
	Version(ctx context.Context, id uuid.UUID) (versioned.Token, error)
	Upsert(ctx context.Context, p *Project) (versioned.Result, error)
	Delete(ctx context.Context, id uuid.UUID) (versioned.DeleteResult, error)
	// DeleteActivity removes one activity and returns the project's new version.
	DeleteActivity(ctx context.Context, id uuid.UUID) (versioned.DeleteResult, error)
}
