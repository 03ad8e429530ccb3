// Package shownproperty describes which parts of an employee's profile an
// offer presents to the client.
package shownproperty

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/iota-uz/staffing/modules/staffing/domain/taxonomy"
	"github.com/iota-uz/staffing/pkg/versioned"
)

var ErrShownPropertyNotFound = errors.New("shown employee property not found")

// ShownEmployeeProperty belongs to one offer and is deleted with it or with
// its employee.
type ShownEmployeeProperty struct {
	ID         uuid.UUID       `json:"id"`
	Version    versioned.Token `json:"version"`
	OfferID    uuid.UUID       `json:"offer_id"`
	EmployeeID uuid.UUID       `json:"employee_id"`
	Headline   string          `json:"headline"`

	Fields     []taxonomy.Ref        `json:"fields"`
	Roles      []taxonomy.Ref        `json:"roles"`
	SoftSkills []taxonomy.Ref        `json:"soft_skills"`
	Projects   []taxonomy.Ref        `json:"projects"`
	HardSkills []taxonomy.LeveledRef `json:"hard_skills"`
	Languages  []taxonomy.LeveledRef `json:"languages"`
}

func New(offerID, employeeID uuid.UUID) ShownEmployeeProperty {
	return ShownEmployeeProperty{ID: uuid.New(), OfferID: offerID, EmployeeID: employeeID}
}

type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (ShownEmployeeProperty, error)
	GetAll(ctx context.Context) ([]ShownEmployeeProperty, error)
	GetByOffer(ctx context.Context, offerID uuid.UUID) ([]ShownEmployeeProperty, error)
	// Upsert writes the property and touches its offer; Result.ParentVersion
	// is the offer's new version.
	Upsert(ctx context.Context, p ShownEmployeeProperty) (versioned.Result, error)
	// Delete removes the property; DeleteResult.ParentVersion is the offer's
	// new version.
	Delete(ctx context.Context, id uuid.UUID) (versioned.DeleteResult, error)
}
