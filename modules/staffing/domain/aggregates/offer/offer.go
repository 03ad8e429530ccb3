// Package offer is the client offer aggregate. An offer owns the shown
// employee properties presented with it.
package offer

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/iota-uz/staffing/modules/staffing/domain/entities/shownproperty"
	"github.com/iota-uz/staffing/pkg/versioned"
)

var ErrOfferNotFound = errors.New("offer not found")

type Status string

const (
	StatusDraft    Status = "draft"
	StatusSent     Status = "sent"
	StatusAccepted Status = "accepted"
	StatusRejected Status = "rejected"
)

func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusSent, StatusAccepted, StatusRejected:
		return true
	}
	return false
}

type Offer struct {
	ID      uuid.UUID       `json:"id"`
	Version versioned.Token `json:"version"`

	Title       string              `json:"title"`
	Client      string              `json:"client"`
	Description string              `json:"description"`
	Status      Status              `json:"status"`
	DailyRate   decimal.NullDecimal `json:"daily_rate"`
	ValidUntil  *time.Time          `json:"valid_until,omitempty"`

	// Properties is the complete list of shown employees.
	Properties []shownproperty.ShownEmployeeProperty `json:"properties"`
}

func New(title, client string) *Offer {
	return &Offer{ID: uuid.New(), Title: title, Client: client, Status: StatusDraft}
}

// Show adds a shown property for the employee unless one exists and returns it.
func (o *Offer) Show(employeeID uuid.UUID) *shownproperty.ShownEmployeeProperty {
	for i := range o.Properties {
		if o.Properties[i].EmployeeID == employeeID {
			return &o.Properties[i]
		}
	}
	o.Properties = append(o.Properties, shownproperty.New(o.ID, employeeID))
	return &o.Properties[len(o.Properties)-1]
}

func (o *Offer) Hide(employeeID uuid.UUID) bool {
	for i, p := range o.Properties {
		if p.EmployeeID == employeeID {
			o.Properties = append(o.Properties[:i], o.Properties[i+1:]...)
			return true
		}
	}
	return false
}

// Expired reports whether the offer's validity ended before now.
func (o *Offer) Expired(now time.Time) bool {
	return o.ValidUntil != nil && o.ValidUntil.Before(now)
}

type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Offer, error)
	GetAll(ctx context.Context) ([]*Offer, error)
	Version(ctx context.Context, id uuid.UUID) (versioned.Token, error)
	Upsert(ctx context.Context, o *Offer) (versioned.Result, error)
	Delete(ctx context.Context, id uuid.UUID) (versioned.DeleteResult, error)
}
