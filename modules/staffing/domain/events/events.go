// Package events lists what the staffing services publish on the event bus.
// Subscribers receive pointers to these structs.
package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/iota-uz/staffing/pkg/versioned"
)

const (
	EntityEmployee              = "employee"
	EntityProject               = "project"
	EntityProjectActivity       = "project_activity"
	EntityOffer                 = "offer"
	EntityShownProperty         = "shown_employee_property"
	EntityDocumentConfiguration = "document_configuration"
)

// UpsertedEvent follows a successful write. Outcome is Inserted or Updated.
type UpsertedEvent struct {
	EntityType string
	EntityID   uuid.UUID
	Outcome    versioned.Outcome
	Version    versioned.Token
	OccurredAt time.Time
}

// DeletedEvent follows a delete that found its row. Touched counts the other
// rows whose version was bumped.
type DeletedEvent struct {
	EntityType string
	EntityID   uuid.UUID
	Touched    int
	OccurredAt time.Time
}

// ConflictEvent is published when a write lost against a concurrent one. It
// is informational; nothing is retried.
type ConflictEvent struct {
	EntityType string
	EntityID   uuid.UUID
	Stale      versioned.Token
	OccurredAt time.Time
}

// RejectedEvent is published when input failed validation or uniqueness.
type RejectedEvent struct {
	EntityType string
	EntityID   uuid.UUID
	Reason     error
	OccurredAt time.Time
}
