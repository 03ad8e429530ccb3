package versioned

import (
	"fmt"

	"github.com/google/uuid"
)

type Outcome int

const (
	// Inserted means no row existed and one was created.
	Inserted Outcome = iota + 1
	// Updated means the provided token matched and the row was rewritten.
	Updated
	// Conflict means the row changed since the caller read it. Re-read and decide.
	Conflict
	// Rejected means the input can never succeed as given. Nothing was written.
	Rejected
)

func (o Outcome) String() string {
	switch o {
	case Inserted:
		return "inserted"
	case Updated:
		return "updated"
	case Conflict:
		return "conflict"
	case Rejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// Succeeded reports whether the write happened.
func (o Outcome) Succeeded() bool {
	return o == Inserted || o == Updated
}

// Result of one upsert. Version is zero unless the write succeeded.
type Result struct {
	Outcome Outcome
	Version Token
	// Reason is set for Rejected.
	Reason error
	// Children holds the results of child-list upserts keyed by child id.
	Children map[uuid.UUID]Result
	// ParentVersion is the new token of the row's parent when a child written
	// on its own touched it.
	ParentVersion Token
}

func conflict() Result {
	return Result{Outcome: Conflict}
}

func rejected(reason error) Result {
	return Result{Outcome: Rejected, Reason: reason}
}

// Err converts a non-successful outcome into an error wrapping ErrConflict or
// ErrRejected. It returns nil for Inserted and Updated.
func (r Result) Err() error {
	switch r.Outcome {
	case Inserted, Updated:
		return nil
	case Conflict:
		return ErrConflict
	case Rejected:
		if r.Reason == nil {
			return ErrRejected
		}
		return fmt.Errorf("%w: %w", ErrRejected, r.Reason)
	default:
		return fmt.Errorf("versioned: unexpected outcome %d", int(r.Outcome))
	}
}

// DeleteResult reports what a delete did. ParentVersion is the new token of
// the deleted row's parent when it has one, so callers holding the parent can
// keep their copy current.
type DeleteResult struct {
	Found         bool
	ParentVersion Token
	Touched       int
}
