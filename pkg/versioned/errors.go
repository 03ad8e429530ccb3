package versioned

import (
	"fmt"

	"github.com/go-faster/errors"
)

var (
	ErrConflict    = errors.New("versioned: version conflict")
	ErrRejected    = errors.New("versioned: rejected")
	ErrUnknownKind = errors.New("versioned: unknown kind")
	ErrNameTaken   = errors.New("versioned: name already taken")
	ErrInvalid     = errors.New("versioned: invalid descriptor")

	// ErrDuplicate is wrapped by a Backend write refused by a unique
	// constraint other than the primary key.
	ErrDuplicate = errors.New("versioned: duplicate value")

	// ErrForeignChild rejects a child listed under an owner it does not belong to.
	ErrForeignChild = errors.New("versioned: child belongs to another owner")
)

func invalid(msg string, args ...any) error {
	return fmt.Errorf("%w: "+msg, append([]any{ErrInvalid}, args...)...)
}

func unknownKind(name string) error {
	return fmt.Errorf("%w: %q", ErrUnknownKind, name)
}
