package mapping

import (
	"errors"
	"fmt"
)

// Error kinds. Callers branch on these with errors.Is, never on message text.
var (
	// ErrSave is returned when a save sequence fails or its identity precondition does not hold
	ErrSave = errors.New("save failed")

	// ErrUpdate is returned when a statement of an update sequence fails
	ErrUpdate = errors.New("update failed")

	// ErrDelete is returned when a delete sequence fails, integrity statements included
	ErrDelete = errors.New("delete failed")

	// ErrNotFound is returned when the requested id does not exist
	ErrNotFound = errors.New("entity not found")

	// ErrKeyGeneration is returned when an insert succeeded but no generated id could be read
	ErrKeyGeneration = errors.New("generated key unavailable")

	// ErrDecode is returned when a stored value cannot be mapped back to a domain value
	ErrDecode = errors.New("decode failed")

	// ErrQuery is returned when a read statement fails
	ErrQuery = errors.New("query failed")
)

// Causes attached to ErrSave, ErrUpdate and ErrDelete.
var (
	ErrIdentityAssigned = errors.New("identity must be 0 on save")
	ErrNilEntity        = errors.New("entity cannot be nil")
)

// Error is the typed failure surfaced by the mapping layer.
type Error struct {
	Kind   error
	Entity string
	ID     int64
	Err    error
}

func (e *Error) Error() string {
	msg := e.Kind.Error()
	if e.Entity != "" {
		msg = e.Entity + ": " + msg
	}
	if e.ID != 0 {
		msg = fmt.Sprintf("%s (id=%d)", msg, e.ID)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Wrap attaches kind to err unless err already carries a kind, in which case
// it is returned unchanged.
func Wrap(kind error, entity string, id int64, err error) error {
	if err == nil {
		return nil
	}
	var typed *Error
	if errors.As(err, &typed) {
		return err
	}
	return &Error{Kind: kind, Entity: entity, ID: id, Err: err}
}

// NotFound builds the error for a missing id.
func NotFound(entity string, id int64) error {
	return &Error{Kind: ErrNotFound, Entity: entity, ID: id}
}

// KindOf returns the kind carried by err, or nil for untyped errors.
func KindOf(err error) error {
	var typed *Error
	if errors.As(err, &typed) {
		return typed.Kind
	}
	return nil
}

// KindName returns a short stable label for the kind carried by err.
func KindName(err error) string {
	switch KindOf(err) {
	case ErrSave:
		return "save"
	case ErrUpdate:
		return "update"
	case ErrDelete:
		return "delete"
	case ErrNotFound:
		return "not_found"
	case ErrKeyGeneration:
		return "key_generation"
	case ErrDecode:
		return "decode"
	case ErrQuery:
		return "query"
	default:
		return "unknown"
	}
}

// IsNotFound checks if an error is ErrNotFound
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsSave checks if an error is ErrSave
func IsSave(err error) bool {
	return errors.Is(err, ErrSave)
}

// IsUpdate checks if an error is ErrUpdate
func IsUpdate(err error) bool {
	return errors.Is(err, ErrUpdate)
}

// IsDelete checks if an error is ErrDelete
func IsDelete(err error) bool {
	return errors.Is(err, ErrDelete)
}

// IsKeyGeneration checks if an error is ErrKeyGeneration
func IsKeyGeneration(err error) bool {
	return errors.Is(err, ErrKeyGeneration)
}

// IsDecode checks if an error is ErrDecode
func IsDecode(err error) bool {
	return errors.Is(err, ErrDecode)
}
