package core

import (
	"errors"
	"fmt"
)

// Error kinds. Every specific error wraps exactly one kind so callers can
// classify with errors.Is and map to a transport status.
var (
	ErrValidation      = errors.New("validation error")
	ErrConflict        = errors.New("conflict")
	ErrNotFound        = errors.New("not found")
	ErrExternalService = errors.New("external service error")
)

var (
	ErrEmptyName          = fmt.Errorf("%w: empty name", ErrValidation)
	ErrNameTooLong        = fmt.Errorf("%w: name too long", ErrValidation)
	ErrInvalidMonth       = fmt.Errorf("%w: month out of range", ErrValidation)
	ErrInvalidAmount      = fmt.Errorf("%w: invalid amount", ErrValidation)
	ErrInvalidDate        = fmt.Errorf("%w: invalid date", ErrValidation)
	ErrEmptyDescription   = fmt.Errorf("%w: empty description", ErrValidation)
	ErrDescriptionTooLong = fmt.Errorf("%w: description too long", ErrValidation)
	ErrEmptyPattern       = fmt.Errorf("%w: empty pattern", ErrValidation)
	ErrInvalidDeleteMode  = fmt.Errorf("%w: invalid delete mode", ErrValidation)
	ErrUnknownCategory    = fmt.Errorf("%w: unknown category", ErrValidation)
	ErrUnknownLine        = fmt.Errorf("%w: unknown budget line", ErrValidation)

	ErrNameTaken        = fmt.Errorf("%w: name already in use", ErrConflict)
	ErrCategoryNotEmpty = fmt.Errorf("%w: category still has budget lines", ErrConflict)

	ErrLineNotFound        = fmt.Errorf("%w: budget line", ErrNotFound)
	ErrCategoryNotFound    = fmt.Errorf("%w: category", ErrNotFound)
	ErrTransactionNotFound = fmt.Errorf("%w: transaction", ErrNotFound)
	ErrRuleNotFound        = fmt.Errorf("%w: transaction rule", ErrNotFound)
)
