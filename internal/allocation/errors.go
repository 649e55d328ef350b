package allocation

import (
	"errors"

	pkgerrors "github.com/genericsdirect/dealtracker/pkg/errors"
)

var (
	// ErrNotFound marks an unknown line item or bucket.
	ErrNotFound = errors.New("allocation: not found")
	// ErrConflict marks a move whose stated source is not the item's bucket.
	ErrConflict = errors.New("allocation: stale source bucket")
	// ErrInvalidState marks use before Initialize or a second Initialize.
	ErrInvalidState = errors.New("allocation: invalid state")
)

func notFound(message string, details map[string]any) error {
	return pkgerrors.Wrap(pkgerrors.CodeNotFound, ErrNotFound, message).WithDetails(details)
}

func conflict(message string, details map[string]any) error {
	return pkgerrors.Wrap(pkgerrors.CodeConflict, ErrConflict, message).WithDetails(details)
}

func invalidState(message string) error {
	return pkgerrors.Wrap(pkgerrors.CodeStateConflict, ErrInvalidState, message)
}
