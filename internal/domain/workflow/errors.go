package workflow

import "errors"

var (
	ErrInvalidState = errors.New("invalid state")
	ErrForbidden    = errors.New("forbidden")
	ErrNoteRequired = errors.New("rejection note required")
	ErrStaleState   = errors.New("record changed by another request")
	ErrSelfReview   = errors.New("cannot review own request")
	ErrNotOwner     = errors.New("only the owner may do this")
)
