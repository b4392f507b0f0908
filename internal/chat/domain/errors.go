package domain

import "errors"

var (
	// ErrNotFound conversation / message does not exist
	ErrNotFound = errors.New("not found")
	// ErrForbidden actor not allowed to perform the action
	ErrForbidden = errors.New("forbidden")
	// ErrWrongType respond called on a message that is not an offer
	ErrWrongType = errors.New("message is not an offer")
	// ErrStaleState conditional write lost, the offer was already answered
	ErrStaleState = errors.New("offer is no longer pending")
	// ErrStoreUnavailable infrastructure failure, caller decides on retry
	ErrStoreUnavailable = errors.New("store unavailable")
	// ErrInvalidArgument malformed input
	ErrInvalidArgument = errors.New("invalid argument")
)
