package employeeform

import "errors"

var (
	ErrSubmitInFlight   = errors.New("a submission is already in progress")
	ErrAlreadySubmitted = errors.New("form was already saved; reset or reopen it to submit again")
	ErrClosed           = errors.New("form is closed")
	ErrUnknownField     = errors.New("unknown field")
	ErrInvalidValue     = errors.New("invalid field value")
	ErrUnknownPart      = errors.New("unknown location part")
	ErrNotSelectable    = errors.New("reference kind cannot be selected here")
	ErrEmployeeNotFound = errors.New("employee record has no id")
)

// FallbackFailureMessage is shown when a failed write carries no server message.
const FallbackFailureMessage = "Failed to save employee. Please try again."
