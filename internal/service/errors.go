package service

import "errors"

// ErrorKind is the stable error taxonomy every callable operation maps to an
// HTTP status with. It replaces a flat list of ad-hoc sentinel errors with a
// single tagged type so the handler layer has one place to translate errors.
type ErrorKind string

const (
	KindUnauthenticated ErrorKind = "unauthenticated"
	KindInvalidArgument ErrorKind = "invalid_argument"
	KindNotFound        ErrorKind = "not_found"
	KindForbidden       ErrorKind = "forbidden"
	KindServiceDisabled ErrorKind = "service_disabled"
	KindInternal        ErrorKind = "internal"
)

// Error is the single error type every service method returns. CurrentState
// is populated for forbidden transitions so a double-accept or stale-cancel
// caller can see what state the trip is actually in and converge.
type Error struct {
	Kind         ErrorKind
	Message      string
	CurrentState string
}

func (e *Error) Error() string {
	return e.Message
}

// NewError builds a tagged error with no state detail.
func NewError(kind ErrorKind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Forbidden builds a forbidden error carrying the trip's current state, the
// mechanism double-accept and stale-transition races are resolved by.
func Forbidden(message, currentState string) *Error {
	return &Error{Kind: KindForbidden, Message: message, CurrentState: currentState}
}

// KindOf extracts the Kind of a tagged error, defaulting to internal for any
// error that didn't originate in this package (e.g. a raw driver error).
func KindOf(err error) ErrorKind {
	var svcErr *Error
	if errors.As(err, &svcErr) {
		return svcErr.Kind
	}
	return KindInternal
}

// Is lets callers use errors.Is(err, service.ErrX) against the sentinel
// instances below; two *Error values compare equal by Kind+Message.
func (e *Error) Is(target error) bool {
	other, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == other.Kind && e.Message == other.Message
}

var (
	ErrUnauthenticated     = NewError(KindUnauthenticated, "authentication required")
	ErrInvalidArgument     = NewError(KindInvalidArgument, "invalid argument")
	ErrNotFound            = NewError(KindNotFound, "entity not found")
	ErrServiceDisabled     = NewError(KindServiceDisabled, "trips are currently disabled")
	ErrPaymentsDisabled    = NewError(KindServiceDisabled, "payments are currently disabled")
	ErrDriverAlreadyActive = NewError(KindInvalidArgument, "driver already has an active trip")
	ErrPassengerAlreadyActive = NewError(KindInvalidArgument, "passenger already has an active trip")
	ErrAlreadyPaid         = NewError(KindForbidden, "trip already paid")
	ErrTripNotCompleted    = NewError(KindForbidden, "trip is not completed")
)
