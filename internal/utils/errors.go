package utils

import (
	"errors"
	"net/http"
)

/*
Sentinel errors for the negotiation-engine domain logic.
Controllers can do: if errors.Is(err, ErrXYZ) { ... }
*/
var (
	// ErrNotFound covers both a missing entity and a caller who is not
	// allowed to see it. The two are deliberately indistinguishable so a
	// response never leaks whether an id exists.
	ErrNotFound = errors.New("not_found")

	// ErrInvalidTransition is a state-machine violation: acting on a
	// terminal offer, acting out of turn, deciding a non-pending request.
	ErrInvalidTransition = errors.New("invalid_transition")

	// ErrConflict is a duplicate submission: a second waitlist request for
	// the same property, or a second live offer on the same property.
	ErrConflict = errors.New("conflict")

	// ErrNotAuthorized is an action-level authorization failure where the
	// target's existence is already public (e.g. an offer on a listed
	// property from a buyer who was never accepted off the waitlist).
	ErrNotAuthorized = errors.New("not_authorized")

	ErrValidation = errors.New("validation_error")

	// For concurrency conflicts between repo and service layers.
	ErrRowVersionConflict = errors.New("row_version_conflict")

	ErrNoRowsUpdated = errors.New("no_rows_updated")

	// ErrUnavailable signals a transient store failure; safe to retry.
	ErrUnavailable = errors.New("unavailable")
)

// ValidationError wraps ErrValidation with a caller-facing message.
func ValidationError(msg string) error {
	return &AppError{
		StatusCode: http.StatusBadRequest,
		Code:       ErrCodeValidation,
		Message:    msg,
		Err:        ErrValidation,
	}
}

// AppError for structured error handling from services to controllers.
type AppError struct {
	StatusCode int
	Code       string
	Message    string
	Err        error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// HandleAppError centralizes responding to AppErrors and the sentinel
// domain errors above.
func HandleAppError(w http.ResponseWriter, err error) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		RespondErrorWithCode(w, appErr.StatusCode, appErr.Code, appErr.Message, nil, appErr.Err)
		return
	}

	switch {
	case errors.Is(err, ErrNotFound):
		RespondErrorWithCode(w, http.StatusNotFound, ErrCodeNotFound, "Not found", nil, nil)
	case errors.Is(err, ErrInvalidTransition):
		RespondErrorWithCode(w, http.StatusConflict, ErrCodeInvalidTransition,
			"This negotiation is no longer awaiting your response", nil, nil)
	case errors.Is(err, ErrConflict):
		RespondErrorWithCode(w, http.StatusConflict, ErrCodeConflict,
			"You have already submitted this request", nil, nil)
	case errors.Is(err, ErrNotAuthorized):
		RespondErrorWithCode(w, http.StatusForbidden, ErrCodeUnauthorized,
			"You are not allowed to perform this action", nil, nil)
	case errors.Is(err, ErrValidation):
		RespondErrorWithCode(w, http.StatusBadRequest, ErrCodeValidation, err.Error(), nil, nil)
	case errors.Is(err, ErrUnavailable):
		RespondErrorWithCode(w, http.StatusServiceUnavailable, ErrCodeUnavailable,
			"Temporarily unavailable, please retry", nil, err)
	default:
		RespondErrorWithCode(w, http.StatusInternalServerError, ErrCodeInternal,
			"An unexpected error occurred", nil, err)
	}
}
