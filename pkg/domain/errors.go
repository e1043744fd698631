package domain

import "errors"

// ErrSessionNotFound is returned when a session ID cannot be found in the store.
var ErrSessionNotFound = errors.New("session not found")

// ErrRecordNotFound is returned when a stored record ID does not exist.
var ErrRecordNotFound = errors.New("record not found")

// ErrUnknownField is returned when a field name is not part of the answer record.
var ErrUnknownField = errors.New("unknown field")

// ErrNotReadyToSubmit is returned when Submit is called before the last question.
var ErrNotReadyToSubmit = errors.New("flow is not on the last question")

// ErrAlreadySubmitted is returned when a finished flow is asked to submit or edit again.
var ErrAlreadySubmitted = errors.New("flow already submitted")

// ErrUnauthorized is returned when an admin operation has no valid session.
var ErrUnauthorized = errors.New("unauthorized")

// ErrInvalidCredentials is returned when email or password do not match.
var ErrInvalidCredentials = errors.New("invalid login credentials")
