package flow

import "errors"

// ErrSubmissionInFlight is returned by Submit while an earlier submission of
// the same session has not resolved. The second call does not reach the
// collaborator.
var ErrSubmissionInFlight = errors.New("submission already in flight")

// ErrSubmissionFailed wraps the collaborator error of a rejected submission.
var ErrSubmissionFailed = errors.New("submission failed")
