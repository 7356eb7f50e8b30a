package apperrors

import "fmt"

func InvalidTransition(op, phase string) *Error {
	return Newf(CodeInvalidTransition, "cannot %s while %s", op, phase).
		WithDetail("operation", op).
		WithDetail("phase", phase)
}

func NoActiveSession(op string) *Error {
	return Newf(CodeNoActiveSession, "cannot %s: no active session", op).
		WithDetail("operation", op)
}

func SessionNotFound(id string) *Error {
	return Newf(CodeSessionNotFound, "session %s not found", id).
		WithDetail("id", id)
}

func SessionStillOpen(id string) *Error {
	return Newf(CodeSessionStillOpen, "session %s is still open", id).
		WithDetail("id", id)
}

func InvalidRange(reason string) *Error {
	return New(CodeInvalidRange, fmt.Sprintf("invalid range: %s", reason))
}

func InvalidInput(reason string) *Error {
	return New(CodeInvalidInput, reason)
}

func PersistenceFailure(err error, pending int) *Error {
	return Wrap(err, CodePersistenceFailure, "could not save changes; they are kept in memory and will be retried").
		WithDetail("pending", pending)
}

func DataConsistency(reason string) *Error {
	return New(CodeDataConsistency, reason)
}

func ConfigInvalid(path string, err error) *Error {
	return Wrap(err, CodeConfigInvalid, fmt.Sprintf("invalid configuration in %s", path)).
		WithDetail("path", path)
}
