package permission

import (
	"errors"
	"fmt"
)

// Reason is a stable, machine-readable code for a sandbox rejection.
type Reason string

const (
	ReasonCommandBlocked     Reason = "command_blocked"
	ReasonDomainBlocked      Reason = "domain_blocked"
	ReasonPathViolation      Reason = "path_violation"
	ReasonFileTypeNotAllowed Reason = "file_type_not_allowed"
	ReasonInvalidLineRange   Reason = "invalid_line_range"
)

// RejectedError is returned when an operation is refused before it has any
// side effect.
type RejectedError struct {
	Reason Reason
	Detail string
}

func (e *RejectedError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("rejected: %s", e.Reason)
	}
	return fmt.Sprintf("rejected: %s: %s", e.Reason, e.Detail)
}

// Message returns the human-readable text shown to users.
func (e *RejectedError) Message() string {
	switch e.Reason {
	case ReasonCommandBlocked:
		return "Command blocked for security reasons"
	case ReasonDomainBlocked:
		return "URL blocked for security reasons"
	case ReasonPathViolation:
		return "Path security violation"
	case ReasonFileTypeNotAllowed:
		return "File type not allowed"
	case ReasonInvalidLineRange:
		return "Invalid line numbers"
	}
	return e.Error()
}

// Reject builds a RejectedError.
func Reject(reason Reason, detail string) error {
	return &RejectedError{Reason: reason, Detail: detail}
}

// AsRejected extracts a RejectedError from err's chain.
func AsRejected(err error) (*RejectedError, bool) {
	var rej *RejectedError
	if errors.As(err, &rej) {
		return rej, true
	}
	return nil, false
}
