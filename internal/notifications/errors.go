package notifications

import (
	"fmt"
)

// Kind classifies a failed notification so the HTTP layer can pick the
// response status and log verbosity without inspecting causes again.
type Kind int

const (
	// malformed inbound payload
	KindInput Kind = iota
	// API key mismatch or missing merchant token
	KindAuth
	// transaction or application lookup miss
	KindNotFound
	// an external call completed but was refused
	KindConflict
	// network failure or unexpected external behavior
	KindTransport
)

func (k Kind) String() string {
	switch k {
	case KindInput:
		return "input"
	case KindAuth:
		return "auth"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	default:
		return "transport"
	}
}

// Error is the tagged failure returned by ProcessNotification.
type Error struct {
	Kind            Kind
	StoreID         string
	TransactionCode string
	// failing external endpoint, empty for local failures
	Endpoint string
	// response status of the failing call, 0 when none was received
	StatusCode int
	Message    string
	Err        error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}
