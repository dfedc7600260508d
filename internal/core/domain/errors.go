package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotSignaling      = errors.New("payload is not a voice signaling message")
	ErrInvalidPayload    = errors.New("invalid signaling payload")
	ErrProtocolViolation = errors.New("protocol violation")
	ErrStaleOperation    = errors.New("stale operation")
)

type TransportErrorKind string

const (
	TransportRegistration TransportErrorKind = "registration"
	TransportConnect      TransportErrorKind = "connect"
)

// TransportError is a failure reported by the signaling transport.
type TransportError struct {
	Kind    TransportErrorKind
	Code    int
	Message string
}

func NewRegistrationError(code int, message string) *TransportError {
	return &TransportError{Kind: TransportRegistration, Code: code, Message: message}
}

func NewConnectError(code int, message string) *TransportError {
	return &TransportError{Kind: TransportConnect, Code: code, Message: message}
}

func (e *TransportError) Error() string {
	if e.Kind == TransportRegistration {
		return fmt.Sprintf("Registration Error: %d, %s", e.Code, e.Message)
	}
	return fmt.Sprintf("Call Error: %d, %s", e.Code, e.Message)
}

func (e *TransportError) Info() *ErrorInfo {
	return &ErrorInfo{Code: e.Code, Message: e.Error()}
}

// AsTransportError turns any transport failure into a TransportError of kind,
// keeping code and message when err already is one.
func AsTransportError(kind TransportErrorKind, err error) *TransportError {
	var te *TransportError
	if errors.As(err, &te) {
		return &TransportError{Kind: kind, Code: te.Code, Message: te.Message}
	}
	return &TransportError{Kind: kind, Message: err.Error()}
}

var ErrSessionActive = errors.New("a call session is already active")
