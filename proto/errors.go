package proto

import (
	"errors"
	"fmt"
)

// Error types for Sonic channel operations.
// Every failure surfaced by this module is one of the types below, so callers
// can tell a broken stream from a server refusal with errors.As or KindOf.

// ErrorKind is the closed set of failure categories.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindConnection
	KindProtocol
	KindAuthentication
	KindWrongResponse
	KindEncoding
	KindRemote
)

func (k ErrorKind) String() string {
	switch k {
	case KindConnection:
		return "connection"
	case KindProtocol:
		return "protocol"
	case KindAuthentication:
		return "authentication"
	case KindWrongResponse:
		return "wrong response"
	case KindEncoding:
		return "encoding"
	case KindRemote:
		return "remote"
	default:
		return "unknown"
	}
}

// ConnectionError wraps transport failures: dial, read, write, and deadline
// expiry.
//
// Connection handling: connection is already broken, CLOSE it
type ConnectionError struct {
	Op  string // Operation that failed (dial, read, write, ...)
	Err error  // Underlying error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("sonic: connection error during %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for error chain inspection
func (e *ConnectionError) Unwrap() error {
	return e.Err
}

func (e *ConnectionError) ShouldCloseConnection() bool {
	return true
}

// ProtocolError reports a violation of framing or sequencing: unterminated
// line, oversized line, unknown reply while awaiting an event, mismatched
// event id. It means the peers speak different versions or the stream is
// corrupted. Never retry blindly.
//
// Connection handling: CLOSE connection
type ProtocolError struct {
	Message string
	Err     error // Underlying error, if any
}

func (e *ProtocolError) Error() string {
	if e.Err != nil {
		return "sonic: protocol error: " + e.Message + ": " + e.Err.Error()
	}
	return "sonic: protocol error: " + e.Message
}

func (e *ProtocolError) Unwrap() error {
	return e.Err
}

func (e *ProtocolError) ShouldCloseConnection() bool {
	return true
}

// AuthenticationError is returned when the server rejects START.
//
// Connection handling: the server drops the session, CLOSE connection
type AuthenticationError struct {
	Message string
}

func (e *AuthenticationError) Error() string {
	return "sonic: authentication failed: " + e.Message
}

func (e *AuthenticationError) ShouldCloseConnection() bool {
	return true
}

// WrongResponseError is a well-formed reply that the issuing command did not
// expect, such as OK in answer to PING.
//
// Connection handling: stream framing is intact, connection can be REUSED
type WrongResponseError struct {
	Command CmdType
	Line    string // Received line, terminator included
}

func (e *WrongResponseError) Error() string {
	return fmt.Sprintf("sonic: unexpected response to %s: %q", e.Command, e.Line)
}

func (e *WrongResponseError) ShouldCloseConnection() bool {
	return false
}

// EncodingError is returned before anything is written when an argument
// cannot be represented on the wire.
//
// Connection handling: nothing was sent, connection is still valid
type EncodingError struct {
	Message string
}

func (e *EncodingError) Error() string {
	return "sonic: encoding error: " + e.Message
}

func (e *EncodingError) ShouldCloseConnection() bool {
	return false
}

// RemoteError carries an ERR reply. Message is the server's text, verbatim.
//
// Connection handling: connection can be REUSED
type RemoteError struct {
	Message string
}

func (e *RemoteError) Error() string {
	return "sonic: server error: " + e.Message
}

func (e *RemoteError) ShouldCloseConnection() bool {
	return false
}

// ErrorWithConnectionState is implemented by all error types of this package.
type ErrorWithConnectionState interface {
	error
	ShouldCloseConnection() bool
}

// ShouldCloseConnection reports whether err leaves the connection unusable.
// Unknown error types are treated conservatively as fatal.
func ShouldCloseConnection(err error) bool {
	if err == nil {
		return false
	}

	var e ErrorWithConnectionState
	if errors.As(err, &e) {
		return e.ShouldCloseConnection()
	}

	return true
}

// KindOf returns the category of err, or KindUnknown when err is nil or was
// not produced by this module.
func KindOf(err error) ErrorKind {
	if err == nil {
		return KindUnknown
	}

	var (
		connErr  *ConnectionError
		protoErr *ProtocolError
		authErr  *AuthenticationError
		wrongErr *WrongResponseError
		encErr   *EncodingError
		remErr   *RemoteError
	)

	switch {
	case errors.As(err, &authErr):
		return KindAuthentication
	case errors.As(err, &remErr):
		return KindRemote
	case errors.As(err, &wrongErr):
		return KindWrongResponse
	case errors.As(err, &encErr):
		return KindEncoding
	case errors.As(err, &protoErr):
		return KindProtocol
	case errors.As(err, &connErr):
		return KindConnection
	default:
		return KindUnknown
	}
}
