package rpc

import (
	"errors"
	"fmt"
)

// JSON-RPC 2.0 error codes.
const (
	CodeParse          = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternal       = -32603
)

// Provider error codes defined by EIP-1193.
const (
	CodeUserRejected      = 4001
	CodeUnauthorized      = 4100
	CodeUnsupportedMethod = 4200
	CodeDisconnected      = 4900
	CodeChainDisconnected = 4901
)

// Close codes carried by the disconnect event payload, borrowed from the
// websocket status code table.
const (
	CodeSessionUnrecoverable = 1011
	CodeSessionRecoverable   = 1013
)

// Error is a JSON-RPC error object. It travels both on the wire (inside a
// Response) and as a regular Go error through provider APIs.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("json-rpc error %d", e.Code)
}

// ErrorCode returns the numeric code, mirroring the accessor convention of
// go-ethereum's rpc error types.
func (e *Error) ErrorCode() int { return e.Code }

// ErrorData returns the attached diagnostic data, if any.
func (e *Error) ErrorData() any { return e.Data }

// HasCode reports whether err is or wraps an *Error with the given code.
func HasCode(err error, code int) bool {
	var rerr *Error
	return errors.As(err, &rerr) && rerr.Code == code
}

// ErrInvalidRequestArgs flags a malformed request argument. The rejected
// value rides along as diagnostic data.
func ErrInvalidRequestArgs(args any) *Error {
	return &Error{
		Code:    CodeInvalidRequest,
		Message: "expected a single non-array request object",
		Data:    args,
	}
}

// ErrInvalidRequestMethod flags a request whose method is missing or not a
// non-empty string.
func ErrInvalidRequestMethod(args any) *Error {
	return &Error{
		Code:    CodeInvalidRequest,
		Message: "request method must be a non-empty string",
		Data:    args,
	}
}

// ErrUnsupportedSyncMethod is raised by the synchronous legacy surface for
// any method outside its short compatibility table.
func ErrUnsupportedSyncMethod(method string) *Error {
	msg := "the provider does not support synchronous methods without a callback"
	if method != "" {
		msg = fmt.Sprintf("the provider does not support calling %q synchronously without a callback", method)
	}
	return &Error{Code: CodeUnsupportedMethod, Message: msg}
}

// ErrDisconnected is returned for requests attempted while the transport to
// the wallet backend is down. reason carries the underlying cause when known.
func ErrDisconnected(reason string) *Error {
	e := &Error{Code: CodeDisconnected, Message: "the provider is disconnected from the wallet backend"}
	if reason != "" {
		e.Data = reason
	}
	return e
}

// ErrSessionClosed is the payload of the disconnect event: the session ended
// and cannot be restored without a restart of the embedding environment.
func ErrSessionClosed() *Error {
	return &Error{
		Code:    CodeSessionUnrecoverable,
		Message: "the provider lost its connection to the wallet backend and cannot recover this session",
	}
}
