// ABOUTME: JSON-RPC error type, error codes, and code-to-HTTP-status mapping
// ABOUTME: Speaks 1.0 envelopes with the 1.1/2.0 error conventions for the unspecified parts

package jsonrpc

import (
	"fmt"

	"github.com/meridian-node/meridian/pkg/httpmsg"
	"github.com/meridian-node/meridian/pkg/jsonval"
)

// Standard JSON-RPC 2.0 error codes.
const (
	ErrCodeInvalidRequest = -32600
	ErrCodeMethodNotFound = -32601
	ErrCodeInvalidParams  = -32602
	ErrCodeInternal       = -32603
	ErrCodeParse          = -32700
)

// Application-defined error codes.
const (
	ErrCodeMisc             = -1
	ErrCodeType             = -3
	ErrCodeInvalidParameter = -8
)

// Error is the application error carried in the reply envelope's error
// member. Handlers return it to control the code a caller sees.
type Error struct {
	Code    int
	Message string
}

// NewError builds an Error.
func NewError(code int, message string) *Error {
	return &Error{Code: code, Message: message}
}

// NewParseError reports an unparsable request body.
func NewParseError() *Error {
	return NewError(ErrCodeParse, "Parse error")
}

// NewMethodNotFoundError reports an unregistered method. The message is a
// fixed string peers match on, so the method name is not included.
func NewMethodNotFoundError() *Error {
	return NewError(ErrCodeMethodNotFound, "Method not found")
}

func (e *Error) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// Value renders the error as its wire object, members in the order
// code, message.
func (e *Error) Value() jsonval.Value {
	return jsonval.Object(
		jsonval.Field("code", jsonval.Int(int64(e.Code))),
		jsonval.Field("message", jsonval.String(e.Message)),
	)
}

// HTTPStatusFor maps an error code to the HTTP status its error reply is
// framed with: 400 for invalid requests, 404 for unknown methods, and 500
// for everything else.
func HTTPStatusFor(code int) int {
	switch code {
	case ErrCodeInvalidRequest:
		return httpmsg.StatusBadRequest
	case ErrCodeMethodNotFound:
		return httpmsg.StatusNotFound
	}
	return httpmsg.StatusInternalServerError
}
