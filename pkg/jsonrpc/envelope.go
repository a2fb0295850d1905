// ABOUTME: Request and reply envelope construction, validation, and decoding
// ABOUTME: Fixed member order on the wire; a non-null error forces result to null

package jsonrpc

import (
	"errors"
	"fmt"

	"github.com/meridian-node/meridian/pkg/jsonval"
)

// Request is a validated request envelope. Params is always an array after
// ParseRequest, never null.
type Request struct {
	Method string
	Params jsonval.Value
	ID     jsonval.Value
}

// Reply is a decoded reply envelope. Err is non-nil exactly when the error
// member was non-null.
type Reply struct {
	Result jsonval.Value
	Err    *Error
	ID     jsonval.Value
}

// EncodeRequest renders a request envelope, members in the order method,
// params, id, with a trailing newline.
func EncodeRequest(method string, params, id jsonval.Value) []byte {
	req := jsonval.Object(
		jsonval.Field("method", jsonval.String(method)),
		jsonval.Field("params", params),
		jsonval.Field("id", id),
	)
	return append(jsonval.Marshal(req), '\n')
}

// ReplyObj builds a reply envelope, members in the order result, error, id.
// When errv is non-null the result member is serialized as null no matter
// what was passed: a reply never carries both.
func ReplyObj(result, errv, id jsonval.Value) jsonval.Value {
	if !errv.IsNull() {
		result = jsonval.Null()
	}
	return jsonval.Object(
		jsonval.Field("result", result),
		jsonval.Field("error", errv),
		jsonval.Field("id", id),
	)
}

// EncodeReply renders ReplyObj compactly with a trailing newline.
func EncodeReply(result, errv, id jsonval.Value) []byte {
	return append(jsonval.Marshal(ReplyObj(result, errv, id)), '\n')
}

// ParseRequest validates a decoded request body. The id member is captured
// before any validation so error replies can echo it. A missing or null
// params member becomes an empty array; any other non-array params value is
// invalid. All failures carry ErrCodeInvalidRequest.
func ParseRequest(v jsonval.Value) (Request, *Error) {
	var req Request
	if v.Kind() != jsonval.KindObject {
		return req, NewError(ErrCodeInvalidRequest, "Invalid Request object")
	}

	req.ID, _ = v.Get("id")

	method, ok := v.Get("method")
	if !ok || method.IsNull() {
		return req, NewError(ErrCodeInvalidRequest, "Missing method")
	}
	name, ok := method.AsString()
	if !ok {
		return req, NewError(ErrCodeInvalidRequest, "Method must be a string")
	}
	req.Method = name

	params, found := v.Get("params")
	switch {
	case !found || params.IsNull():
		req.Params = jsonval.Array()
	case params.Kind() == jsonval.KindArray:
		req.Params = params
	default:
		return req, NewError(ErrCodeInvalidRequest, "Params must be an array")
	}

	return req, nil
}

// DecodeReply parses a reply body. The error member, when non-null, must be
// an object with an integer code; its message may be absent.
func DecodeReply(body []byte) (Reply, error) {
	v, err := jsonval.Parse(body)
	if err != nil {
		return Reply{}, fmt.Errorf("parsing reply: %w", err)
	}
	members, ok := v.AsObject()
	if !ok {
		return Reply{}, errors.New("reply is not an object")
	}
	if len(members) == 0 {
		return Reply{}, errors.New("reply has no result, error, or id members")
	}

	var rep Reply
	rep.Result, _ = v.Get("result")
	rep.ID, _ = v.Get("id")

	errv, _ := v.Get("error")
	if errv.IsNull() {
		return rep, nil
	}

	codev, ok := errv.Get("code")
	if !ok {
		return Reply{}, errors.New("error member has no code")
	}
	code, ok := codev.AsInt()
	if !ok {
		return Reply{}, errors.New("error code is not an integer")
	}
	message := ""
	if msgv, ok := errv.Get("message"); ok {
		message, _ = msgv.AsString()
	}
	rep.Err = NewError(int(code), message)

	return rep, nil
}
