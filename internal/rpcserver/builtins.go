// ABOUTME: Built-in control methods every server exposes
// ABOUTME: help, uptime, echo, and stop wired to daemon state via BuiltinDeps

package rpcserver

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/meridian-node/meridian/pkg/jsonrpc"
	"github.com/meridian-node/meridian/pkg/jsonval"
)

// BuiltinDeps supplies the daemon state the built-in methods report on
// or act against.
type BuiltinDeps struct {
	// StartTime anchors the uptime counter.
	StartTime time.Time

	// Stop requests daemon shutdown. May be nil.
	Stop func()
}

// RegisterBuiltins adds the standard control methods to r.
func RegisterBuiltins(r *Router, deps BuiltinDeps) {
	r.Register("help", func(ctx context.Context, params jsonval.Value) (jsonval.Value, error) {
		elems, _ := params.AsArray()
		if len(elems) > 1 {
			return jsonval.Value{}, jsonrpc.NewError(jsonrpc.ErrCodeMisc, `help ( "command" )`)
		}
		if len(elems) == 1 {
			name, ok := elems[0].AsString()
			if !ok {
				return jsonval.Value{}, jsonrpc.NewError(jsonrpc.ErrCodeType, "command must be a string")
			}
			if !r.Has(name) {
				return jsonval.String(fmt.Sprintf("help: unknown command: %s", name)), nil
			}
			return jsonval.String(name), nil
		}
		return jsonval.String(strings.Join(r.Methods(), "\n")), nil
	})

	r.Register("uptime", func(ctx context.Context, params jsonval.Value) (jsonval.Value, error) {
		return jsonval.Int(int64(time.Since(deps.StartTime) / time.Second)), nil
	})

	r.Register("echo", func(ctx context.Context, params jsonval.Value) (jsonval.Value, error) {
		return params, nil
	})

	r.Register("stop", func(ctx context.Context, params jsonval.Value) (jsonval.Value, error) {
		if deps.Stop != nil {
			deps.Stop()
		}
		return jsonval.String("meridian server stopping"), nil
	})
}
