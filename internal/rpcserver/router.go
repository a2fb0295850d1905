// ABOUTME: Method table mapping RPC method names to handler functions
// ABOUTME: Dispatch wraps handler failures in wire error envelopes

package rpcserver

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/meridian-node/meridian/pkg/jsonrpc"
	"github.com/meridian-node/meridian/pkg/jsonval"
)

// Handler executes one RPC method. params is always an array value.
// Returning a *jsonrpc.Error puts that exact code and message on the wire;
// any other error is reported with code -1.
type Handler func(ctx context.Context, params jsonval.Value) (jsonval.Value, error)

// Router holds the method table.
type Router struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

// NewRouter returns an empty method table.
func NewRouter() *Router {
	return &Router{handlers: make(map[string]Handler)}
}

// Register adds or replaces the handler for method.
func (r *Router) Register(method string, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[method] = h
}

// Has reports whether method is registered.
func (r *Router) Has(method string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.handlers[method]
	return ok
}

// Methods returns the registered method names, sorted.
func (r *Router) Methods() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Dispatch runs the handler for method and maps its failure to a wire
// error: unknown methods report "Method not found", handler errors that
// are not already *jsonrpc.Error report code -1 with the error text.
func (r *Router) Dispatch(ctx context.Context, method string, params jsonval.Value) (jsonval.Value, *jsonrpc.Error) {
	r.mu.RLock()
	h, ok := r.handlers[method]
	r.mu.RUnlock()
	if !ok {
		return jsonval.Value{}, jsonrpc.NewMethodNotFoundError()
	}

	result, err := h(ctx, params)
	if err != nil {
		var rpcErr *jsonrpc.Error
		if errors.As(err, &rpcErr) {
			return jsonval.Value{}, rpcErr
		}
		return jsonval.Value{}, jsonrpc.NewError(jsonrpc.ErrCodeMisc, err.Error())
	}
	return result, nil
}
