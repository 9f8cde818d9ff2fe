package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// RequestHandler handles one RPC method invocation.
type RequestHandler func(ctx context.Context, params map[string]interface{}) (interface{}, *RPCError)

// RPCRouter routes websocket request frames to registered method handlers.
type RPCRouter struct {
	mu      sync.RWMutex
	methods map[string]RequestHandler
}

// NewRPCRouter creates an empty router.
func NewRPCRouter() *RPCRouter {
	return &RPCRouter{methods: make(map[string]RequestHandler)}
}

// RegisterMethod registers a method handler.
func (r *RPCRouter) RegisterMethod(name string, handler RequestHandler) error {
	if handler == nil {
		return fmt.Errorf("handler cannot be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.methods[name] = handler
	return nil
}

// ParseRequest parses and validates a request frame. Frames without an ID
// get one assigned so the response can still be correlated.
func (r *RPCRouter) ParseRequest(data []byte) (*RPCRequest, *RPCError) {
	var req RPCRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, &RPCError{Code: ParseError, Message: "parse error", Data: err.Error()}
	}

	if req.Method == "" {
		return nil, &RPCError{Code: InvalidRequest, Message: "missing method field"}
	}

	if req.ID == "" {
		id, err := gonanoid.New()
		if err != nil {
			return nil, &RPCError{Code: InternalError, Message: "failed to assign request id"}
		}
		req.ID = id
	}

	return &req, nil
}

// RouteRequest dispatches a parsed request to its handler.
func (r *RPCRouter) RouteRequest(ctx context.Context, req *RPCRequest) *RPCResponse {
	r.mu.RLock()
	handler, ok := r.methods[req.Method]
	r.mu.RUnlock()

	if !ok {
		return &RPCResponse{
			ID:    req.ID,
			Error: &RPCError{Code: MethodNotFound, Message: fmt.Sprintf("method not found: %s", req.Method)},
		}
	}

	result, rpcErr := handler(ctx, req.Params)
	if rpcErr != nil {
		return &RPCResponse{ID: req.ID, Error: rpcErr}
	}
	return &RPCResponse{ID: req.ID, Result: result}
}
