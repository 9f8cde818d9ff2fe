package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/toolgate/toolgate/pkg/indexer"
	"github.com/toolgate/toolgate/pkg/orchestrator"
	"github.com/toolgate/toolgate/pkg/tool"
)

// registerMethods wires the RPC method set. Method names mirror the HTTP
// routes one to one.
func (s *Server) registerMethods() {
	_ = s.router.RegisterMethod("tools.invoke", s.rpcInvoke)
	_ = s.router.RegisterMethod("tools.search", s.rpcSearch)
	_ = s.router.RegisterMethod("tools.list", s.rpcList)
	_ = s.router.RegisterMethod("tools.reindex", s.rpcReindex)
}

func (s *Server) rpcInvoke(ctx context.Context, params map[string]interface{}) (interface{}, *RPCError) {
	req, err := decodeCallRequest(params)
	if err != nil {
		return nil, &RPCError{Code: InvalidParams, Message: "invalid invoke params", Data: err.Error()}
	}

	if req.Tool == orchestrator.MultiToolName || (req.Tool == "" && req.Query != "") {
		return s.runBatch(ctx, req), nil
	}
	if req.Tool == "" {
		return tool.Failure("", "", "missing query or tool_uses"), nil
	}
	return s.execute(ctx, orchestrator.NormalizeToolName(req.Tool), invokeArgs(req)), nil
}

func (s *Server) rpcSearch(ctx context.Context, params map[string]interface{}) (interface{}, *RPCError) {
	query, _ := params["query"].(string)

	descriptors, err := s.provider.Search(ctx, query)
	if err != nil {
		return nil, &RPCError{Code: InternalError, Message: "catalog search failed", Data: err.Error()}
	}

	active := make([]tool.Descriptor, 0, len(descriptors))
	for _, d := range descriptors {
		if d.IsActive {
			active = append(active, d)
		}
	}
	return SearchResponse{Value: active, Count: len(active)}, nil
}

func (s *Server) rpcList(ctx context.Context, params map[string]interface{}) (interface{}, *RPCError) {
	descriptors, err := s.provider.GetAll(ctx)
	if err != nil {
		return nil, &RPCError{Code: InternalError, Message: "catalog listing failed", Data: err.Error()}
	}

	active := make([]tool.Descriptor, 0, len(descriptors))
	for _, d := range descriptors {
		if d.IsActive {
			active = append(active, d)
		}
	}
	return SearchResponse{Value: active, Count: len(active)}, nil
}

func (s *Server) rpcReindex(ctx context.Context, params map[string]interface{}) (interface{}, *RPCError) {
	start := time.Now()
	count, err := s.indexer.Reindex(ctx)
	s.metrics.ObserveReindex(count, time.Since(start), err)

	if errors.Is(err, indexer.ErrReindexInProgress) {
		return nil, &RPCError{Code: InvalidRequest, Message: err.Error()}
	}
	if err != nil {
		return nil, &RPCError{Code: InternalError, Message: "reindex failed", Data: err.Error()}
	}
	return ReindexResponse{Descriptors: count}, nil
}

// decodeCallRequest converts loosely-typed RPC params into a CallRequest by
// round-tripping through JSON, so both transports share one decode path.
func decodeCallRequest(params map[string]interface{}) (tool.CallRequest, error) {
	var req tool.CallRequest
	data, err := json.Marshal(params)
	if err != nil {
		return req, err
	}
	if err := json.Unmarshal(data, &req); err != nil {
		return req, err
	}
	return req, nil
}
