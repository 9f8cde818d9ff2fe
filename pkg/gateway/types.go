package gateway

// RPCRequest is one websocket request frame.
type RPCRequest struct {
	ID     string                 `json:"id"`
	Method string                 `json:"method"`
	Params map[string]interface{} `json:"params,omitempty"`
}

// RPCResponse is one websocket response frame.
type RPCResponse struct {
	ID     string      `json:"id"`
	Result interface{} `json:"result,omitempty"`
	Error  *RPCError   `json:"error,omitempty"`
}

// RPCError carries a method-level failure. Tool-logic failures never appear
// here; they travel inside the result envelope.
type RPCError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Error implements the error interface.
func (e *RPCError) Error() string {
	return e.Message
}

// RPC error codes, JSON-RPC flavored.
const (
	ParseError     = -32700
	InvalidRequest = -32600
	MethodNotFound = -32601
	InvalidParams  = -32602
	InternalError  = -32603
)

// SearchRequest is the body of POST /v1/tools/search.
type SearchRequest struct {
	Query string `json:"query"`
}

// SearchResponse mirrors the catalog search contract.
type SearchResponse struct {
	Value interface{} `json:"value"`
	Count int         `json:"count"`
}

// ReindexResponse reports one completed rebuild.
type ReindexResponse struct {
	Descriptors int `json:"descriptors"`
}
