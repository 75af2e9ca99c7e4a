package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/qzarchive/qzarchive/pkg/logging"
	"github.com/qzarchive/qzarchive/pkg/telemetry"
)

// JSONRPCRequest represents a JSON-RPC 2.0 request
type JSONRPCRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
}

// JSONRPCResponse represents a JSON-RPC 2.0 response
type JSONRPCResponse struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      interface{}   `json:"id"`
	Result  interface{}   `json:"result,omitempty"`
	Error   *JSONRPCError `json:"error,omitempty"`
}

// JSONRPCError represents a JSON-RPC error
type JSONRPCError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// MethodHandler is a function that handles a JSON-RPC method
type MethodHandler func(ctx *gin.Context, params json.RawMessage) (interface{}, error)

// JSONRPCHandler handles JSON-RPC requests
type JSONRPCHandler struct {
	methods map[string]MethodHandler
	logger  *zap.Logger
}

// NewJSONRPCHandler creates a new JSON-RPC handler
func NewJSONRPCHandler() *JSONRPCHandler {
	return &JSONRPCHandler{
		methods: make(map[string]MethodHandler),
		logger:  logging.WithComponent("jsonrpc"),
	}
}

// RegisterMethod registers a method handler
func (h *JSONRPCHandler) RegisterMethod(method string, handler MethodHandler) {
	h.methods[method] = handler
}

// Handle handles a JSON-RPC request
func (h *JSONRPCHandler) Handle(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "jsonrpc.handle")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	var req JSONRPCRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.sendError(c, nil, ErrParseError, "Parse error", err)
		return
	}
	span.SetAttributes(attribute.String("rpc.method", req.Method))

	// Validate JSON-RPC version
	if req.JSONRPC != "2.0" {
		h.sendError(c, req.ID, ErrInvalidRequest, "Invalid Request", fmt.Errorf("invalid jsonrpc version"))
		return
	}

	handler, ok := h.methods[req.Method]
	if !ok {
		h.sendError(c, req.ID, ErrMethodNotFound, "Method not found", fmt.Errorf("method %s not found", req.Method))
		return
	}

	result, err := handler(c, req.Params)
	if err != nil {
		span.RecordError(err)
		var apiErr *Error
		if errors.As(err, &apiErr) {
			h.sendAPIError(c, req.ID, apiErr)
			return
		}
		h.sendError(c, req.ID, ErrServerError, "Server error", err)
		return
	}

	h.sendResponse(c, req.ID, result)
}

// sendResponse sends a successful JSON-RPC response
func (h *JSONRPCHandler) sendResponse(c *gin.Context, id interface{}, result interface{}) {
	resp := JSONRPCResponse{
		JSONRPC: "2.0",
		ID:      id,
		Result:  result,
	}
	c.JSON(http.StatusOK, resp)
}

// sendAPIError sends an error raised by a method handler
func (h *JSONRPCHandler) sendAPIError(c *gin.Context, id interface{}, apiErr *Error) {
	h.logger.Debug("JSON-RPC method rejected request",
		zap.Int("code", apiErr.Code), zap.String("message", apiErr.Message))

	resp := JSONRPCResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &JSONRPCError{
			Code:    apiErr.Code,
			Message: apiErr.Message,
			Data:    apiErr.Data,
		},
	}
	c.JSON(http.StatusOK, resp)
}

// sendError sends an error JSON-RPC response
func (h *JSONRPCHandler) sendError(c *gin.Context, id interface{}, code int, message string, err error) {
	h.logger.Error("JSON-RPC error", zap.String("message", message), zap.Error(err))

	resp := JSONRPCResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &JSONRPCError{
			Code:    code,
			Message: message,
			Data:    err.Error(),
		},
	}
	c.JSON(http.StatusOK, resp)
}

// Standard JSON-RPC error codes
const (
	ErrParseError     = -32700
	ErrInvalidRequest = -32600
	ErrMethodNotFound = -32601
	ErrInvalidParams  = -32602
	ErrInternalError  = -32603
	ErrServerError    = -32000
)
