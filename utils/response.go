package utils

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// JSONResponse defines the uniform structure for API responses.
type JSONResponse struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// APIError is a client-facing failure carrying its HTTP status and business code.
type APIError struct {
	Status  int
	Code    int
	Message string
}

func (e *APIError) Error() string {
	return e.Message
}

// NewAPIError builds an APIError.
func NewAPIError(status, code int, message string) *APIError {
	return &APIError{Status: status, Code: code, Message: message}
}

// Respond writes a JSON response with the given status code.
func Respond(ctx *gin.Context, status int, code int, message string, data interface{}) {
	ctx.JSON(status, JSONResponse{
		Code:    code,
		Message: message,
		Data:    data,
	})
}

// Success returns a standard success response.
func Success(ctx *gin.Context, data interface{}) {
	Respond(ctx, http.StatusOK, 0, "success", data)
}

// Error returns a standard error response.
func Error(ctx *gin.Context, status int, code int, message string) {
	Respond(ctx, status, code, message, nil)
}

// Fail renders err. APIErrors are passed through; anything else is logged and
// reported as a generic server error so no internals leak to the client.
func Fail(ctx *gin.Context, err error) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		Error(ctx, apiErr.Status, apiErr.Code, apiErr.Message)
		return
	}
	Logger.Error("request failed",
		zap.String("request_id", ctx.GetString(RequestIDKey)),
		zap.String("method", ctx.Request.Method),
		zap.String("path", ctx.Request.URL.Path),
		zap.Error(err),
	)
	Error(ctx, http.StatusInternalServerError, 50000, "internal server error")
}
