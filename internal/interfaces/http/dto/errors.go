package dto

import "net/http"

// General error codes
const (
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "INTERNAL_ERROR"
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "BAD_REQUEST"
)

// ErrorCodeHTTPStatus maps domain error codes to HTTP status codes.
// Business rejections are 422: the request is well-formed but the
// counters do not admit it.
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInternal:   http.StatusInternalServerError,
	ErrCodeBadRequest: http.StatusBadRequest,

	"INVALID_INPUT": http.StatusBadRequest,
	"NOT_FOUND":     http.StatusNotFound,
	"DUPLICATE_SKU": http.StatusConflict,

	"INSUFFICIENT_STOCK":    http.StatusUnprocessableEntity,
	"INSUFFICIENT_RESERVED": http.StatusUnprocessableEntity,
	"STOCK_BELOW_RESERVED":  http.StatusUnprocessableEntity,

	// the caller should retry after backoff
	"LOCK_BUSY": http.StatusConflict,

	"STORE_ERROR":       http.StatusInternalServerError,
	"PAYLOAD_TOO_LARGE": http.StatusRequestEntityTooLarge,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Returns 500 Internal Server Error if the error code is not found.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
