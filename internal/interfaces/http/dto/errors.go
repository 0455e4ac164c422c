package dto

import "net/http"

// Transport-level error codes for failures that never reach the domain
const (
	ErrCodeBadRequest   = "BAD_REQUEST"
	ErrCodeUnauthorized = "UNAUTHORIZED"
	ErrCodeNotFound     = "NOT_FOUND"
	ErrCodeInternal     = "INTERNAL"
)

// errorCodeHTTPStatus maps domain error codes to HTTP status codes. Codes
// not listed here fall back to 500.
var errorCodeHTTPStatus = map[string]int{
	ErrCodeBadRequest:   http.StatusBadRequest,
	ErrCodeUnauthorized: http.StatusUnauthorized,
	ErrCodeNotFound:     http.StatusNotFound,
	ErrCodeInternal:     http.StatusInternalServerError,

	"ITEM_NOT_FOUND":  http.StatusNotFound,
	"RULE_NOT_FOUND":  http.StatusNotFound,
	"ALERT_NOT_FOUND": http.StatusNotFound,

	"ALREADY_EXISTS":  http.StatusConflict,
	"STALE_AGGREGATE": http.StatusConflict,

	"INVALID_INPUT":    http.StatusBadRequest,
	"INVALID_QUANTITY": http.StatusBadRequest,

	"PERMISSION_DENIED": http.StatusForbidden,

	"INVALID_TRANSITION": http.StatusUnprocessableEntity,
	"INSUFFICIENT_STOCK": http.StatusUnprocessableEntity,

	"NOTIFICATION_DISPATCH_FAILED": http.StatusBadGateway,
}

// GetHTTPStatus returns the HTTP status code for an error code
func GetHTTPStatus(code string) int {
	if status, ok := errorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
